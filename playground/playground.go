// Package playground compiles a single declaration file held in memory, for the
// browser build
package playground

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing/fstest"

	"github.com/cottand/ovld/backend"
	"github.com/cottand/ovld/ovlerr"
	"github.com/cottand/ovld/unit"
)

// FileName is the name the in-memory declaration file is loaded under
const FileName = "playground" + unit.DeclSuffix

type Result struct {
	// Plan is the instruction listing of every dispatch routine
	Plan     string
	GoOutput string
}

// Run loads src as a declaration file and generates its dispatch routines into package pkg.
// Compile errors are returned as an *ovlerr.Errors.
func Run(ctx context.Context, src string, pkg string) (Result, error) {
	u, err := unit.LoadFiles(fstest.MapFS{FileName: {Data: []byte(src)}}, FileName)
	if err != nil {
		return Result{}, err
	}

	payloads, err := u.Describe(ctx, 1)
	if err != nil {
		return Result{}, err
	}
	sb := &strings.Builder{}
	for i, p := range payloads {
		if i > 0 {
			sb.WriteString("\n")
		}
		_, _ = fmt.Fprintf(sb, "// %s %s\n", p.Scope, p.Signature)
		for _, line := range p.Listing {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	em, err := backend.NewGoEmitter(pkg, nil, u.Hierarchy)
	if err != nil {
		return Result{}, err
	}
	if _, err := u.Compile(ctx, em, 1); err != nil {
		return Result{}, err
	}
	goSrc, err := backend.Format("dispatch.go", em.File())
	if err != nil {
		return Result{}, err
	}
	return Result{Plan: sb.String(), GoOutput: string(goSrc)}, nil
}

// Describe renders err for display, one error per line with its code
func Describe(err error) string {
	var sb strings.Builder
	var list *ovlerr.Errors
	if errors.As(err, &list) {
		sb.WriteString("the declarations have the following errors:\n")
		sb.WriteString(list.Error())
		return sb.String()
	}
	sb.WriteString("the compiler encountered a failure:\n\n")
	sb.WriteString(err.Error())
	return sb.String()
}
