package backend

import (
	"bytes"
	"fmt"
	goast "go/ast"
	"go/format"
	"go/token"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"
)

// Format renders f as gofmt-ed source with its imports grouped and sorted
func Format(filename string, f *goast.File) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := format.Node(buf, token.NewFileSet(), f); err != nil {
		return nil, fmt.Errorf("could not print %s: %w", filename, err)
	}
	src, err := imports.Process(filename, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("could not format %s: %w", filename, err)
	}
	return src, nil
}

// WriteFile writes f to dir/name.go, creating dir if needed
func WriteFile(dir, name string, f *goast.File) (string, error) {
	at := filepath.Join(dir, name+".go")
	src, err := Format(at, f)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("could not create output directory: %w", err)
	}
	if err := os.WriteFile(at, src, 0o644); err != nil {
		return "", fmt.Errorf("could not write file: %w", err)
	}
	return at, nil
}
