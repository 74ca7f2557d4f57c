package types

import (
	"fmt"
	"strings"
	"text/scanner"
)

// Parse reads a type expression as written in declaration files:
//
//	Integer, List[T], (A, B), (A, B) -> C, A | B, A & B, Any, Bottom
//
// Identifiers found in vars resolve to those static parameters.
func Parse(src string, vars map[string]*Var) (Type, error) {
	p := &parser{vars: vars}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents
	p.s.Error = func(s *scanner.Scanner, msg string) {
		p.err = fmt.Errorf("at %v: %s", s.Position, msg)
	}
	p.next()
	t := p.parseType()
	if p.err == nil && p.tok != scanner.EOF {
		p.failf("unexpected %q", p.s.TokenText())
	}
	if p.err != nil {
		return nil, fmt.Errorf("parse type %q: %w", src, p.err)
	}
	return t, nil
}

// MustParse is Parse for tests and literals, panicking on failure
func MustParse(src string, vars map[string]*Var) Type {
	t, err := Parse(src, vars)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	s    scanner.Scanner
	tok  rune
	vars map[string]*Var
	err  error
}

func (p *parser) next() { p.tok = p.s.Scan() }

func (p *parser) failf(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("at %v: %s", p.s.Position, fmt.Sprintf(format, args...))
	}
}

func (p *parser) expect(r rune) {
	if p.tok != r {
		p.failf("expected %q, found %q", string(r), p.s.TokenText())
		return
	}
	p.next()
}

func (p *parser) parseType() Type {
	first := p.parseIntersection()
	if p.tok != '|' {
		return first
	}
	elems := []Type{first}
	for p.tok == '|' && p.err == nil {
		p.next()
		elems = append(elems, p.parseIntersection())
	}
	return &Union{Elems: elems}
}

func (p *parser) parseIntersection() Type {
	first := p.parseArrow()
	if p.tok != '&' {
		return first
	}
	elems := []Type{first}
	for p.tok == '&' && p.err == nil {
		p.next()
		elems = append(elems, p.parseArrow())
	}
	return &Intersection{Elems: elems}
}

func (p *parser) parseArrow() Type {
	if p.tok == '(' {
		p.next()
		var elems []Type
		for p.tok != ')' && p.err == nil {
			elems = append(elems, p.parseType())
			if p.tok != ',' {
				break
			}
			p.next()
		}
		p.expect(')')
		if p.arrowFollows() {
			return &Arrow{Domain: elems, Range: p.parseArrow()}
		}
		if len(elems) == 1 {
			return elems[0]
		}
		return &Tuple{Elems: elems}
	}
	prim := p.parsePrimary()
	if p.arrowFollows() {
		return &Arrow{Domain: []Type{prim}, Range: p.parseArrow()}
	}
	return prim
}

// arrowFollows consumes "->" if it is the next token pair
func (p *parser) arrowFollows() bool {
	if p.tok != '-' {
		return false
	}
	p.next()
	p.expect('>')
	return true
}

func (p *parser) parsePrimary() Type {
	if p.tok != scanner.Ident {
		p.failf("expected a type, found %q", p.s.TokenText())
		return Bottom{}
	}
	name := p.s.TokenText()
	p.next()
	for p.tok == '.' {
		p.next()
		if p.tok != scanner.Ident {
			p.failf("expected identifier after '.'")
			return Bottom{}
		}
		name += "." + p.s.TokenText()
		p.next()
	}
	if p.tok != '[' {
		switch name {
		case AnyName:
			return Top{}
		case BottomName:
			return Bottom{}
		}
		if v, ok := p.vars[name]; ok {
			return v
		}
		return &Trait{Name: name}
	}
	p.next()
	var args []Type
	for p.err == nil {
		args = append(args, p.parseType())
		if p.tok != ',' {
			break
		}
		p.next()
	}
	p.expect(']')
	return &Trait{Name: name, Args: args}
}
