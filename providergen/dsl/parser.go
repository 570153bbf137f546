// Package dsl turns raw provider declarations into the ir descriptor model.
//
// Two front ends are supported. Parse consumes the brace declaration syntax:
//
//	UserAPI, {
//		{ path: "/users", method: GET, res: []User },
//		{ path: "/users/{id}", method: GET, path_params: UserPath, res: User },
//	}
//
// Load consumes a YAML schema document describing the same thing. Both
// produce identical descriptors and report failures through ir.Diagnostic.
//
// Parsing is purely structural: type references (req, res, headers,
// query_params, path_params) are captured verbatim and never resolved here.
package dsl

import (
	"strconv"
	"strings"

	"github.com/broady/provider/providergen/ir"
)

// File is the parsed form of one declaration source.
type File struct {
	// Package is the target package name for emitted files. Only set by the
	// YAML front end; the brace syntax has no package clause.
	Package string

	// Imports are extra import paths for the emitted files.
	Imports []string

	// Types is the optional type registry for cross-reference checking.
	Types Registry

	// Providers holds one descriptor per declaration, in source order.
	Providers []ir.ProviderDescriptor
}

// Parse consumes one or more brace-delimited provider declarations.
func Parse(src string) (*File, error) {
	p := &parser{src: src, line: 1, col: 1}
	f := &File{}
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		decl, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		f.Providers = append(f.Providers, *decl)
	}
	if len(f.Providers) == 0 {
		return nil, ir.Diagf(ir.CodeMalformedDeclaration, ir.Pos{Line: 1, Col: 1}, "",
			"no provider declarations found")
	}
	return f, nil
}

// endpointFields are the recognized keys inside an endpoint block.
var endpointFields = map[string]bool{
	"path":         true,
	"method":       true,
	"fn_name":      true,
	"req":          true,
	"res":          true,
	"headers":      true,
	"query_params": true,
	"path_params":  true,
}

type parser struct {
	src  string
	off  int
	line int
	col  int
}

func (p *parser) eof() bool { return p.off >= len(p.src) }

func (p *parser) pos() ir.Pos { return ir.Pos{Line: p.line, Col: p.col} }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.off]
}

func (p *parser) advance() byte {
	c := p.src[p.off]
	p.off++
	if c == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return c
}

// skipSpace consumes whitespace and // line comments.
func (p *parser) skipSpace() {
	for !p.eof() {
		switch c := p.peek(); {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			p.advance()
		case c == '/' && p.off+1 < len(p.src) && p.src[p.off+1] == '/':
			for !p.eof() && p.peek() != '\n' {
				p.advance()
			}
		default:
			return
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (p *parser) parseIdent() (string, ir.Pos, bool) {
	pos := p.pos()
	if p.eof() || !isIdentStart(p.peek()) {
		return "", pos, false
	}
	start := p.off
	for !p.eof() && isIdentPart(p.peek()) {
		p.advance()
	}
	return p.src[start:p.off], pos, true
}

// expect consumes the given punctuation or fails with a malformed
// declaration diagnostic naming what was being parsed.
func (p *parser) expect(c byte, context string) error {
	if p.peek() == c {
		p.advance()
		return nil
	}
	return ir.Diagf(ir.CodeMalformedDeclaration, p.pos(), p.fragment(),
		"expected %q %s", string(c), context)
}

// fragment returns a short run of upcoming source for diagnostics.
func (p *parser) fragment() string {
	end := p.off
	for end < len(p.src) && end-p.off < 20 && p.src[end] != '\n' {
		end++
	}
	f := strings.TrimSpace(p.src[p.off:end])
	if f == "" {
		f = "<end of input>"
	}
	return f
}

// parseDeclaration parses: ProviderName "," "{" Endpoint ("," Endpoint)* "}"
func (p *parser) parseDeclaration() (*ir.ProviderDescriptor, error) {
	name, npos, ok := p.parseIdent()
	if !ok {
		return nil, ir.Diagf(ir.CodeMalformedDeclaration, p.pos(), p.fragment(),
			"expected provider name")
	}
	p.skipSpace()
	if err := p.expect(',', "after provider name"); err != nil {
		return nil, err
	}
	p.skipSpace()
	if err := p.expect('{', "to open endpoint list"); err != nil {
		return nil, err
	}

	decl := &ir.ProviderDescriptor{Name: name, Pos: npos}
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.advance()
			break
		}
		ep, err := p.parseEndpoint()
		if err != nil {
			return nil, err
		}
		decl.Endpoints = append(decl.Endpoints, *ep)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.advance()
		case '}':
			// Closed on next iteration.
		default:
			return nil, ir.Diagf(ir.CodeMalformedDeclaration, p.pos(), p.fragment(),
				"expected \",\" or \"}\" after endpoint block")
		}
	}

	if len(decl.Endpoints) == 0 {
		return nil, ir.Diagf(ir.CodeMalformedDeclaration, npos, name,
			"provider %s declares no endpoints", name)
	}
	return decl, nil
}

// parseEndpoint parses one "{" key ":" value ("," key ":" value)* "}" block.
func (p *parser) parseEndpoint() (*ir.EndpointDescriptor, error) {
	pos := p.pos()
	if err := p.expect('{', "to open endpoint block"); err != nil {
		return nil, err
	}

	ep := &ir.EndpointDescriptor{Pos: pos}
	seen := make(map[string]ir.Pos)
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.advance()
			break
		}

		key, kpos, ok := p.parseIdent()
		if !ok {
			return nil, ir.Diagf(ir.CodeMalformedDeclaration, p.pos(), p.fragment(),
				"expected field name in endpoint block")
		}
		if !endpointFields[key] {
			return nil, ir.Diagf(ir.CodeUnknownField, kpos, key,
				"unknown field %q in endpoint block", key)
		}
		if prev, dup := seen[key]; dup {
			return nil, ir.Diagf(ir.CodeDuplicateField, kpos, key,
				"field %q already set at %d:%d", key, prev.Line, prev.Col)
		}
		seen[key] = kpos

		p.skipSpace()
		if err := p.expect(':', "after field name"); err != nil {
			return nil, err
		}
		p.skipSpace()

		if err := p.parseFieldValue(ep, key); err != nil {
			return nil, err
		}

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.advance()
		case '}':
			// Closed on next iteration.
		default:
			return nil, ir.Diagf(ir.CodeMalformedDeclaration, p.pos(), p.fragment(),
				"expected \",\" or \"}\" after field %q", key)
		}
	}

	if err := checkRequired(ep, pos); err != nil {
		return nil, err
	}
	return ep, nil
}

func (p *parser) parseFieldValue(ep *ir.EndpointDescriptor, key string) error {
	switch key {
	case "path":
		s, err := p.parseString()
		if err != nil {
			return err
		}
		ep.Path = s
	case "method":
		tok, tpos, ok := p.parseIdent()
		if !ok {
			return ir.Diagf(ir.CodeMalformedDeclaration, p.pos(), p.fragment(),
				"expected HTTP method token")
		}
		m, ok := ir.ParseMethod(strings.ToUpper(tok))
		if !ok {
			return ir.Diagf(ir.CodeUnsupportedMethod, tpos, tok,
				"unsupported HTTP method %q (want GET, POST, PUT or DELETE)", tok)
		}
		ep.Method = m
	case "fn_name":
		tok, _, ok := p.parseIdent()
		if !ok {
			return ir.Diagf(ir.CodeMalformedDeclaration, p.pos(), p.fragment(),
				"expected identifier for fn_name")
		}
		ep.FnName = tok
	default:
		ref, err := p.parseTypeRef(key)
		if err != nil {
			return err
		}
		switch key {
		case "req":
			ep.Req = ref
		case "res":
			ep.Res = ref
		case "headers":
			ep.Headers = ref
		case "query_params":
			ep.QueryParams = ref
		case "path_params":
			ep.PathParams = ref
		}
	}
	return nil
}

func (p *parser) parseString() (string, error) {
	pos := p.pos()
	if p.peek() != '"' {
		return "", ir.Diagf(ir.CodeMalformedDeclaration, pos, p.fragment(),
			"expected string literal")
	}
	start := p.off
	p.advance()
	for !p.eof() {
		c := p.peek()
		if c == '\n' {
			break
		}
		p.advance()
		if c == '\\' && !p.eof() {
			p.advance()
			continue
		}
		if c == '"' {
			s, err := strconv.Unquote(p.src[start:p.off])
			if err != nil {
				return "", ir.Diagf(ir.CodeMalformedDeclaration, pos, p.src[start:p.off],
					"invalid string literal")
			}
			return s, nil
		}
	}
	return "", ir.Diagf(ir.CodeMalformedDeclaration, pos, p.fragment(),
		"unterminated string literal")
}

// parseTypeRef scans a type expression verbatim up to the next comma or
// closing brace at bracket depth zero, so composite types like []User and
// map[string]int pass through untouched.
func (p *parser) parseTypeRef(key string) (ir.TypeRef, error) {
	pos := p.pos()
	start := p.off
	depth := 0
	for !p.eof() {
		c := p.peek()
		if depth == 0 && (c == ',' || c == '}' || c == '\n') {
			break
		}
		switch c {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		}
		p.advance()
	}
	ref := strings.TrimSpace(p.src[start:p.off])
	if ref == "" {
		return "", ir.Diagf(ir.CodeMalformedDeclaration, pos, key,
			"missing type for field %q", key)
	}
	return ir.TypeRef(ref), nil
}

// checkRequired enforces the three required endpoint fields.
func checkRequired(ep *ir.EndpointDescriptor, pos ir.Pos) error {
	switch {
	case ep.Path == "":
		return ir.Diagf(ir.CodeMissingRequiredField, pos, "path",
			"endpoint block is missing required field \"path\"")
	case ep.Method == "":
		return ir.Diagf(ir.CodeMissingRequiredField, pos, "method",
			"endpoint block is missing required field \"method\"")
	case ep.Res.IsZero():
		return ir.Diagf(ir.CodeMissingRequiredField, pos, "res",
			"endpoint block is missing required field \"res\"")
	}
	return nil
}
