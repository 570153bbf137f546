// Package ir defines the descriptor model produced by the DSL front ends
// and consumed by the name deriver and the code emitter. Descriptors exist
// only during a generation run; they have no runtime counterpart.
package ir

import (
	"go/ast"
	"go/parser"
	"regexp"
)

// Method is an HTTP method supported by generated providers.
type Method string

const (
	GET    Method = "GET"
	POST   Method = "POST"
	PUT    Method = "PUT"
	DELETE Method = "DELETE"
)

// ParseMethod maps a declaration token to a Method. The second return is
// false for any token outside the four supported methods.
func ParseMethod(tok string) (Method, bool) {
	switch Method(tok) {
	case GET, POST, PUT, DELETE:
		return Method(tok), true
	}
	return "", false
}

// TypeRef is an opaque reference to a Go type, carried verbatim from the
// declaration into the emitted source (e.g. "User", "[]api.User",
// "map[string]int"). The generator does not resolve it; the host compiler
// type-checks the emitted code.
type TypeRef string

// IsZero reports whether the reference is absent.
func (r TypeRef) IsZero() bool { return r == "" }

// BaseIdents returns the base identifiers the reference names, for
// cross-checking against a type registry. "[]api.User" yields ["api.User"];
// "map[string]User" yields ["string", "User"]. An unparseable reference
// yields nil, leaving validation to the host compiler.
func (r TypeRef) BaseIdents() []string {
	expr, err := parser.ParseExpr(string(r))
	if err != nil {
		return nil
	}
	var idents []string
	ast.Inspect(expr, func(n ast.Node) bool {
		switch t := n.(type) {
		case *ast.SelectorExpr:
			if pkg, ok := t.X.(*ast.Ident); ok {
				idents = append(idents, pkg.Name+"."+t.Sel.Name)
				return false
			}
		case *ast.Ident:
			idents = append(idents, t.Name)
		}
		return true
	})
	return idents
}

// Pos is a location in the original declaration source.
type Pos struct {
	Line int
	Col  int
}

// IsZero reports whether the position is unset.
func (p Pos) IsZero() bool { return p.Line == 0 }

// ProviderDescriptor describes one provider declaration: the generated
// client type and its endpoints, in emission order.
type ProviderDescriptor struct {
	// Name is the identifier for the generated provider type.
	// Unique per compilation unit.
	Name string

	// Endpoints is the ordered endpoint list. Order determines emission
	// order and nothing else.
	Endpoints []EndpointDescriptor

	Pos Pos
}

// EndpointDescriptor describes one declared endpoint.
type EndpointDescriptor struct {
	// Path is the template: literal segments plus {ident} placeholders.
	Path string

	// Method is one of GET, POST, PUT, DELETE.
	Method Method

	// FnName is the callable name. Empty until explicit in the declaration
	// or filled by name resolution; always snake_case canonical form.
	FnName string

	// Req is the request body type. Optional; only POST/PUT carry a body by
	// convention, but this is not enforced.
	Req TypeRef

	// Res is the response body type. Required for every endpoint.
	Res TypeRef

	// Headers is the header-map type supplied by the caller. Optional.
	Headers TypeRef

	// QueryParams is the type serialized into the query string. Optional.
	QueryParams TypeRef

	// PathParams is the type whose fields substitute {ident} placeholders
	// in Path. Optional.
	PathParams TypeRef

	Pos Pos
}

// TypeRefs returns the endpoint's present type references, in the fixed
// parameter order (path params, request body, headers, query params)
// followed by the response type.
func (e *EndpointDescriptor) TypeRefs() []TypeRef {
	refs := make([]TypeRef, 0, 5)
	for _, r := range []TypeRef{e.PathParams, e.Req, e.Headers, e.QueryParams, e.Res} {
		if !r.IsZero() {
			refs = append(refs, r)
		}
	}
	return refs
}

var placeholderRE = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Placeholders returns the bare identifiers of the {ident} placeholders in
// a path template, in order of appearance.
func Placeholders(path string) []string {
	matches := placeholderRE.FindAllStringSubmatch(path, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}
