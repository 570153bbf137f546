package dsl

import (
	"sort"

	"github.com/broady/provider/providergen/ir"
)

// Registry maps type-reference base identifiers to the import path that
// provides them. An empty import path means the type lives in the emitted
// package itself. A nil or empty registry disables cross-reference
// checking: references pass through verbatim and the host compiler is the
// type checker.
type Registry map[string]string

// builtinRefs are identifiers that never need registration.
var builtinRefs = map[string]bool{
	"bool": true, "string": true, "byte": true, "rune": true, "any": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true,
	"http.Header": true, "time.Time": true, "time.Duration": true,
	"json.RawMessage": true,
}

// builtinImports are the import paths behind the qualified builtins.
var builtinImports = map[string]string{
	"http.Header":     "net/http",
	"time.Time":       "time",
	"time.Duration":   "time",
	"json.RawMessage": "encoding/json",
}

// Check cross-references every type a descriptor names against the
// registry, reporting the first unregistered identifier as an
// unknown_type_ref diagnostic.
func (r Registry) Check(p *ir.ProviderDescriptor) error {
	if len(r) == 0 {
		return nil
	}
	for _, ep := range p.Endpoints {
		for _, ref := range ep.TypeRefs() {
			for _, ident := range ref.BaseIdents() {
				if builtinRefs[ident] {
					continue
				}
				if _, ok := r[ident]; ok {
					continue
				}
				return ir.Diagf(ir.CodeUnknownTypeRef, ep.Pos, string(ref),
					"type %q is not declared in the schema types section", ident)
			}
		}
	}
	return nil
}

// ImportsFor collects the import paths needed by every type a descriptor
// references, sorted and deduplicated.
func (r Registry) ImportsFor(p *ir.ProviderDescriptor) []string {
	seen := make(map[string]bool)
	for _, ep := range p.Endpoints {
		for _, ref := range ep.TypeRefs() {
			for _, ident := range ref.BaseIdents() {
				if path := builtinImports[ident]; path != "" {
					seen[path] = true
				} else if path := r[ident]; path != "" {
					seen[path] = true
				}
			}
		}
	}
	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
