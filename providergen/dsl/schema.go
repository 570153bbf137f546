package dsl

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/broady/provider/providergen/ir"
)

// Load consumes a YAML schema document:
//
//	package: userapi
//	imports:
//	  - example.com/app/api
//	types:
//	  User: example.com/app/api
//	providers:
//	  - name: UserAPI
//	    endpoints:
//	      - path: /users
//	        method: GET
//	        res: "[]User"
//
// The types section is optional; when present, every type reference must
// resolve against it (see Registry.Check).
func Load(data []byte) (*File, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ir.Diagf(ir.CodeMalformedDeclaration, ir.Pos{}, "",
				"schema document is empty")
		}
		var diag *ir.Diagnostic
		if errors.As(err, &diag) {
			return nil, diag
		}
		return nil, ir.Diagf(ir.CodeMalformedDeclaration, ir.Pos{}, "",
			"invalid schema document: %v", err)
	}

	if len(doc.Providers) == 0 {
		return nil, ir.Diagf(ir.CodeMalformedDeclaration, ir.Pos{}, "providers",
			"schema document declares no providers")
	}

	f := &File{
		Package: doc.Package,
		Imports: doc.Imports,
		Types:   doc.Types,
	}
	for _, p := range doc.Providers {
		decl, err := p.descriptor()
		if err != nil {
			return nil, err
		}
		f.Providers = append(f.Providers, *decl)
	}
	return f, nil
}

type document struct {
	Package   string           `yaml:"package"`
	Imports   []string         `yaml:"imports"`
	Types     Registry         `yaml:"types"`
	Providers []providerSchema `yaml:"providers"`
}

type providerSchema struct {
	Name      string           `yaml:"name"`
	Endpoints []endpointSchema `yaml:"endpoints"`
	pos       ir.Pos
}

func (p *providerSchema) UnmarshalYAML(value *yaml.Node) error {
	p.pos = nodePos(value)
	type plain providerSchema
	var v plain
	if err := value.Decode(&v); err != nil {
		// Endpoint entries report their own diagnostics; pass them through
		// with their codes intact.
		var diag *ir.Diagnostic
		if errors.As(err, &diag) {
			return diag
		}
		return ir.Diagf(ir.CodeMalformedDeclaration, nodePos(value), "",
			"invalid provider entry: %v", err)
	}
	p.Name = v.Name
	p.Endpoints = v.Endpoints
	return nil
}

func (p *providerSchema) descriptor() (*ir.ProviderDescriptor, error) {
	if p.Name == "" {
		return nil, ir.Diagf(ir.CodeMalformedDeclaration, p.pos, "name",
			"provider entry is missing a name")
	}
	if len(p.Endpoints) == 0 {
		return nil, ir.Diagf(ir.CodeMalformedDeclaration, p.pos, p.Name,
			"provider %s declares no endpoints", p.Name)
	}
	decl := &ir.ProviderDescriptor{Name: p.Name, Pos: p.pos}
	for _, e := range p.Endpoints {
		ep, err := e.descriptor()
		if err != nil {
			return nil, err
		}
		decl.Endpoints = append(decl.Endpoints, *ep)
	}
	return decl, nil
}

type endpointSchema struct {
	fields    map[string]string
	pos       ir.Pos
	fieldPos  map[string]ir.Pos
	methodPos ir.Pos
}

// UnmarshalYAML walks the mapping node by hand so unknown and duplicate
// keys surface as the same diagnostics the brace front end produces, with
// positions intact.
func (e *endpointSchema) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return ir.Diagf(ir.CodeMalformedDeclaration, nodePos(value), "",
			"endpoint entry must be a mapping")
	}
	e.pos = nodePos(value)
	e.fields = make(map[string]string)
	e.fieldPos = make(map[string]ir.Pos)
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		key := k.Value
		if !endpointFields[key] {
			return ir.Diagf(ir.CodeUnknownField, nodePos(k), key,
				"unknown field %q in endpoint entry", key)
		}
		if _, dup := e.fields[key]; dup {
			prev := e.fieldPos[key]
			return ir.Diagf(ir.CodeDuplicateField, nodePos(k), key,
				"field %q already set at %d:%d", key, prev.Line, prev.Col)
		}
		e.fields[key] = v.Value
		e.fieldPos[key] = nodePos(k)
		if key == "method" {
			e.methodPos = nodePos(v)
		}
	}
	return nil
}

func (e *endpointSchema) descriptor() (*ir.EndpointDescriptor, error) {
	ep := &ir.EndpointDescriptor{
		Path:        e.fields["path"],
		FnName:      e.fields["fn_name"],
		Req:         ir.TypeRef(e.fields["req"]),
		Res:         ir.TypeRef(e.fields["res"]),
		Headers:     ir.TypeRef(e.fields["headers"]),
		QueryParams: ir.TypeRef(e.fields["query_params"]),
		PathParams:  ir.TypeRef(e.fields["path_params"]),
		Pos:         e.pos,
	}
	if tok, ok := e.fields["method"]; ok {
		m, ok := ir.ParseMethod(strings.ToUpper(tok))
		if !ok {
			return nil, ir.Diagf(ir.CodeUnsupportedMethod, e.methodPos, tok,
				"unsupported HTTP method %q (want GET, POST, PUT or DELETE)", tok)
		}
		ep.Method = m
	}
	if err := checkRequired(ep, e.pos); err != nil {
		return nil, err
	}
	return ep, nil
}

func nodePos(n *yaml.Node) ir.Pos {
	return ir.Pos{Line: n.Line, Col: n.Column}
}

// FormatOf guesses the declaration format from a file name: ".yaml"/".yml"
// selects the schema front end, anything else the brace syntax.
func FormatOf(name string) string {
	switch {
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		return "yaml"
	default:
		return "dsl"
	}
}
