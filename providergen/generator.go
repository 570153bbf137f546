// Package providergen turns declarative HTTP endpoint tables into typed Go
// client source. A generation run is a pure transform executed once per
// declaration file: parse into descriptors, resolve callable names, emit
// one Go file per provider, write through an output sink. All failures
// before emission are ir.Diagnostic values pointing at the offending
// declaration fragment.
package providergen

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/broady/provider/providergen/dsl"
	"github.com/broady/provider/providergen/goemit"
	"github.com/broady/provider/providergen/ir"
	"github.com/broady/provider/providergen/sink"
)

var validate = validator.New()

// Config holds the configuration for one generation run.
type Config struct {
	// Source is the declaration file to read. The brace DSL and YAML
	// schema formats are supported.
	Source string `validate:"required"`

	// Format selects the front end: "dsl" or "yaml". Empty means detect
	// from the Source extension.
	Format string `validate:"omitempty,oneof=dsl yaml"`

	// OutDir is the directory generated files are written to.
	// Ignored when Sink is set.
	OutDir string

	// Package overrides the target package name for emitted files.
	// Defaults to the schema's package field, then to "providers".
	Package string

	// Sink overrides the output destination. Tests use a MemorySink.
	Sink sink.OutputSink
}

// Generate runs the full pipeline for one declaration file.
func Generate(ctx context.Context, cfg *Config) error {
	f, err := load(cfg)
	if err != nil {
		return err
	}
	if err := resolve(f); err != nil {
		return err
	}

	out := cfg.Sink
	if out == nil {
		if cfg.OutDir == "" {
			return fmt.Errorf("OutDir is required")
		}
		out = sink.NewFilesystemSink(cfg.OutDir)
	}

	pkg := cfg.Package
	if pkg == "" {
		pkg = f.Package
	}

	for i := range f.Providers {
		p := &f.Providers[i]
		em := goemit.NewEmitter(goemit.Config{
			Package: pkg,
			Imports: mergeImports(f.Imports, f.Types.ImportsFor(p)),
		})
		src, err := em.EmitProvider(p)
		if err != nil {
			return err
		}
		if err := out.WriteFile(ctx, em.FileName(p), src); err != nil {
			return fmt.Errorf("write %s: %w", em.FileName(p), err)
		}
	}
	return nil
}

// Check parses and name-resolves a declaration file without emitting
// anything, reporting the first diagnostic.
func Check(cfg *Config) error {
	f, err := load(cfg)
	if err != nil {
		return err
	}
	return resolve(f)
}

// load reads the declaration source and runs the front end for its format.
func load(cfg *Config) (*dsl.File, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Package != "" && !isIdentifier(cfg.Package) {
		return nil, fmt.Errorf("invalid config: package %q is not a valid identifier", cfg.Package)
	}

	data, err := os.ReadFile(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("read declarations: %w", err)
	}

	format := cfg.Format
	if format == "" {
		format = dsl.FormatOf(cfg.Source)
	}
	switch format {
	case "yaml":
		return dsl.Load(data)
	default:
		return dsl.Parse(string(data))
	}
}

// resolve fills derived names, checks name and provider uniqueness, and
// cross-references the type registry when one is declared.
func resolve(f *dsl.File) error {
	seen := make(map[string]bool, len(f.Providers))
	for i := range f.Providers {
		p := &f.Providers[i]
		if !isIdentifier(p.Name) {
			return ir.Diagf(ir.CodeMalformedDeclaration, p.Pos, p.Name,
				"provider name %q is not a valid identifier", p.Name)
		}
		if seen[p.Name] {
			return ir.Diagf(ir.CodeMalformedDeclaration, p.Pos, p.Name,
				"provider %s declared more than once", p.Name)
		}
		seen[p.Name] = true

		if err := ResolveNames(p); err != nil {
			return err
		}
		// The snake-to-Pascal mapping is not injective (getUsers and
		// get_users both export as GetUsers), so the exported form needs
		// its own uniqueness check.
		exported := make(map[string]ir.Pos, len(p.Endpoints))
		for j := range p.Endpoints {
			ep := &p.Endpoints[j]
			name := goemit.ExportedName(ep.FnName)
			if prev, dup := exported[name]; dup {
				return ir.Diagf(ir.CodeDuplicateFunctionName, ep.Pos, ep.FnName,
					"function name %q exports as %s, already used by the endpoint at %d:%d",
					ep.FnName, name, prev.Line, prev.Col)
			}
			exported[name] = ep.Pos
		}
		if err := f.Types.Check(p); err != nil {
			return err
		}
	}
	return nil
}

func mergeImports(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, p := range a {
		set[p] = true
	}
	for _, p := range b {
		set[p] = true
	}
	merged := make([]string, 0, len(set))
	for p := range set {
		merged = append(merged, p)
	}
	sort.Strings(merged)
	return merged
}
