package providergen

import (
	"strings"

	"github.com/broady/provider/providergen/ir"
)

// ResolveNames fills in derived callable names for endpoints declared
// without fn_name and checks that every resolved name is unique within the
// provider. It mutates only the FnName field of the descriptor.
//
// Derivation is total and deterministic: the lowercased method joined to
// the path with slashes collapsed to underscores and placeholder braces
// stripped, so {id} contributes id. GET /users derives get_users;
// PUT /users/{id} derives put_users_id.
func ResolveNames(p *ir.ProviderDescriptor) error {
	seen := make(map[string]ir.Pos, len(p.Endpoints))
	for i := range p.Endpoints {
		ep := &p.Endpoints[i]
		if ep.FnName == "" {
			ep.FnName = DeriveName(ep.Method, ep.Path)
		} else if !isIdentifier(ep.FnName) {
			return ir.Diagf(ir.CodeMalformedDeclaration, ep.Pos, ep.FnName,
				"fn_name %q is not a valid identifier", ep.FnName)
		}
		if prev, dup := seen[ep.FnName]; dup {
			return ir.Diagf(ir.CodeDuplicateFunctionName, ep.Pos, ep.FnName,
				"function name %q already used by the endpoint at %d:%d",
				ep.FnName, prev.Line, prev.Col)
		}
		seen[ep.FnName] = ep.Pos
	}
	return nil
}

// DeriveName computes the default snake_case callable name for an endpoint
// declared without an explicit fn_name.
func DeriveName(method ir.Method, path string) string {
	p := strings.TrimPrefix(path, "/")
	p = strings.ReplaceAll(p, "/", "_")
	p = strings.ReplaceAll(p, "{", "")
	p = strings.ReplaceAll(p, "}", "")

	name := strings.ToLower(string(method))
	if p != "" {
		name += "_" + p
	}
	return toSnake(name)
}

// toSnake normalizes a rough identifier to snake_case: camel humps get an
// underscore, anything outside [a-z0-9_] becomes one, and runs collapse.
func toSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	prevLowerOrDigit := false
	prevUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			if prevLowerOrDigit {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			// Uppercase runs stay together: API becomes api.
			prevLowerOrDigit = false
			prevUnderscore = false
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevLowerOrDigit = true
			prevUnderscore = false
		default:
			if !prevUnderscore && b.Len() > 0 {
				b.WriteByte('_')
			}
			prevLowerOrDigit = false
			prevUnderscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		alpha := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if i == 0 && !alpha {
			return false
		}
		if !alpha && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
