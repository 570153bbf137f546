package dsl

import (
	"errors"
	"testing"

	"github.com/broady/provider/providergen/ir"
)

func TestParse(t *testing.T) {
	src := `
UserAPI, {
	{
		path: "/users",
		method: GET,
		res: []User,
	},
	{
		path: "/users/{id}",
		method: PUT,
		fn_name: update_user,
		req: UpdateUser,
		path_params: UserPath,
		headers: http.Header,
		query_params: UpdateOpts,
		res: User,
	}
}
`
	f, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(f.Providers) != 1 {
		t.Fatalf("got %d providers, want 1", len(f.Providers))
	}

	p := f.Providers[0]
	if p.Name != "UserAPI" {
		t.Errorf("provider name = %q, want UserAPI", p.Name)
	}
	if len(p.Endpoints) != 2 {
		t.Fatalf("got %d endpoints, want 2", len(p.Endpoints))
	}

	first := p.Endpoints[0]
	if first.Path != "/users" || first.Method != ir.GET || first.Res != "[]User" {
		t.Errorf("first endpoint = %+v", first)
	}
	if first.FnName != "" {
		t.Errorf("first endpoint FnName = %q, want empty before name resolution", first.FnName)
	}
	if !first.Req.IsZero() || !first.Headers.IsZero() || !first.QueryParams.IsZero() || !first.PathParams.IsZero() {
		t.Errorf("first endpoint has unexpected optional fields: %+v", first)
	}

	second := p.Endpoints[1]
	if second.Method != ir.PUT || second.FnName != "update_user" {
		t.Errorf("second endpoint = %+v", second)
	}
	if second.Req != "UpdateUser" || second.Res != "User" {
		t.Errorf("second endpoint types = req %q res %q", second.Req, second.Res)
	}
	if second.Headers != "http.Header" || second.QueryParams != "UpdateOpts" || second.PathParams != "UserPath" {
		t.Errorf("second endpoint optional types = %+v", second)
	}
}

func TestParseMultipleDeclarations(t *testing.T) {
	src := `
UserAPI, {
	{ path: "/users", method: GET, res: []User },
}

PostAPI, {
	{ path: "/posts", method: GET, res: []Post },
}
`
	f, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(f.Providers) != 2 {
		t.Fatalf("got %d providers, want 2", len(f.Providers))
	}
	if f.Providers[0].Name != "UserAPI" || f.Providers[1].Name != "PostAPI" {
		t.Errorf("provider names = %q, %q", f.Providers[0].Name, f.Providers[1].Name)
	}
}

func TestParseCompositeTypeRefs(t *testing.T) {
	tests := []struct {
		name string
		ref  string
	}{
		{"slice", "[]User"},
		{"map", "map[string]int"},
		{"qualified", "api.User"},
		{"pointer", "*User"},
		{"nested", "map[string][]api.User"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `A, { { path: "/x", method: GET, res: ` + tt.ref + ` } }`
			f, err := Parse(src)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := string(f.Providers[0].Endpoints[0].Res); got != tt.ref {
				t.Errorf("res = %q, want %q", got, tt.ref)
			}
		})
	}
}

func TestParseLineComments(t *testing.T) {
	src := `
// user-facing API
UserAPI, {
	// list endpoint
	{ path: "/users", method: GET, res: []User }, // trailing
}
`
	f, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(f.Providers[0].Endpoints) != 1 {
		t.Fatalf("got %d endpoints, want 1", len(f.Providers[0].Endpoints))
	}
}

func TestParseDiagnostics(t *testing.T) {
	tests := []struct {
		name         string
		src          string
		wantCode     ir.Code
		wantFragment string
	}{
		{
			name:     "empty input",
			src:      "   \n",
			wantCode: ir.CodeMalformedDeclaration,
		},
		{
			name:     "missing provider name",
			src:      `, { { path: "/x", method: GET, res: T } }`,
			wantCode: ir.CodeMalformedDeclaration,
		},
		{
			name:     "missing endpoint list",
			src:      `UserAPI`,
			wantCode: ir.CodeMalformedDeclaration,
		},
		{
			name:     "no endpoints",
			src:      `UserAPI, { }`,
			wantCode: ir.CodeMalformedDeclaration,
		},
		{
			name:         "missing path",
			src:          `A, { { method: GET, res: T } }`,
			wantCode:     ir.CodeMissingRequiredField,
			wantFragment: "path",
		},
		{
			name:         "missing method",
			src:          `A, { { path: "/x", res: T } }`,
			wantCode:     ir.CodeMissingRequiredField,
			wantFragment: "method",
		},
		{
			name:         "missing res",
			src:          `A, { { path: "/x", method: GET } }`,
			wantCode:     ir.CodeMissingRequiredField,
			wantFragment: "res",
		},
		{
			name:         "unsupported method",
			src:          `A, { { path: "/x", method: PATCH, res: T } }`,
			wantCode:     ir.CodeUnsupportedMethod,
			wantFragment: "PATCH",
		},
		{
			name:         "unknown field",
			src:          `A, { { path: "/x", method: GET, res: T, retries: 3 } }`,
			wantCode:     ir.CodeUnknownField,
			wantFragment: "retries",
		},
		{
			name:         "duplicate field",
			src:          `A, { { path: "/x", method: GET, res: T, res: U } }`,
			wantCode:     ir.CodeDuplicateField,
			wantFragment: "res",
		},
		{
			name:     "unterminated string",
			src:      `A, { { path: "/x, method: GET, res: T } }`,
			wantCode: ir.CodeMalformedDeclaration,
		},
		{
			name:     "missing type value",
			src:      `A, { { path: "/x", method: GET, res: , } }`,
			wantCode: ir.CodeMalformedDeclaration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			if err == nil {
				t.Fatal("Parse() succeeded, want diagnostic")
			}
			var diag *ir.Diagnostic
			if !errors.As(err, &diag) {
				t.Fatalf("error is %T, want *ir.Diagnostic", err)
			}
			if diag.Code != tt.wantCode {
				t.Errorf("code = %s, want %s (diag: %v)", diag.Code, tt.wantCode, diag)
			}
			if tt.wantFragment != "" && diag.Fragment != tt.wantFragment {
				t.Errorf("fragment = %q, want %q", diag.Fragment, tt.wantFragment)
			}
		})
	}
}

func TestParseMethodCaseInsensitive(t *testing.T) {
	f, err := Parse(`A, { { path: "/x", method: get, res: T } }`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := f.Providers[0].Endpoints[0].Method; got != ir.GET {
		t.Errorf("method = %q, want GET", got)
	}
}

func TestParseDiagnosticPosition(t *testing.T) {
	src := "A, {\n\t{ path: \"/x\", method: POSTT, res: T }\n}"
	_, err := Parse(src)
	var diag *ir.Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("error = %v, want diagnostic", err)
	}
	if diag.Pos.Line != 2 {
		t.Errorf("diagnostic line = %d, want 2", diag.Pos.Line)
	}
}
