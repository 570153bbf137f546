package providergen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/broady/provider/providergen/ir"
	"github.com/broady/provider/providergen/sink"
)

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write source file: %v", err)
	}
	return path
}

func TestGenerate(t *testing.T) {
	src := writeSource(t, "providers.decl", `
UserAPI, {
	{ path: "/users", method: GET, res: []User },
	{ path: "/users/{id}", method: GET, path_params: UserPath, res: User },
	{ path: "/users", method: POST, req: CreateUser, res: User },
}
`)

	mem := sink.NewMemorySink()
	err := Generate(context.Background(), &Config{Source: src, Sink: mem})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	got := mem.Get("user_api.go")
	if got == nil {
		t.Fatalf("no user_api.go in sink; paths = %v", mem.Paths())
	}
	for _, want := range []string{
		"package providers",
		"func NewUserAPI(baseURL string, timeout time.Duration) *UserAPI {",
		"func (c *UserAPI) GetUsers(ctx context.Context) ([]User, error) {",
		"func (c *UserAPI) GetUsersId(ctx context.Context, pathParams *UserPath) (User, error) {",
		"func (c *UserAPI) PostUsers(ctx context.Context, body *CreateUser) (User, error) {",
	} {
		if !strings.Contains(string(got), want) {
			t.Errorf("generated file missing %q\n%s", want, got)
		}
	}
}

func TestGenerateMultipleProviders(t *testing.T) {
	src := writeSource(t, "providers.decl", `
UserAPI, {
	{ path: "/users", method: GET, res: []User },
}

SearchClient, {
	{ path: "/search", method: GET, query_params: SearchOpts, res: SearchResult },
}
`)

	mem := sink.NewMemorySink()
	if err := Generate(context.Background(), &Config{Source: src, Sink: mem}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for _, path := range []string{"user_api.go", "search_client.go"} {
		if mem.Get(path) == nil {
			t.Errorf("no %s in sink; paths = %v", path, mem.Paths())
		}
	}
}

func TestGenerateYAML(t *testing.T) {
	src := writeSource(t, "providers.yaml", `
package: userapi
types:
  api.User: example.com/app/api
providers:
  - name: UserAPI
    endpoints:
      - path: /users
        method: GET
        res: "[]api.User"
`)

	mem := sink.NewMemorySink()
	if err := Generate(context.Background(), &Config{Source: src, Sink: mem}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	got := string(mem.Get("user_api.go"))
	for _, want := range []string{
		"package userapi",
		`"example.com/app/api"`,
		"func (c *UserAPI) GetUsers(ctx context.Context) ([]api.User, error) {",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("generated file missing %q\n%s", want, got)
		}
	}
}

func TestGeneratePackageOverride(t *testing.T) {
	src := writeSource(t, "providers.decl", `
UserAPI, {
	{ path: "/users", method: GET, res: []User },
}
`)

	mem := sink.NewMemorySink()
	err := Generate(context.Background(), &Config{Source: src, Sink: mem, Package: "clients"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := string(mem.Get("user_api.go")); !strings.Contains(got, "package clients") {
		t.Errorf("generated file missing package override\n%s", got)
	}
}

func TestGenerateFilesystemDefault(t *testing.T) {
	src := writeSource(t, "providers.decl", `
UserAPI, {
	{ path: "/users", method: GET, res: []User },
}
`)
	outDir := t.TempDir()

	if err := Generate(context.Background(), &Config{Source: src, OutDir: outDir}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "user_api.go")); err != nil {
		t.Errorf("expected user_api.go in %s: %v", outDir, err)
	}
}

func TestGenerateDiagnostics(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantCode ir.Code
	}{
		{
			name: "duplicate provider name",
			source: `
UserAPI, {
	{ path: "/users", method: GET, res: []User },
}
UserAPI, {
	{ path: "/accounts", method: GET, res: []Account },
}
`,
			wantCode: ir.CodeMalformedDeclaration,
		},
		{
			name: "provider name not an identifier is rejected by the parser",
			source: `
User API, {
	{ path: "/users", method: GET, res: []User },
}
`,
			wantCode: ir.CodeMalformedDeclaration,
		},
		{
			name: "duplicate function name across endpoints",
			source: `
UserAPI, {
	{ path: "/users", method: GET, res: []User },
	{ path: "/users/", method: GET, res: []User },
}
`,
			wantCode: ir.CodeDuplicateFunctionName,
		},
		{
			name: "exported form collision between derived and explicit names",
			source: `
UserAPI, {
	{ path: "/users", method: GET, res: []User },
	{ path: "/accounts", method: GET, fn_name: getUsers, res: []Account },
}
`,
			wantCode: ir.CodeDuplicateFunctionName,
		},
		{
			name: "unsupported method",
			source: `
UserAPI, {
	{ path: "/users", method: PATCH, res: []User },
}
`,
			wantCode: ir.CodeUnsupportedMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := writeSource(t, "providers.decl", tt.source)
			err := Generate(context.Background(), &Config{Source: src, Sink: sink.NewMemorySink()})
			var diag *ir.Diagnostic
			if !errors.As(err, &diag) {
				t.Fatalf("Generate() error = %v, want *ir.Diagnostic", err)
			}
			if diag.Code != tt.wantCode {
				t.Errorf("diagnostic code = %s, want %s", diag.Code, tt.wantCode)
			}
		})
	}
}

func TestGenerateUnknownTypeRef(t *testing.T) {
	src := writeSource(t, "providers.yaml", `
types:
  User: ""
providers:
  - name: UserAPI
    endpoints:
      - path: /users
        method: GET
        res: "[]Account"
`)

	err := Generate(context.Background(), &Config{Source: src, Sink: sink.NewMemorySink()})
	var diag *ir.Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("Generate() error = %v, want *ir.Diagnostic", err)
	}
	if diag.Code != ir.CodeUnknownTypeRef {
		t.Errorf("diagnostic code = %s, want %s", diag.Code, ir.CodeUnknownTypeRef)
	}
}

func TestGenerateConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing source", cfg: Config{}},
		{name: "bad format", cfg: Config{Source: "x.decl", Format: "json"}},
		{name: "bad package name", cfg: Config{Source: "x.decl", Package: "my-pkg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Generate(context.Background(), &tt.cfg); err == nil {
				t.Error("Generate() should reject invalid config")
			}
		})
	}
}

func TestCheck(t *testing.T) {
	valid := writeSource(t, "providers.decl", `
UserAPI, {
	{ path: "/users", method: GET, res: []User },
}
`)
	if err := Check(&Config{Source: valid}); err != nil {
		t.Errorf("Check() error = %v, want nil", err)
	}

	invalid := writeSource(t, "bad.decl", `
UserAPI, {
	{ path: "/users", res: []User },
}
`)
	err := Check(&Config{Source: invalid})
	var diag *ir.Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("Check() error = %v, want *ir.Diagnostic", err)
	}
	if diag.Code != ir.CodeMissingRequiredField {
		t.Errorf("diagnostic code = %s, want %s", diag.Code, ir.CodeMissingRequiredField)
	}
}

func TestGenerateMissingSourceFile(t *testing.T) {
	cfg := &Config{Source: filepath.Join(t.TempDir(), "absent.decl"), Sink: sink.NewMemorySink()}
	if err := Generate(context.Background(), cfg); err == nil {
		t.Error("Generate() should fail when the source file does not exist")
	}
}
