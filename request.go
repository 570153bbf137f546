package provider

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/gorilla/schema"
)

var queryEncoder = schema.NewEncoder()

// snippetLimit bounds how much of a non-2xx response body is kept in the
// returned status error.
const snippetLimit = 512

// Doer captures the subset of *http.Client that generated methods rely on.
// Tests inject fake implementations to run without a network.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var placeholderRE = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// ExpandPath substitutes each {ident} placeholder in template with the
// string form of the corresponding field from params. A field matches a
// placeholder by its `path` struct tag, or by case-folded name with
// underscores ignored (so UserID matches {user_id}).
//
// A placeholder with no matching field, or a field whose string form is
// empty or would change the path shape, yields a StageURL error carrying the
// attempted path.
func ExpandPath(template string, params any) (string, error) {
	placeholders := placeholderRE.FindAllStringSubmatch(template, -1)
	if len(placeholders) == 0 {
		return template, nil
	}
	if params == nil {
		return "", NewURLError(template, fmt.Errorf("path has placeholders but no path parameters were supplied"))
	}

	v := reflect.ValueOf(params)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", NewURLError(template, fmt.Errorf("path parameters value is nil"))
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", NewURLError(template, fmt.Errorf("path parameters must be a struct, got %s", v.Kind()))
	}

	path := template
	for _, m := range placeholders {
		name := m[1]
		fv, ok := fieldForPlaceholder(v, name)
		if !ok {
			return "", NewURLError(template, fmt.Errorf("no field for path parameter {%s}", name))
		}
		s := fmt.Sprintf("%v", fv.Interface())
		if s == "" {
			return "", NewURLError(template, fmt.Errorf("path parameter {%s} is empty", name))
		}
		if strings.ContainsAny(s, "/?#") {
			return "", NewURLError(template, fmt.Errorf("path parameter {%s} value %q is not a valid path segment", name, s))
		}
		path = strings.ReplaceAll(path, m[0], url.PathEscape(s))
	}
	return path, nil
}

// fieldForPlaceholder finds the struct field backing a {name} placeholder.
func fieldForPlaceholder(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	folded := strings.ReplaceAll(strings.ToLower(name), "_", "")
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if tag, ok := f.Tag.Lookup("path"); ok {
			if tag == name {
				return v.Field(i), true
			}
			continue
		}
		if strings.ReplaceAll(strings.ToLower(f.Name), "_", "") == folded {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// JoinURL joins the stored base URL with an endpoint path.
func JoinURL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", NewURLError(path, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", NewURLError(path, fmt.Errorf("base URL %q has no scheme or host", base))
	}
	if path == "" {
		return u.String(), nil
	}
	return strings.TrimSuffix(u.String(), "/") + "/" + strings.TrimPrefix(path, "/"), nil
}

// EncodeQuery serializes a query parameter struct into a URL-encoded query
// string using gorilla/schema. Field names follow `schema` struct tags.
func EncodeQuery(params any) (string, error) {
	v := reflect.ValueOf(params)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", nil
		}
		v = v.Elem()
	}
	values := url.Values{}
	if err := queryEncoder.Encode(v.Interface(), values); err != nil {
		return "", NewQueryError(err)
	}
	return values.Encode(), nil
}

// AppendQuery appends an encoded query string to a URL.
func AppendQuery(u, query string) string {
	if query == "" {
		return u
	}
	if strings.Contains(u, "?") {
		return u + "&" + query
	}
	return u + "?" + query
}

// EncodeBody serializes a request body value to JSON.
func EncodeBody(body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, NewBodyError(err)
	}
	return data, nil
}

// ApplyHeaders attaches the supplied header collection to the outgoing
// request verbatim. Keys present in h replace any default the request
// already carries (so a caller-supplied Content-Type wins).
func ApplyHeaders(req *http.Request, h http.Header) {
	for k, vs := range h {
		req.Header[http.CanonicalHeaderKey(k)] = vs
	}
}

// CheckStatus returns a StageStatus error for any response outside the 2xx
// range, carrying the status code and a bounded snippet of the body. The
// body is never decoded as the declared response type.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, snippetLimit))
	return NewStatusError(resp.StatusCode, string(snippet))
}

// DecodeJSON deserializes a response body into v.
func DecodeJSON(r io.Reader, url string, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return NewDecodeError(url, err)
	}
	return nil
}
