package provider

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	cause := errors.New("connection refused")
	e := NewNetworkError("http://api.test/users", cause)
	msg := e.Error()
	for _, want := range []string{"network", "http://api.test/users", "connection refused"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, want substring %q", msg, want)
		}
	}

	noCause := NewStatusError(404, "not found")
	if strings.Contains(noCause.Error(), "<nil>") {
		t.Errorf("Error() = %q should not render a nil cause", noCause.Error())
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := NewURLError("/users/{id}", cause)
	if !errors.Is(e, cause) {
		t.Error("errors.Is() should find the wrapped cause")
	}
}

func TestErrorIs(t *testing.T) {
	err := NewStatusError(404, "")

	if !errors.Is(err, &Error{Stage: StageStatus}) {
		t.Error("Is() should match on stage alone when target status is zero")
	}
	if !errors.Is(err, &Error{Stage: StageStatus, Status: 404}) {
		t.Error("Is() should match stage and status")
	}
	if errors.Is(err, &Error{Stage: StageStatus, Status: 500}) {
		t.Error("Is() should not match a different status")
	}
	if errors.Is(err, &Error{Stage: StageNetwork}) {
		t.Error("Is() should not match a different stage")
	}
}

func TestStageOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Stage
	}{
		{"url error", NewURLError("/u", errors.New("x")), StageURL},
		{"query error", NewQueryError(errors.New("x")), StageQuery},
		{"body error", NewBodyError(errors.New("x")), StageRequestBody},
		{"network error", NewNetworkError("http://t", errors.New("x")), StageNetwork},
		{"status error", NewStatusError(500, ""), StageStatus},
		{"decode error", NewDecodeError("http://t", errors.New("x")), StageDecode},
		{"wrapped", fmt.Errorf("call failed: %w", NewStatusError(404, "")), StageStatus},
		{"unrelated error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StageOf(tt.err); got != tt.want {
				t.Errorf("StageOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewStatusErrorFields(t *testing.T) {
	e := NewStatusError(503, "service unavailable")
	if e.Status != 503 {
		t.Errorf("Status = %d, want 503", e.Status)
	}
	if e.BodySnippet != "service unavailable" {
		t.Errorf("BodySnippet = %q, want %q", e.BodySnippet, "service unavailable")
	}
}
