// Package provider contains the runtime support code that generated HTTP
// provider clients call into. Generated methods build a request in stages
// (URL construction, query encoding, body encoding, dispatch, status check,
// deserialization); each stage reports failure through *Error with a Stage
// code so callers can tell the stages apart.
package provider

import (
	"errors"
	"fmt"
)

// Stage identifies the request pipeline stage an error originated from.
type Stage string

const (
	StageURL         Stage = "url_construction"
	StageQuery       Stage = "query_serialization"
	StageRequestBody Stage = "request_serialization"
	StageNetwork     Stage = "network"
	StageStatus      Stage = "http_status"
	StageDecode      Stage = "deserialization"
)

// Error is the uniform error value returned by generated provider methods.
// Exactly one is produced per failed call; it short-circuits the remaining
// pipeline stages.
type Error struct {
	// Stage is the pipeline stage that failed.
	Stage Stage

	// Message describes the failure. For StageURL it includes the attempted
	// path; for StageNetwork and StageDecode it includes the request URL.
	Message string

	// Status is the HTTP status code. Only set for StageStatus.
	Status int

	// BodySnippet holds a bounded prefix of a non-2xx response body.
	// Only set for StageStatus.
	BodySnippet string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error with the same stage, so callers can
// match on stage with errors.Is(err, &provider.Error{Stage: provider.StageStatus}).
func (e *Error) Is(target error) bool {
	var pe *Error
	if !errors.As(target, &pe) {
		return false
	}
	return pe.Stage == e.Stage && (pe.Status == 0 || pe.Status == e.Status)
}

// StageOf returns the pipeline stage of err, or "" if err did not come from
// a generated provider method.
func StageOf(err error) Stage {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}

// NewURLError reports a failed URL construction for the attempted path.
func NewURLError(path string, err error) *Error {
	return &Error{
		Stage:   StageURL,
		Message: fmt.Sprintf("failed to construct URL for path %q", path),
		Err:     err,
	}
}

// NewQueryError reports a query parameter value that could not be serialized.
func NewQueryError(err error) *Error {
	return &Error{
		Stage:   StageQuery,
		Message: "failed to serialize query parameters",
		Err:     err,
	}
}

// NewBodyError reports a request body that could not be serialized to JSON.
func NewBodyError(err error) *Error {
	return &Error{
		Stage:   StageRequestBody,
		Message: "failed to serialize request body",
		Err:     err,
	}
}

// NewNetworkError reports a transport-level dispatch failure (connection,
// DNS, timeout expiry).
func NewNetworkError(url string, err error) *Error {
	return &Error{
		Stage:   StageNetwork,
		Message: fmt.Sprintf("request to %s failed", url),
		Err:     err,
	}
}

// NewStatusError reports a response outside the 2xx range. snippet is a
// bounded prefix of the response body.
func NewStatusError(status int, snippet string) *Error {
	return &Error{
		Stage:       StageStatus,
		Message:     fmt.Sprintf("request failed with status %d", status),
		Status:      status,
		BodySnippet: snippet,
	}
}

// NewDecodeError reports a response body that could not be deserialized into
// the declared response type.
func NewDecodeError(url string, err error) *Error {
	return &Error{
		Stage:   StageDecode,
		Message: fmt.Sprintf("failed to deserialize response from %s", url),
		Err:     err,
	}
}
