package fetch

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// StatusError is returned when the server answers with a 4xx or 5xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	kind := "Client Error"
	if e.StatusCode >= http.StatusInternalServerError {
		kind = "Server Error"
	}

	return fmt.Sprintf("%d %s: %s for url: %s", e.StatusCode, kind, e.Reason, e.URL)
}

func newStatusError(url string, resp *http.Response) *StatusError {
	reason := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" ")
	if reason == "" || reason == resp.Status {
		reason = http.StatusText(resp.StatusCode)
	}

	return &StatusError{URL: url, StatusCode: resp.StatusCode, Reason: reason}
}

// NetworkError covers failures to reach the server or to read the response body.
type NetworkError struct {
	Operation string // "request" or "read_body"
	URL       string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// WriteError covers failures to persist the fetched body.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
