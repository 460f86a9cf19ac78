package vsts

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized: check your personal access token")
	ErrInvalidInput = errors.New("invalid input")
)

// maxErrorBody caps how much of a failed response ends up in an error message.
const maxErrorBody = 512

// APIError is returned for any response the client does not accept.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))

	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}

	return msg
}

// Is lets callers match auth and lookup failures with errors.Is.
//
// The service answers a bad token with 203 and an HTML sign-in page rather
// than 401, so both count as unauthorized.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized ||
			e.StatusCode == http.StatusNonAuthoritativeInfo ||
			e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	default:
		return false
	}
}

func newAPIError(method, url string, status int, body []byte) *APIError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}

	return &APIError{StatusCode: status, Method: method, URL: url, Body: string(body)}
}
