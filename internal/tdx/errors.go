package tdx

import (
	"fmt"
	"net/http"
)

// StatusError represents a non-200 answer from a TDX endpoint
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("TDX %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("TDX %s returned status %d", e.Endpoint, e.StatusCode)
}

// Unauthorized reports whether the credentials or token were rejected.
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

func newStatusError(endpoint string, statusCode int, body []byte) *StatusError {
	const maxBody = 256
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return &StatusError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Body:       string(body),
	}
}
