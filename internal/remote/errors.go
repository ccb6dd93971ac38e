package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// Error classes returned by the device API client.
var (
	// ErrUnauthorized means the session is no longer valid and must be dropped.
	ErrUnauthorized = errors.New("device api: unauthorized")
	// ErrRejected means the device refused the request body or action.
	ErrRejected = errors.New("device api: request rejected")
	// ErrUnavailable covers transport failures and 5xx responses.
	ErrUnavailable = errors.New("device api: unavailable")
)

// RejectedError carries the device's explanation for a 4xx rejection.
type RejectedError struct {
	Status int
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s (status %d)", ErrRejected, e.Status)
	}
	return fmt.Sprintf("%s (status %d): %s", ErrRejected, e.Status, e.Detail)
}

func (e *RejectedError) Unwrap() error { return ErrRejected }

// classify maps a resty round trip to nil or one of the error classes above.
func classify(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	code := resp.StatusCode()
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case code >= 400 && code < 500:
		return fmt.Errorf("%s: %w", op, &RejectedError{Status: code, Detail: detailOf(resp.Body())})
	case code >= 500:
		return fmt.Errorf("%s: %w (status %d)", op, ErrUnavailable, code)
	}
	return nil
}

// detailOf extracts the "detail" field of an error body. Validation errors
// carry a list there; it is returned as raw JSON.
func detailOf(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return string(body)
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	return string(payload.Detail)
}
