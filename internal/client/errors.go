package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// UnreachableMessage is reported when no response was received at all.
const UnreachableMessage = "Unable to reach the API. Is the server running?"

// APIError is the normalized form of every failed API call. Status is 0 when
// the server could not be reached.
type APIError struct {
	Status  int
	Code    string
	Message string
	Errors  map[string]string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func unreachable() *APIError {
	return &APIError{Message: UnreachableMessage}
}

func fromResponse(status int, body []byte) *APIError {
	var payload struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	_ = json.Unmarshal(body, &payload)

	message := payload.Message
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{
		Status:  status,
		Code:    payload.Code,
		Message: message,
		Errors:  payload.Errors,
	}
}
