// Package result implements the uniform operation envelope every
// workbench operation returns: {success: true, data} on success, or
// {success: false, error: {code, message, details}} on failure. An HTTP
// adapter renders the same envelope as a JSON response with a status
// code derived from the error's taxonomy code, following the same
// "build then write" shape as a conventional endpoint-result type.
package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/etymolog/etymolog/server/serr"
)

// ErrorPayload is the "error" member of a failed Result.
type ErrorPayload struct {
	Code    serr.Code `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

// Result is the uniform envelope every workbench operation returns.
// Exactly one of Data (when Success) or Error (when !Success) is
// meaningful.
type Result[T any] struct {
	Success bool         `json:"success"`
	Data    T            `json:"data,omitempty"`
	Error   *ErrorPayload `json:"error,omitempty"`
}

// OK builds a successful Result wrapping data.
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail builds a failed Result from err. If err is (or wraps) a
// serr.Error, its Code and Detail are carried into the payload;
// otherwise the result is reported as CodeOperationFailed.
func Fail[T any](err error) Result[T] {
	var se serr.Error
	if errors.As(err, &se) {
		return Result[T]{
			Error: &ErrorPayload{
				Code:    se.Code(),
				Message: se.Error(),
				Details: se.Detail(),
			},
		}
	}
	return Result[T]{
		Error: &ErrorPayload{
			Code:    serr.CodeOperationFailed,
			Message: err.Error(),
		},
	}
}

// statusFor maps a taxonomy code to the HTTP status the API adapter
// should respond with.
func statusFor(code serr.Code) int {
	switch code {
	case serr.CodeNotReady:
		return http.StatusServiceUnavailable
	case serr.CodeValidationError:
		return http.StatusBadRequest
	case serr.CodeNotFound:
		return http.StatusNotFound
	case serr.CodeConstraintViolation:
		return http.StatusConflict
	case serr.CodeCycle:
		return http.StatusConflict
	case serr.CodeNoCoverage:
		return http.StatusUnprocessableEntity
	case serr.CodeOperationFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Write marshals r as JSON and writes it to w with a status code
// derived from r's error code (http.StatusOK when r is successful).
func Write[T any](w http.ResponseWriter, r Result[T]) {
	status := http.StatusOK
	if !r.Success {
		status = statusFor(r.Error.Code)
	}

	body, err := json.Marshal(r)
	if err != nil {
		panic(fmt.Sprintf("result: could not marshal envelope: %s", err.Error()))
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	w.Write(body)
}

// WriteOK is a convenience wrapper for Write(w, OK(data)).
func WriteOK[T any](w http.ResponseWriter, data T) {
	Write(w, OK(data))
}

// WriteErr is a convenience wrapper for Write(w, Fail[T](err)).
func WriteErr[T any](w http.ResponseWriter, err error) {
	Write(w, Fail[T](err))
}
