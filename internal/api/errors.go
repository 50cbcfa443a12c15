package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/npezzotti/wakuwork/internal/circle"
)

type ApiError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func lower(s string) string {
	return strings.ToLower(s)
}

func newStatusError(statusCode int) *ApiError {
	return &ApiError{
		StatusCode: statusCode,
		Message:    lower(http.StatusText(statusCode)),
	}
}

func NewBadRequestError() *ApiError {
	return newStatusError(http.StatusBadRequest)
}

func NewInternalServerError(err error) *ApiError {
	e := newStatusError(http.StatusInternalServerError)
	e.Err = err
	return e
}

func NewUnauthorizedError() *ApiError {
	return newStatusError(http.StatusUnauthorized)
}

func NewForbiddenError() *ApiError {
	return newStatusError(http.StatusForbidden)
}

func statusForKind(kind circle.Kind) int {
	switch kind {
	case circle.KindNotFound:
		return http.StatusNotFound
	case circle.KindUnauthorized, circle.KindForbidden:
		return http.StatusForbidden
	case circle.KindConflict, circle.KindConfig:
		return http.StatusConflict
	case circle.KindRateLimited:
		return http.StatusTooManyRequests
	case circle.KindValidation:
		return http.StatusBadRequest
	case circle.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// toApiError converts a service error into a response. Anything that is not
// a *circle.Error is an internal fault.
func toApiError(err error) *ApiError {
	var ce *circle.Error
	if errors.As(err, &ce) {
		return &ApiError{
			StatusCode: statusForKind(ce.Kind),
			Code:       ce.Code,
			Message:    ce.Message,
			Err:        err,
		}
	}

	return NewInternalServerError(err)
}
