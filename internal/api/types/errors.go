package types

import (
	"net/http"

	appErr "github.com/meetup-planner/app/pkg/errors"
)

func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	return &APIError{Code: string(appErr.CodeOf(err)), Message: appErr.MessageOf(err)}
}

// HTTPStatus maps an error to the status of the page rendered for it.
func HTTPStatus(err error) int {
	switch appErr.CodeOf(err) {
	case appErr.CodeInvalid:
		return http.StatusBadRequest
	case appErr.CodeUnauthorized:
		return http.StatusUnauthorized
	case appErr.CodeForbidden:
		return http.StatusForbidden
	case appErr.CodeNotFound:
		return http.StatusNotFound
	case appErr.CodeInvalidState, appErr.CodeConflict, appErr.CodeAlreadyExists:
		return http.StatusConflict
	case appErr.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
