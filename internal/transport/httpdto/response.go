package httpdto

import (
	"errors"
	"net/http"

	amen_errors "amen-chat/pkg/errors"
)

type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{
		Success: true,
		Data:    data,
	}
}

func NewErrorResponse(err string, code string) Response[any] {
	return Response[any]{
		Success: false,
		Error:   err,
		Code:    code,
	}
}

// StatusAndCode maps engine errors onto HTTP status and a stable code the
// client can branch on. Unrecognized errors are internal: the taxonomy is
// closed, anything outside it is a bug or an infrastructure failure.
func StatusAndCode(err error) (int, string) {
	switch {
	case errors.Is(err, amen_errors.ErrBlocked):
		return http.StatusForbidden, "BLOCKED"
	case errors.Is(err, amen_errors.ErrSelfConversation):
		return http.StatusBadRequest, "SELF_CONVERSATION"
	case errors.Is(err, amen_errors.ErrPreviouslyDeclined):
		return http.StatusForbidden, "PREVIOUSLY_DECLINED"
	case errors.Is(err, amen_errors.ErrPendingLimitReached):
		return http.StatusTooManyRequests, "PENDING_LIMIT_REACHED"
	case errors.Is(err, amen_errors.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, amen_errors.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, amen_errors.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, amen_errors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, amen_errors.ErrAlreadyExists):
		return http.StatusConflict, "ALREADY_EXISTS"
	case errors.Is(err, amen_errors.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, amen_errors.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, amen_errors.ErrUnavailable):
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// FromError builds the error envelope for an engine error.
func FromError(err error) (int, Response[any]) {
	status, code := StatusAndCode(err)
	return status, NewErrorResponse(err.Error(), code)
}
