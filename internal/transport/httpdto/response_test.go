package httpdto

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	amen_errors "amen-chat/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestStatusAndCode(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{amen_errors.ErrBlocked, http.StatusForbidden, "BLOCKED"},
		{amen_errors.ErrSelfConversation, http.StatusBadRequest, "SELF_CONVERSATION"},
		{amen_errors.ErrPreviouslyDeclined, http.StatusForbidden, "PREVIOUSLY_DECLINED"},
		{amen_errors.ErrPendingLimitReached, http.StatusTooManyRequests, "PENDING_LIMIT_REACHED"},
		{amen_errors.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{amen_errors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{amen_errors.ErrConflict, http.StatusConflict, "CONFLICT"},
		{amen_errors.ErrUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		status, code := StatusAndCode(tc.err)
		assert.Equal(t, tc.status, status, tc.code)
		assert.Equal(t, tc.code, code)
	}
}

func TestStatusAndCodeMatchesWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("%w: throttled by store", amen_errors.ErrUnavailable)
	status, code := StatusAndCode(wrapped)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "UNAVAILABLE", code)
}
