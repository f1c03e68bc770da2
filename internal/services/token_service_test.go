package services

import (
	"testing"
	"time"

	amen_errors "amen-chat/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	s := NewTokenService([]byte("test-secret"), time.Minute)

	token, err := s.IssueAccessToken("alice")
	require.NoError(t, err)

	claims, err := s.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
}

func TestParseRejectsBadTokens(t *testing.T) {
	s := NewTokenService([]byte("test-secret"), time.Minute)

	_, err := s.ParseAccessToken("")
	assert.ErrorIs(t, err, amen_errors.ErrUnauthorized)

	_, err = s.ParseAccessToken("not-a-token")
	assert.ErrorIs(t, err, amen_errors.ErrUnauthorized)

	other := NewTokenService([]byte("different-secret"), time.Minute)
	token, err := other.IssueAccessToken("alice")
	require.NoError(t, err)

	_, err = s.ParseAccessToken(token)
	assert.ErrorIs(t, err, amen_errors.ErrUnauthorized)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	s := NewTokenService([]byte("test-secret"), -time.Minute)

	token, err := s.IssueAccessToken("alice")
	require.NoError(t, err)

	_, err = s.ParseAccessToken(token)
	assert.ErrorIs(t, err, amen_errors.ErrUnauthorized)
}
