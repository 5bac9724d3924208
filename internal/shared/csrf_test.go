package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureTokenIsStablePerSession(t *testing.T) {
	m := NewCSRFManager("test-secret")
	sess := newSession()
	sess.ID = "abc"

	first, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestVerifyToken(t *testing.T) {
	m := NewCSRFManager("test-secret")
	sess := newSession()
	sess.ID = "abc"

	token, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)

	assert.NoError(t, m.VerifyToken(context.Background(), sess, token))
	assert.ErrorIs(t, m.VerifyToken(context.Background(), sess, "forged"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.VerifyToken(context.Background(), sess, ""), ErrCSRFTokenMissing)
}

func TestVerifyTokenWithoutSessionToken(t *testing.T) {
	m := NewCSRFManager("test-secret")

	assert.ErrorIs(t, m.VerifyToken(context.Background(), nil, "anything"), ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken(context.Background(), newSession(), "anything"), ErrCSRFTokenMissing)
}
