package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "clientbooks/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-signing-key", "clientbooks-test")

	p := Principal{ID: "user-1", Email: "analyst@example.com", Role: RoleAnalyst}
	token, err := svc.GenerateAccessToken(p, time.Minute)
	require.NoError(t, err)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewTokenService("test-signing-key", "clientbooks-test")

	token, err := svc.GenerateAccessToken(Principal{ID: "u", Email: "e@x.com", Role: RoleViewer}, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	issuer := NewTokenService("key-a", "clientbooks-test")
	verifier := NewTokenService("key-b", "clientbooks-test")

	token, err := issuer.GenerateAccessToken(Principal{ID: "u", Email: "e@x.com", Role: RoleAdmin}, time.Minute)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateTokenRejectsUnknownRole(t *testing.T) {
	svc := NewTokenService("test-signing-key", "clientbooks-test")

	token, err := svc.GenerateAccessToken(Principal{ID: "u", Email: "e@x.com", Role: Role("superuser")}, time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
