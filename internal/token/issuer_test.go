package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAccessIssuer_Generate_OK(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t)
	iss := NewAccessIssuer(c, 15*time.Minute)

	sub := uuid.New()
	roles := []string{"subscriber"}

	signed, exp, err := iss.Generate("auth-service", sub, roles)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), exp, 2*time.Second)

	claims, err := c.Decode(signed)
	require.NoError(t, err)
	require.Equal(t, "auth-service", claims.Issuer)
	require.Equal(t, sub, claims.Subject)
	require.Equal(t, roles, claims.Roles)
	require.Equal(t, exp.Unix(), claims.ExpiresAt)
	require.LessOrEqual(t, claims.IssuedAt, claims.ExpiresAt)
}

func TestRefreshIssuer_Generate_OK(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t)
	iss := NewRefreshIssuer(c, 336*time.Hour)

	sub := uuid.New()

	signed, exp, err := iss.Generate("auth-service", sub)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().UTC().Add(336*time.Hour), exp, 2*time.Second)

	claims, err := c.Decode(signed)
	require.NoError(t, err)
	require.Equal(t, sub, claims.Subject)
	require.Empty(t, claims.Roles, "refresh-токен не содержит ролей")
}

func TestClaims_HasRole(t *testing.T) {
	t.Parallel()

	c := &Claims{Roles: []string{"admin", "subscriber"}}
	require.True(t, c.HasRole("admin"))
	require.True(t, c.HasRole("subscriber"))
	require.False(t, c.HasRole("guest"))

	empty := &Claims{}
	require.False(t, empty.HasRole("admin"))
}
