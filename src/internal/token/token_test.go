package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	clock := clockwork.NewFakeClock()
	issuer := NewIssuer("secret", time.Hour, clock)

	signed, expiresAt, err := issuer.Issue("7", "sess-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, clock.Now().UTC().Add(time.Hour), expiresAt)

	claims, err := issuer.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "admin", claims.Role)
}

func TestParse_Expired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	issuer := NewIssuer("secret", time.Minute, clock)

	signed, _, err := issuer.Issue("7", "sess-1", "admin")
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	_, err = issuer.Parse(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParse_WrongKey(t *testing.T) {
	clock := clockwork.NewFakeClock()
	signed, _, err := NewIssuer("one", time.Hour, clock).Issue("7", "sess-1", "admin")
	require.NoError(t, err)

	_, err = NewIssuer("two", time.Hour, clock).Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsNonAccessToken(t *testing.T) {
	clock := clockwork.NewFakeClock()
	claims := Claims{
		UserID:    "7",
		SessionID: "sess-1",
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Hour, clock).Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Garbage(t *testing.T) {
	_, err := NewIssuer("secret", time.Hour, clockwork.NewFakeClock()).Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
