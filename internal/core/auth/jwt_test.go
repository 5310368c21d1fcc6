package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTer() *JWTer {
	return &JWTer{Secret: []byte("test-secret"), Issuer: "auth-service"}
}

func TestIssueAndParse_RoundTrip(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue("user-123")
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", c.UserID)
	assert.Equal(t, "user-123", c.Subject)
	assert.Equal(t, SessionTTL, c.ExpiresAt.Sub(c.IssuedAt.Time))
}

func TestParse_Expired(t *testing.T) {
	j := newJWTer()
	issued := time.Now().Add(-8 * 24 * time.Hour)
	j.now = func() time.Time { return issued }
	tok, err := j.Issue("u1")
	require.NoError(t, err)

	j.now = nil
	_, err = j.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_StillValidBeforeSevenDays(t *testing.T) {
	j := newJWTer()
	j.now = func() time.Time { return time.Now().Add(-6 * 24 * time.Hour) }
	tok, err := j.Issue("u1")
	require.NoError(t, err)

	j.now = nil
	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := newJWTer().Issue("u2")
	require.NoError(t, err)

	other := &JWTer{Secret: []byte("other"), Issuer: "auth-service"}
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Tampered(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue("u3")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "admin"}).SignedString([]byte("x"))
	require.NoError(t, err)
	parts[1] = strings.Split(forged, ".")[1]

	_, err = j.Parse(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	j := newJWTer()
	claims := Claims{
		UserID: "u4",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "auth-service",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(j.Secret)
	require.NoError(t, err)

	_, err = j.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Malformed(t *testing.T) {
	_, err := newJWTer().Parse("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssue_EmptyUser(t *testing.T) {
	_, err := newJWTer().Issue("")
	assert.Error(t, err)
}
