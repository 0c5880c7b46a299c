package jwt

import (
	"context"
	"strings"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

type staticID string

func (s staticID) Generate() string { return string(s) }

var secret = []byte(strings.Repeat("k", 64))

func newTestHS512(t *testing.T, clk *fixedClock) *HS512 {
	t.Helper()
	h, err := NewHS512(Config{
		Secret:    secret,
		Issuer:    "emuready",
		Audiences: []string{"emuready-notifications"},
		TTL:       time.Hour,
		Clock:     clk,
		UUID:      staticID("jti-1"),
	})
	require.NoError(t, err)
	return h
}

func TestNewHS512ShortKey(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short")})
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)
}

func TestIssueVerify(t *testing.T) {
	clk := &fixedClock{t: time.Now()}
	h := newTestHS512(t, clk)

	tok, err := h.Issue(42, "MODERATOR")
	require.NoError(t, err)

	clm, err := h.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), clm.UserID)
	assert.Equal(t, "MODERATOR", clm.Role)
	assert.Equal(t, "jti-1", clm.ID)

	clk.t = clk.t.Add(2 * time.Hour)
	_, err = h.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejects(t *testing.T) {
	clk := &fixedClock{t: time.Now()}
	h := newTestHS512(t, clk)

	other, err := NewHS512(Config{Secret: []byte(strings.Repeat("x", 64)), Issuer: "emuready", Audiences: []string{"emuready-notifications"}, TTL: time.Hour, Clock: clk})
	require.NoError(t, err)
	forged, err := other.Issue(1, "ADMIN")
	require.NoError(t, err)

	_, err = h.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = h.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs256 := libJWT.NewWithClaims(libJWT.SigningMethodHS256, Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			Issuer:    "emuready",
			Audience:  []string{"emuready-notifications"},
			IssuedAt:  libJWT.NewNumericDate(clk.t),
			ExpiresAt: libJWT.NewNumericDate(clk.t.Add(time.Hour)),
		},
		UserID: 1,
	})
	s, err := hs256.SignedString(secret)
	require.NoError(t, err)
	_, err = h.Verify(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifySubjectFallback(t *testing.T) {
	clk := &fixedClock{t: time.Now()}
	h := newTestHS512(t, clk)

	sign := func(sub string) string {
		s, err := libJWT.NewWithClaims(libJWT.SigningMethodHS512, Claims{
			RegisteredClaims: libJWT.RegisteredClaims{
				Subject:   sub,
				Issuer:    "emuready",
				Audience:  []string{"emuready-notifications"},
				IssuedAt:  libJWT.NewNumericDate(clk.t),
				ExpiresAt: libJWT.NewNumericDate(clk.t.Add(time.Hour)),
			},
		}).SignedString(secret)
		require.NoError(t, err)
		return s
	}

	clm, err := h.Verify(sign("77"))
	require.NoError(t, err)
	assert.Equal(t, int64(77), clm.UserID)

	_, err = h.Verify(sign("user-77"))
	assert.ErrorIs(t, err, ErrMissingSubject)
}

func TestAuthContext(t *testing.T) {
	assert.Nil(t, GetAuth(context.Background()))

	ctx := SetAuth(context.Background(), Claims{UserID: 9})
	require.NotNil(t, GetAuth(ctx))
	assert.Equal(t, int64(9), GetAuth(ctx).UserID)
}
