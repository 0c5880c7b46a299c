package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes")
	ErrTokenExpired       = errors.New("token has expired")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingSubject     = errors.New("token has no user id")
)

// JWT issues and verifies access tokens. The service itself only verifies;
// Issue exists for operator tooling and tests.
type JWT interface {
	Issue(userID int64, role string) (string, error)
	Verify(token string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	// Leeway tolerates clock skew between this service and the issuer.
	Leeway time.Duration
	Clock  clocker
	UUID   generator
}

// Claims is what the web app puts in an access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id,string"`
	Role   string `json:"role,omitempty"`
}

type authKey struct{}

// GetAuth returns the claims stored by the authentication middleware, or nil.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(authKey{}).(Claims)
	if !ok {
		return nil
	}
	return &clm
}

func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, authKey{}, clm)
}
