package jwt

import (
	"errors"
	"strconv"

	libJWT "github.com/golang-jwt/jwt/v5"
)

type HS512 struct {
	cfg    Config
	parser *libJWT.Parser
}

func NewHS512(cfg Config) (*HS512, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}

	opts := []libJWT.ParserOption{
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, libJWT.WithIssuer(cfg.Issuer))
	}
	if len(cfg.Audiences) > 0 {
		opts = append(opts, libJWT.WithAudience(cfg.Audiences...))
	}
	if cfg.Clock != nil {
		opts = append(opts, libJWT.WithTimeFunc(cfg.Clock.Now))
	}

	return &HS512{cfg: cfg, parser: libJWT.NewParser(opts...)}, nil
}

func (h *HS512) Issue(userID int64, role string) (string, error) {
	now := h.cfg.Clock.Now()

	var id string
	if h.cfg.UUID != nil {
		id = h.cfg.UUID.Generate()
	}

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        id,
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    h.cfg.Issuer,
			Audience:  h.cfg.Audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(h.cfg.TTL)),
		},
		UserID: userID,
		Role:   role,
	}).SignedString(h.cfg.Secret)
}

// Verify checks signature, issuer, audience and expiry. A token without
// user_id falls back to a numeric subject.
func (h *HS512) Verify(token string) (Claims, error) {
	var clm Claims
	tok, err := h.parser.ParseWithClaims(token, &clm, func(*libJWT.Token) (any, error) {
		return h.cfg.Secret, nil
	})
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	case !tok.Valid:
		return Claims{}, ErrInvalidToken
	}

	if clm.UserID == 0 {
		clm.UserID, _ = strconv.ParseInt(clm.Subject, 10, 64)
	}
	if clm.UserID <= 0 {
		return Claims{}, ErrMissingSubject
	}

	return clm, nil
}
