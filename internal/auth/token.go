package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers malformed, forged and expired tokens.
var ErrInvalidToken = errors.New("token is not valid or has expired")

// Tokens signs and verifies the HS256 JWTs that carry a Principal.
type Tokens struct {
	secret  []byte
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewTokens builds a Tokens helper. The secret comes from configuration,
// never from source.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{
		secret:  []byte(secret),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token for the principal.
func (t *Tokens) Issue(p Principal) (string, error) {
	now := t.nowFunc()
	c := claims{
		Email: p.Email,
		Role:  p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a signed token, returning the principal it
// carries.
func (t *Tokens) Verify(signed string) (Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(signed, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.nowFunc))
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	return Principal{
		ID:    c.Subject,
		Email: c.Email,
		Role:  c.Role,
	}, nil
}
