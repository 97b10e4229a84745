package authz

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"sigil/pkg/domain"
)

// TokenParser validates caller bearer tokens and extracts the identity the
// policy runs against.
type TokenParser struct {
	signingKey []byte
}

func NewTokenParser(signingKey string) *TokenParser {
	return &TokenParser{signingKey: []byte(signingKey)}
}

type callerClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseCaller validates the token signature and expiry and returns the
// caller. Only HMAC-signed tokens are accepted.
func (p *TokenParser) ParseCaller(tokenString string) (domain.Caller, error) {
	var claims callerClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.signingKey, nil
	})
	if err != nil {
		return domain.Caller{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return domain.Caller{}, fmt.Errorf("invalid token")
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Caller{}, err
	}
	if claims.Subject == "" {
		return domain.Caller{}, fmt.Errorf("token missing subject")
	}
	return domain.Caller{Subject: claims.Subject, Role: role}, nil
}

// IssueToken mints a caller token. Used by tests and the dev seed tooling;
// production callers get tokens from the identity provider.
func (p *TokenParser) IssueToken(caller domain.Caller) (string, error) {
	claims := callerClaims{
		Role: string(caller.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: caller.Subject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.signingKey)
}
