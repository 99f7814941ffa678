// Package auth issues and verifies the bearer tokens used by the API.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "typ" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrInvalidToken is returned for malformed, expired or mistyped tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload issued to authenticated users.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
}

// UserID parses the numeric subject.
func (c Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// Identity is the verified caller extracted from a token.
type Identity struct {
	UserID uint
	Email  string
	Role   string
}

// Signer issues and parses HS256 tokens for one token type.
type Signer struct {
	secret    []byte
	ttl       time.Duration
	tokenType string
	now       func() time.Time
}

// NewSigner constructs a signer. ttl applies to tokens issued by Issue.
func NewSigner(secret string, ttl time.Duration, tokenType string) *Signer {
	return &Signer{
		secret:    []byte(secret),
		ttl:       ttl,
		tokenType: tokenType,
		now:       time.Now,
	}
}

// Issue signs a token for identity and returns it with its expiry.
func (s *Signer) Issue(identity Identity) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(identity.UserID), 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:     identity.Email,
		Role:      identity.Role,
		TokenType: s.tokenType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Parse verifies tokenString and returns the identity it carries.
func (s *Signer) Parse(tokenString string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	if claims.TokenType != s.tokenType {
		return Identity{}, ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return Identity{}, err
	}

	return Identity{UserID: userID, Email: claims.Email, Role: claims.Role}, nil
}
