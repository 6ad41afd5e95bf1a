// internal/auth/auth.go
//
// Bearer-token auth for the remote environment API.
//
// Flow:
//   - The operator stores a bcrypt hash of an API key (HANGMAN_API_KEY_HASH).
//   - A training client exchanges the plain key for a short-lived HS256 JWT.
//   - Every environment route requires "Authorization: Bearer <jwt>".
//
// With no key hash configured the Issuer is disabled and the API is open.

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const subject = "hangman-client"

var (
	ErrDisabled     = errors.New("auth disabled")
	ErrInvalidKey   = errors.New("invalid api key")
	ErrInvalidToken = errors.New("invalid token")
)

// Issuer signs and verifies environment tokens.
type Issuer struct {
	secret  []byte
	ttl     time.Duration
	keyHash []byte
	now     func() time.Time
}

// NewIssuer returns an issuer; an empty apiKeyHash disables auth.
func NewIssuer(secret string, ttl time.Duration, apiKeyHash string) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{
		secret:  []byte(secret),
		ttl:     ttl,
		keyHash: []byte(apiKeyHash),
		now:     time.Now,
	}
}

// Enabled reports whether tokens are required.
func (i *Issuer) Enabled() bool { return len(i.keyHash) > 0 }

// Exchange checks apiKey against the stored hash and returns a signed token.
func (i *Issuer) Exchange(apiKey string) (string, time.Time, error) {
	if !i.Enabled() {
		return "", time.Time{}, ErrDisabled
	}
	if bcrypt.CompareHashAndPassword(i.keyHash, []byte(apiKey)) != nil {
		return "", time.Time{}, ErrInvalidKey
	}
	now := i.now()
	exp := now.Add(i.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ID:        tokenID(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return ss, exp, nil
}

// Verify parses tok and returns its ID claim.
func (i *Issuer) Verify(tok string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(subject),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}

// HashKey returns the bcrypt hash to store in HANGMAN_API_KEY_HASH.
func HashKey(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	b, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(b), err
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}

// tokenID returns a 16-hex-char identifier.
func tokenID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
