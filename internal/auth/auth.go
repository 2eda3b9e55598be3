// Package auth issues and verifies access tokens and password hashes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"github.com/foxzi/fittrack/internal/models"
)

const issuer = "fittrack"

// ErrInvalidToken is returned for malformed, expired or forged tokens
var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims carried by access tokens
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserID returns the subject of the token
func (c *Claims) UserID() string {
	return c.Subject
}

// IsAdmin reports whether the token belongs to an administrator
func (c *Claims) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// Tokens issues and validates HS256 access tokens
type Tokens struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

// NewTokens creates a token service
func NewTokens(secret string, ttl time.Duration, clock clockwork.Clock) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, clock: clock}
}

// Issue creates a signed token for the user
func (t *Tokens) Issue(u *models.User) (string, time.Time, error) {
	now := t.clock.Now()
	expires := now.Add(t.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(expires),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Username: u.Username,
		Role:     u.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse validates a token and returns its claims
func (t *Tokens) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
