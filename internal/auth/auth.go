package auth

import (
	"errors"
	"time"

	"github.com/frahmantamala/filehub/internal"
	"github.com/golang-jwt/jwt/v5"
)

// Credentials is what the login check needs from the users database.
type Credentials struct {
	UserID       int64
	Username     string
	PasswordHash string
	Role         string
	Department   string
}

// TokenGenerator issues and validates session tokens.
type TokenGenerator interface {
	GenerateSessionToken(p internal.Principal) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims is the payload of the session cookie.
type Claims struct {
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() *internal.Principal {
	return &internal.Principal{
		ID:         c.UserID,
		Username:   c.Username,
		Role:       c.Role,
		Department: c.Department,
	}
}

type JWTTokenGenerator struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

// Session is the outcome of a successful login.
type Session struct {
	Principal *internal.Principal
	Token     string
	ExpiresAt time.Time
}

var errUnexpectedSigningMethod = errors.New("unexpected signing method")
