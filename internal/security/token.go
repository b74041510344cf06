package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionTokenBytes = 32

// GenerateSessionToken returns an opaque bearer token with 256 bits of
// entropy, URL safe.
func GenerateSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

var ErrInvalidCookie = errors.New("invalid session cookie")

// CookieCodec turns a session token into the cookie value and back. With
// no secret the cookie carries the raw token. With a secret it carries an
// HS256 JWT whose jti is the token, which lets the edge gate reject forged
// or stale cookies without a storage lookup.
type CookieCodec struct {
	secret []byte
}

func NewCookieCodec(secret string) *CookieCodec {
	if secret == "" {
		return &CookieCodec{}
	}
	return &CookieCodec{secret: []byte(secret)}
}

func (c *CookieCodec) Signed() bool {
	return c != nil && len(c.secret) > 0
}

func (c *CookieCodec) Encode(token string, expiresAt time.Time) (string, error) {
	if !c.Signed() {
		return token, nil
	}

	claims := jwt.RegisteredClaims{
		ID:        token,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

// Decode extracts the session token from a cookie value.
func (c *CookieCodec) Decode(value string) (string, error) {
	if value == "" {
		return "", ErrInvalidCookie
	}
	if !c.Signed() {
		return value, nil
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(value, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid || claims.ID == "" {
		return "", ErrInvalidCookie
	}
	return claims.ID, nil
}

// Verify is the storage-free check used at the edge. Unsigned cookies
// always pass.
func (c *CookieCodec) Verify(value string) bool {
	if !c.Signed() {
		return value != ""
	}
	_, err := c.Decode(value)
	return err == nil
}
