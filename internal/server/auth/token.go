package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MaxTokenLength bounds token strings accepted from clients before any
// parsing happens.
const MaxTokenLength = 1024

// Claims bind a token string to the device it was issued for. The random
// secret is what the server actually stores (hashed); the signature lets the
// server reject forged or truncated tokens before touching storage.
type Claims struct {
	jwt.RegisteredClaims
	Device string `json:"dev"`
	Secret string `json:"sec"`
}

// NewSecret returns a fresh 256-bit random secret, hex encoded.
func NewSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// SignToken produces the token string handed to a device.
func SignToken(device uuid.UUID, secret string, key []byte, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Device: device.String(),
		Secret: secret,
	})
	return token.SignedString(key)
}

// ParseToken verifies a presented token string and extracts the device id
// and secret. Any failure (bad signature, expired, oversized, malformed
// device id) is reported as a single boolean; callers map it to the
// InvalidToken wire error. The exp claim is checked against now, the
// caller's clock.
func ParseToken(tokenString string, key []byte, now func() time.Time) (uuid.UUID, string, bool) {
	if len(tokenString) > MaxTokenLength {
		return uuid.Nil, "", false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(now))
	if err != nil || !token.Valid {
		return uuid.Nil, "", false
	}

	device, err := uuid.Parse(claims.Device)
	if err != nil {
		return uuid.Nil, "", false
	}
	return device, claims.Secret, true
}
