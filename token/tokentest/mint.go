// Package tokentest mints bearer tokens for tests. The signature is real HS256
// but nothing in the client verifies it.
package tokentest

import (
	"encoding/base64"
	"encoding/json"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const secret = "tokentest-secret"

// Mint signs a token expiring at exp. Extra claims are merged over the defaults.
func Mint(exp time.Time, extra map[string]any) string {
	claims := jwtlib.MapClaims{
		"sub":   "user-1",
		"email": "ali@example.com",
		"role":  "admin",
		"iat":   exp.Add(-time.Hour).Unix(),
		"exp":   exp.Unix(),
		"jti":   uuid.New().String(),
	}
	for k, v := range extra {
		if v == nil {
			delete(claims, k)
			continue
		}
		claims[k] = v
	}
	return sign(claims)
}

// MintIn is Mint relative to now.
func MintIn(now time.Time, d time.Duration) string {
	return Mint(now.Add(d), nil)
}

// WithoutExp mints a structurally valid token that has no exp claim.
func WithoutExp() string {
	return sign(jwtlib.MapClaims{"sub": "user-1", "jti": uuid.New().String()})
}

// Unsigned builds header.payload.signature by hand from an arbitrary payload,
// for payloads golang-jwt would refuse to produce.
func Unsigned(header, payload any) string {
	return segment(header) + "." + segment(payload) + ".c2ln"
}

func sign(claims jwtlib.MapClaims) string {
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		panic("tokentest: sign: " + err.Error())
	}
	return signed
}

func segment(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic("tokentest: marshal: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
