package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-user-admin/internal/errors"
)

// DefaultSkew is subtracted from a token's exp so it is dropped before the server would reject it.
const DefaultSkew = 300 * time.Second

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims is the decoded payload of a bearer token. Only ExpiresAt is required.
type Claims struct {
	Subject   string           // sub, or the backend's id claim
	Email     string           // email, if the backend embeds it
	Role      string           // role, if the backend embeds it
	IssuedAt  int64            // iat in seconds since epoch, 0 if absent
	ExpiresAt int64            // exp in seconds since epoch
	Raw       jwtlib.MapClaims // every claim as decoded
}

// Expiry returns exp as a time.Time.
func (c *Claims) Expiry() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// Decode reads the claims of a three segment token without verifying its signature.
// The signature belongs to the server; the client only needs exp to decide when to drop the token.
func Decode(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &DecodeError{Reason: "token is empty"}
	}
	if strings.Count(raw, ".") != 2 {
		return nil, &DecodeError{Reason: "token must have three dot-separated segments"}
	}

	parsed, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		// An unknown or missing alg only matters for verification, which is not done here.
		if parsed == nil || !errors.Is(err, jwtlib.ErrTokenUnverifiable) {
			return nil, &DecodeError{Reason: "malformed token", Err: err}
		}
	}

	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, &DecodeError{Reason: "error extracting claims"}
	}

	exp, err := mapClaims.GetExpirationTime()
	if err != nil {
		return nil, &DecodeError{Reason: "exp claim is not a number", Err: err}
	}
	if exp == nil {
		return nil, &DecodeError{Reason: "exp claim is missing"}
	}

	claims := &Claims{
		ExpiresAt: exp.Unix(),
		Raw:       mapClaims,
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Unix()
	}
	claims.Subject, _ = mapClaims.GetSubject()
	if claims.Subject == "" {
		claims.Subject = stringClaim(mapClaims, "id")
	}
	claims.Email = stringClaim(mapClaims, "email")
	claims.Role = stringClaim(mapClaims, "role")

	return claims, nil
}

// IsExpired reports exp < now + skew. Nil claims are always expired.
func IsExpired(c *Claims, now time.Time, skew time.Duration) bool {
	if c == nil {
		return true
	}
	return c.ExpiresAt < now.Unix()+int64(skew/time.Second)
}

// IsTokenExpired decodes raw and checks it. A token that cannot be decoded counts as expired.
func IsTokenExpired(raw string, now time.Time, skew time.Duration) bool {
	claims, err := Decode(raw)
	if err != nil {
		return true
	}
	return IsExpired(claims, now, skew)
}

// CheckExpiry is IsExpired in error form.
func CheckExpiry(c *Claims, now time.Time, skew time.Duration) error {
	if c == nil {
		return &DecodeError{Reason: "no claims"}
	}
	if IsExpired(c, now, skew) {
		return &ExpiredTokenError{ExpiresAt: c.Expiry(), CheckedAt: now, Skew: skew}
	}
	return nil
}

// Validate decodes raw and checks its expiry in one step.
func Validate(raw string, now time.Time, skew time.Duration) (*Claims, error) {
	claims, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if err := CheckExpiry(claims, now, skew); err != nil {
		return nil, err
	}
	return claims, nil
}

func stringClaim(c jwtlib.MapClaims, key string) string {
	s, _ := c[key].(string)
	return s
}
