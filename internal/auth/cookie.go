package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const SessionCookieName = "convention_session"

type sessionClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// SignSID wraps the opaque session id in an HS256 token. A tampered or forged
// cookie fails signature verification before any store lookup happens.
func SignSID(secret, sid string) (string, error) {
	claims := &sessionClaims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSID verifies the cookie value and extracts the session id.
func ParseSID(secret, cookie string) (string, error) {
	token, err := jwt.ParseWithClaims(cookie, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid session cookie")
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || claims.SID == "" {
		return "", fmt.Errorf("invalid session cookie")
	}
	return claims.SID, nil
}
