package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// checkInScope marks a token as usable only at the check-in endpoint, so
// an access token can never double as a check-in credential.
const checkInScope = "checkin"

// ErrBadCheckInToken is returned when a scanned token is malformed,
// expired, wrongly scoped or signed with a different secret.
var ErrBadCheckInToken = errors.New("invalid check-in token")

// NewCheckInToken issues the HS256 JWT embedded in a reservation's QR
// code.  The subject is the reservation ID and the token stays valid until
// the reservation's end time, so late scans still resolve to a reservation
// and can be reported as missed rather than rejected outright.
func NewCheckInToken(secret, reservationID string, endTime time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   reservationID,
		"scope": checkInScope,
		"exp":   endTime.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseCheckInToken verifies a scanned token and returns the reservation
// ID it was issued for.
func ParseCheckInToken(secret, raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadCheckInToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", ErrBadCheckInToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrBadCheckInToken
	}
	if scope, _ := claims["scope"].(string); scope != checkInScope {
		return "", ErrBadCheckInToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrBadCheckInToken
	}
	return sub, nil
}
