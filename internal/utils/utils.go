package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lotsaero/rifa-backend/internal/config"
)

// MinPhoneDigits is the minimum number of digits a contact phone must
// contain after stripping formatting.
const MinPhoneDigits = 10

// PhoneDigits strips every non-digit character from a phone number.
func PhoneDigits(phone string) string {
	out := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			out = append(out, r)
		}
	}
	return string(out)
}

// ValidPhone reports whether the phone has at least MinPhoneDigits
// digits after stripping non-digit characters.
func ValidPhone(phone string) bool {
	return len(PhoneDigits(phone)) >= MinPhoneDigits
}

// FormatPhone renders a Brazilian phone number as (DD) NNNN-NNNN or
// (DD) NNNNN-NNNN. Inputs longer than 11 digits are truncated; inputs
// too short to format are returned as their bare digits.
func FormatPhone(phone string) string {
	digits := PhoneDigits(phone)
	if len(digits) > 11 {
		digits = digits[:11]
	}
	switch {
	case len(digits) == 11:
		return fmt.Sprintf("(%s) %s-%s", digits[:2], digits[2:7], digits[7:])
	case len(digits) == 10:
		return fmt.Sprintf("(%s) %s-%s", digits[:2], digits[2:6], digits[6:])
	default:
		return digits
	}
}

// GenerateJWT generates a signed token for an admin session
func GenerateJWT(userID, email, role string, cfg *config.Config) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Second * time.Duration(cfg.JWT.ExpiresIn))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"exp":   expiresAt.Unix(),
	})

	tokenString, err := token.SignedString([]byte(cfg.JWT.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ValidateJWT validates a token and returns its claims
func ValidateJWT(tokenString string, cfg *config.Config) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
