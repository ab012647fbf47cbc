package auth

import (
	"errors"
	"strings"
)

var ErrInvalidPhone = errors.New("invalid phone number format")

// NormalizePhone accepts a 10-digit national number, tolerating spaces and
// dashes, and returns the bare digits.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
		default:
			return "", ErrInvalidPhone
		}
	}
	digits := b.String()
	if len(digits) != 10 {
		return "", ErrInvalidPhone
	}
	return digits, nil
}

// MaskPhone hides all but the last four digits, for logs.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
