package notify

import (
	"context"
	"fmt"
	"strings"
)

// Gateway delivers a single text message to a phone number
type Gateway interface {
	Send(ctx context.Context, phone, body string) error
}

// LastTen returns the last ten digits of phone, ignoring any formatting
// characters and country prefix. Users are matched on this value.
func LastTen(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 10 {
		return digits[len(digits)-10:]
	}
	return digits
}

// Recipient formats phone as countryCode followed by its last ten digits
func Recipient(countryCode, phone string) (string, error) {
	local := LastTen(phone)
	if len(local) != 10 {
		return "", fmt.Errorf("phone number %q has fewer than 10 digits", phone)
	}
	return countryCode + local, nil
}
