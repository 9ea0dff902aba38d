package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Input limits.
const (
	MaxMessageLength    = 10000
	MaxNameLength       = 256
	MaxCustomerIDLength = 64
	MaxSearchLength     = 256
)

// ValidateMessageContent validates operator message text. Blank text is
// allowed; the console ignores it.
func ValidateMessageContent(content string) error {
	if len(content) > MaxMessageLength {
		return errors.New("message exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("message must be valid UTF-8")
	}
	return nil
}

// ValidateCustomerID validates a customer ID.
func ValidateCustomerID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("customer ID cannot be empty")
	}
	if len(id) > MaxCustomerIDLength {
		return errors.New("customer ID exceeds maximum length")
	}
	if strings.ContainsAny(id, "/?#") {
		return errors.New("invalid customer ID format")
	}
	return nil
}

// ValidateName validates a customer or caller name.
func ValidateName(name string) error {
	if len(name) > MaxNameLength {
		return errors.New("name exceeds maximum length")
	}
	if !utf8.ValidString(name) {
		return errors.New("name must be valid UTF-8")
	}
	return nil
}

// ValidateSearch validates a customer search term.
func ValidateSearch(search string) error {
	if len(search) > MaxSearchLength {
		return errors.New("search exceeds maximum length")
	}
	return nil
}
