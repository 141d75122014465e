package auth

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	usernameMin = 3
	usernameMax = 256
	emailMin    = 6
	emailMax    = 256
	passwordMin = 6
	passwordMax = 1024
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegister(req RegisterRequest) error {
	if err := lengthBetween("username", strings.TrimSpace(req.Username), usernameMin, usernameMax); err != nil {
		return err
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	return lengthBetween("password", req.Password, passwordMin, passwordMax)
}

func validateEmail(email string) error {
	if err := lengthBetween("email", email, emailMin, emailMax); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return fmt.Errorf("%w: email must be a valid address", ErrInvalidInput)
	}
	return nil
}

func lengthBetween(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		return fmt.Errorf("%w: %s must be between %d and %d characters", ErrInvalidInput, field, min, max)
	}
	return nil
}
