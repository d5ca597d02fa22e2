package services

import (
	"errors"
	"unicode"
)

var (
	ErrWeakPassword    = errors.New("password must be at least 8 characters and contain a letter and a digit")
	ErrPasswordTooLong = errors.New("password is too long")
)

const minPasswordLength = 8

func ValidatePasswordStrength(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return ErrWeakPassword
	}

	hasLetter := false
	hasDigit := false
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}

	if hasLetter && hasDigit {
		return nil
	}
	return ErrWeakPassword
}
