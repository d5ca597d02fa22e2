package services

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

var (
	ErrAuthCredentialsInvalid = errors.New("auth credentials invalid")
	ErrInvalidRegistration    = errors.New("name, email and password are required")
)

const maxUserNameLength = 100

func NormalizeAuthEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ""
	}
	return email
}

func NormalizeCredentialsInput(emailRaw string, passwordRaw string) (string, string, error) {
	email := NormalizeAuthEmail(emailRaw)
	password := strings.TrimSpace(passwordRaw)
	if email == "" || password == "" {
		return "", "", ErrAuthCredentialsInvalid
	}
	return email, password, nil
}

func NormalizeRegistrationInput(nameRaw string, emailRaw string, passwordRaw string) (string, string, string, error) {
	name := strings.TrimSpace(nameRaw)
	if name == "" || utf8.RuneCountInString(name) > maxUserNameLength {
		return "", "", "", ErrInvalidRegistration
	}
	email, password, err := NormalizeCredentialsInput(emailRaw, passwordRaw)
	if err != nil {
		return "", "", "", ErrInvalidRegistration
	}
	return name, email, password, nil
}
