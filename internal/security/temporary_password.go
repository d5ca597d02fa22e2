package security

import (
	"crypto/rand"
	"math/big"
)

const (
	temporaryLetters = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	temporaryDigits  = "23456789"

	// TemporaryPasswordAlphabet leaves out look-alikes such as 0/O and 1/l/I
	// so an operator can read the password out to a user.
	TemporaryPasswordAlphabet  = temporaryLetters + temporaryDigits
	MinTemporaryPasswordLength = 8
)

// TemporaryPassword returns a random password of at least
// MinTemporaryPasswordLength characters that always holds a letter and a
// digit.
func TemporaryPassword(length int) (string, error) {
	if length < MinTemporaryPasswordLength {
		length = MinTemporaryPasswordLength
	}

	password := make([]byte, length)
	for index := range password {
		char, err := randomChar(TemporaryPasswordAlphabet)
		if err != nil {
			return "", err
		}
		password[index] = char
	}

	digitAt, err := randomIndex(length)
	if err != nil {
		return "", err
	}
	letterAt, err := randomIndex(length - 1)
	if err != nil {
		return "", err
	}
	if letterAt >= digitAt {
		letterAt++
	}

	if password[digitAt], err = randomChar(temporaryDigits); err != nil {
		return "", err
	}
	if password[letterAt], err = randomChar(temporaryLetters); err != nil {
		return "", err
	}
	return string(password), nil
}

func randomChar(alphabet string) (byte, error) {
	index, err := randomIndex(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[index], nil
}

func randomIndex(limit int) (int, error) {
	value, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return 0, err
	}
	return int(value.Int64()), nil
}
