package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordMismatch = errors.New("password mismatch")
	ErrPasswordTooLong  = errors.New("password too long")
)

// bcrypt only looks at the first 72 bytes of its input.
const maxPepperedPasswordBytes = 72

// PasswordHasher hashes passwords as bcrypt(pepper + password). The pepper
// lives in configuration, never in the database.
type PasswordHasher struct {
	pepper string
	cost   int
}

func NewPasswordHasher(pepper string) *PasswordHasher {
	return &PasswordHasher{pepper: pepper, cost: bcrypt.DefaultCost}
}

// NewPasswordHasherWithCost is meant for tests that cannot afford the default cost.
func NewPasswordHasherWithCost(pepper string, cost int) *PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	return &PasswordHasher{pepper: pepper, cost: cost}
}

func (hasher *PasswordHasher) Hash(password string) (string, error) {
	if len(hasher.pepper)+len(password) > maxPepperedPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hasher.pepper+password), hasher.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (hasher *PasswordHasher) Compare(hash string, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(hasher.pepper+password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}
