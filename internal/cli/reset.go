package cli

import (
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/terraincognita07/meditrack/internal/models"
	"github.com/terraincognita07/meditrack/internal/security"
	"github.com/terraincognita07/meditrack/internal/services"
)

const temporaryPasswordLength = 12

type PasswordSetter interface {
	SetPassword(email string, password string) (models.User, error)
}

// RunResetPasswordCommand replaces the user's password with a generated
// temporary one and prints it to out.
func RunResetPasswordCommand(setter PasswordSetter, email string, out io.Writer) error {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	if normalizedEmail == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(normalizedEmail); err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}

	temporaryPassword, err := security.TemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return fmt.Errorf("generate temporary password: %w", err)
	}

	user, err := setter.SetPassword(normalizedEmail, temporaryPassword)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return fmt.Errorf("user %s not found", normalizedEmail)
		}
		return fmt.Errorf("update user password: %w", err)
	}

	fmt.Fprintln(out, "Password reset successful")
	fmt.Fprintf(out, "User: %s\n", user.Email)
	fmt.Fprintf(out, "Temporary password: %s\n", temporaryPassword)
	return nil
}
