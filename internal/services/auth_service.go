package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/terraincognita07/meditrack/internal/models"
	"github.com/terraincognita07/meditrack/internal/security"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrCreateUserFailed   = errors.New("create user failed")
)

type AuthUserRepository interface {
	ExistsByNormalizedEmail(email string) (bool, error)
	FindByNormalizedEmail(email string) (models.User, error)
	FindByID(userID uint) (models.User, error)
	Create(user *models.User) error
	UpdatePassword(userID uint, passwordHash string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error
}

type AuthService struct {
	users  AuthUserRepository
	hasher PasswordHasher
	now    func() time.Time
}

func NewAuthService(users AuthUserRepository, hasher PasswordHasher) *AuthService {
	return &AuthService{users: users, hasher: hasher, now: time.Now}
}

func (service *AuthService) Register(name string, email string, password string) (models.User, error) {
	name, email, password, err := NormalizeRegistrationInput(name, email, password)
	if err != nil {
		return models.User{}, err
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return models.User{}, err
	}

	exists, err := service.users.ExistsByNormalizedEmail(email)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrCreateUserFailed, err)
	}
	if exists {
		return models.User{}, ErrEmailTaken
	}

	passwordHash, err := service.hashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    service.now(),
	}
	if err := service.users.Create(&user); err != nil {
		// The unique index also catches a concurrent registration.
		if exists, lookupErr := service.users.ExistsByNormalizedEmail(email); lookupErr == nil && exists {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("%w: %v", ErrCreateUserFailed, err)
	}
	return user, nil
}

func (service *AuthService) Authenticate(email string, password string) (models.User, error) {
	email, password, err := NormalizeCredentialsInput(email, password)
	if err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	user, err := service.users.FindByNormalizedEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if err := service.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	return user, nil
}

func (service *AuthService) FindByID(userID uint) (models.User, error) {
	user, err := service.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// SetPassword replaces the password of the user with the given email. It is
// used by the operator reset command and skips the strength policy so that
// generated temporary passwords are always accepted.
func (service *AuthService) SetPassword(email string, password string) (models.User, error) {
	normalized := NormalizeAuthEmail(email)
	if normalized == "" {
		return models.User{}, ErrAuthCredentialsInvalid
	}

	user, err := service.users.FindByNormalizedEmail(normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	passwordHash, err := service.hashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	if err := service.users.UpdatePassword(user.ID, passwordHash); err != nil {
		return models.User{}, fmt.Errorf("update password: %w", err)
	}
	user.PasswordHash = passwordHash
	return user, nil
}

func (service *AuthService) hashPassword(password string) (string, error) {
	passwordHash, err := service.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return passwordHash, nil
}
