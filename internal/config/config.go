package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/terraincognita07/meditrack/internal/db"
	"github.com/terraincognita07/meditrack/internal/storage"
	"go.uber.org/zap/zapcore"
)

const minSecretKeyLength = 32

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
}

// Config holds the server configuration.
type Config struct {
	Port     string
	Location *time.Location

	SecretKey      string
	PasswordPepper string
	AdminToken     string
	CORSOrigins    string
	LogLevel       zapcore.Level

	Database db.Options
	Storage  storage.Config
}

// LoadDotEnv loads a .env file from the working directory. A missing file is
// not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads the server configuration from the environment.
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	port, err := resolvePort()
	if err != nil {
		return nil, err
	}
	secretKey, err := resolveSecretKey()
	if err != nil {
		return nil, err
	}
	location, err := resolveLocation()
	if err != nil {
		return nil, err
	}
	level, err := ResolveLogLevel()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:           port,
		Location:       location,
		SecretKey:      secretKey,
		PasswordPepper: os.Getenv("PASSWORD_PEPPER"),
		AdminToken:     strings.TrimSpace(os.Getenv("ADMIN_TOKEN")),
		CORSOrigins:    getEnv("CORS_ORIGINS", "*"),
		LogLevel:       level,
		Database: db.Options{
			Type:         strings.ToLower(getEnv("DB_TYPE", db.TypeSQLite)),
			Path:         getEnv("DB_PATH", filepath.Join("data", "meditrack.db")),
			DSN:          os.Getenv("DB_DSN"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 0),
		},
		Storage: storage.Config{
			Type:       strings.ToLower(getEnv("STORAGE_TYPE", storage.TypeFilesystem)),
			UploadsDir: getEnv("UPLOADS_DIR", "uploads"),
			S3: storage.S3Options{
				Bucket:          os.Getenv("S3_BUCKET"),
				Region:          getEnv("S3_REGION", "us-east-1"),
				Prefix:          os.Getenv("S3_PREFIX"),
				Endpoint:        os.Getenv("S3_ENDPOINT"),
				PublicBaseURL:   os.Getenv("S3_PUBLIC_BASE_URL"),
				AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			},
		},
	}

	switch cfg.Database.Type {
	case db.TypeSQLite:
	case db.TypePostgres, db.TypeMySQL:
		if strings.TrimSpace(cfg.Database.DSN) == "" {
			return nil, fmt.Errorf("DB_DSN is required for DB_TYPE=%s", cfg.Database.Type)
		}
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", cfg.Database.Type)
	}

	switch cfg.Storage.Type {
	case storage.TypeFilesystem:
	case storage.TypeS3:
		if strings.TrimSpace(cfg.Storage.S3.Bucket) == "" {
			return nil, errors.New("S3_BUCKET is required for STORAGE_TYPE=s3")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_TYPE %q", cfg.Storage.Type)
	}

	return cfg, nil
}

func resolveSecretKey() (string, error) {
	secretKey := strings.TrimSpace(os.Getenv("SECRET_KEY"))
	if secretKey == "" {
		return "", errors.New("SECRET_KEY is required")
	}
	if _, insecure := insecureSecretKeys[strings.ToLower(secretKey)]; insecure {
		return "", errors.New("SECRET_KEY uses an insecure placeholder value")
	}
	if len(secretKey) < minSecretKeyLength {
		return "", fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretKeyLength)
	}
	return secretKey, nil
}

func resolvePort() (string, error) {
	raw := getEnv("PORT", "8080")
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("invalid PORT %q", raw)
	}
	return strconv.Itoa(port), nil
}

func resolveLocation() (*time.Location, error) {
	name := getEnv("TZ", "UTC")
	location, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ %q: %w", name, err)
	}
	return location, nil
}

// ResolveLogLevel parses LOG_LEVEL, defaulting to info.
func ResolveLogLevel() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}

func getEnv(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
