package api

import (
	"errors"
	"time"

	"github.com/terraincognita07/meditrack/internal/db"
	"github.com/terraincognita07/meditrack/internal/security"
	"github.com/terraincognita07/meditrack/internal/services"
	"github.com/terraincognita07/meditrack/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultAuthTokenTTL = 7 * 24 * time.Hour
	loginAttemptLimit   = 8
	loginAttemptWindow  = 15 * time.Minute
)

type Handler struct {
	db           *gorm.DB
	secretKey    []byte
	location     *time.Location
	logger       *zap.Logger
	adminToken   string
	tokenTTL     time.Duration
	loginLimiter *attemptLimiter

	authService         *services.AuthService
	medicineService     *services.MedicineService
	scheduleService     *services.ScheduleService
	intakeService       *services.IntakeService
	notificationService *services.NotificationService
	retentionService    *services.RetentionService
}

// Options wires a Handler. Images is required; the hasher, the retention
// service and the logger fall back to defaults.
type Options struct {
	Database       *gorm.DB
	SecretKey      string
	Location       *time.Location
	Logger         *zap.Logger
	Images         storage.Store
	PasswordHasher services.PasswordHasher
	Retention      *services.RetentionService
	AdminToken     string
	TokenTTL       time.Duration
}

func NewHandler(options Options) (*Handler, error) {
	if options.Database == nil {
		return nil, errors.New("database is required")
	}
	if options.Images == nil {
		return nil, errors.New("image store is required")
	}
	if options.SecretKey == "" {
		return nil, errors.New("secret key is required")
	}

	location := options.Location
	if location == nil {
		location = time.Local
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hasher := options.PasswordHasher
	if hasher == nil {
		hasher = security.NewPasswordHasher("")
	}
	tokenTTL := options.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = defaultAuthTokenTTL
	}

	repositories := db.NewRepositories(options.Database)
	retention := options.Retention
	if retention == nil {
		retention = services.NewRetentionService(repositories.Intakes, repositories.Notifications, location, logger)
	}

	return &Handler{
		db:           options.Database,
		secretKey:    []byte(options.SecretKey),
		location:     location,
		logger:       logger,
		adminToken:   options.AdminToken,
		tokenTTL:     tokenTTL,
		loginLimiter: newAttemptLimiter(loginAttemptLimit, loginAttemptWindow),

		authService:         services.NewAuthService(repositories.Users, hasher),
		medicineService:     services.NewMedicineService(repositories.Medicines, options.Images, logger),
		scheduleService:     services.NewScheduleService(repositories.Schedules, repositories.Medicines, location),
		intakeService:       services.NewIntakeService(repositories.Intakes, repositories.Schedules, repositories.Medicines, location),
		notificationService: services.NewNotificationService(repositories.Notifications),
		retentionService:    retention,
	}, nil
}
