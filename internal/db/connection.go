package db

import (
	"fmt"
	"strings"

	"github.com/terraincognita07/meditrack/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeMySQL    = "mysql"
)

type Options struct {
	Type         string
	Path         string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Open connects to the configured database. SQLite runs the embedded SQL
// migrations; server databases are reconciled with AutoMigrate.
func Open(options Options) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(options.Type)) {
	case "", TypeSQLite:
		return OpenSQLite(options.Path)
	case TypePostgres, "postgresql":
		return openServerDatabase(postgres.Open(options.DSN), options)
	case TypeMySQL, "mariadb":
		return openServerDatabase(mysql.Open(options.DSN), options)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", options.Type)
	}
}

func openServerDatabase(dialector gorm.Dialector, options Options) (*gorm.DB, error) {
	if strings.TrimSpace(options.DSN) == "" {
		return nil, fmt.Errorf("%s requires a DSN", options.Type)
	}

	database, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", options.Type, err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql db: %w", err)
	}
	if options.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(options.MaxOpenConns)
		sqlDB.SetMaxIdleConns(max(1, options.MaxOpenConns/2))
	}
	if options.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(options.MaxIdleConns)
	}

	if err := AutoMigrate(database); err != nil {
		return nil, fmt.Errorf("auto migrate %s: %w", options.Type, err)
	}
	return database, nil
}

func AutoMigrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&models.User{},
		&models.Medicine{},
		&models.Schedule{},
		&models.Intake{},
		&models.Notification{},
	)
}

func Close(database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Ping(database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
