package models

import (
	"fmt"

	"github.com/Yokesh17/Project--Management/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens the configured database. SQL statements are echoed only when
// debug is set.
func InitDB(cfg *config.DatabaseConfig, debug bool) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate creates or updates every table the application owns, including the
// project_members join table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Project{},
		&Stage{},
		&Task{},
		&Attachment{},
		&Comment{},
		&ConfigBoard{},
		&Notification{},
		&ActivityLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}
