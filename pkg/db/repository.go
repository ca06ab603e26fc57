// pkg/db/repository.go
package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"dailyquote/pkg/config"
	"dailyquote/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Export DB variable
var DB *gorm.DB

const defaultSQLitePath = "quotes.db"

func InitDB(cfg config.DatabaseConfig) error {
	gormLogger, gormErr := newGormLogger(config.AppConfig.Logging.GormLevel)
	if gormErr != nil {
		logger.Error("invalid gorm log level", "value", config.AppConfig.Logging.GormLevel, "error", gormErr)
	}

	dialector, err := openDialector(cfg)
	if err != nil {
		return err
	}

	DB, err = gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return err
	}
	if err := DB.AutoMigrate(&Quote{}, &RotationEntry{}, &PushToken{}, &Setting{}, &DayClaim{}); err != nil {
		logger.Error("failed to auto-migrate database", "error", err)
		return err
	}
	if err := SeedDefaultSettings(DB); err != nil {
		logger.Error("failed to seed default settings", "error", err)
		return err
	}
	return nil
}

func openDialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = defaultSQLitePath
		}
		return sqlite.Open(path), nil
	case "postgres":
		dsn := "host=" + cfg.Host +
			" user=" + cfg.User +
			" password=" + cfg.Password +
			" dbname=" + cfg.DBName +
			" port=" + strconv.Itoa(cfg.Port) +
			" sslmode=" + cfg.SSLMode
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// SeedDefaultSettings inserts the window bounds and last-sent marker if they
// are missing, leaving operator-set values alone.
func SeedDefaultSettings(gdb *gorm.DB) error {
	defaults := []Setting{
		{Key: SettingTimeWindowStart, Value: "8"},
		{Key: SettingTimeWindowEnd, Value: "20"},
		{Key: SettingLastSentDate, Value: ""},
	}
	for _, s := range defaults {
		var existing Setting
		err := gdb.Where("key = ?", s.Key).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := gdb.Create(&s).Error; err != nil {
			return err
		}
	}
	return nil
}
