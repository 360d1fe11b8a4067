package configs

import (
	"fmt"

	"caketime/entity"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func ConnectionDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DBSource)
	case "sqlite":
		dialector = sqlite.Open(cfg.DBSource)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}

	// unique violations surface as gorm.ErrDuplicatedKey
	gcfg := &gorm.Config{TranslateError: true}
	if cfg.IsProduction() {
		gcfg.Logger = logger.Default.LogMode(logger.Error)
	}
	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// SetupDatabase migrates the schema.
func SetupDatabase(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Product{},
		&entity.Review{},
		&entity.Order{}, &entity.OrderItem{},
		&entity.CustomOrder{},
		&entity.WebhookEvent{},
		&entity.RevokedToken{},
	)
}
