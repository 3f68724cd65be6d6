package postgres

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config carries the connection settings for the Postgres store.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// LogWriter receives slow-query and error output. Nil silences gorm.
	LogWriter logger.Writer
}

// Open connects to Postgres and applies the pool limits.
func Open(cfg Config) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}

	gormLogger := logger.Default.LogMode(logger.Silent)
	if cfg.LogWriter != nil {
		gormLogger = logger.New(cfg.LogWriter, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// Migrate creates or updates the schema for every persistence model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&productModel{},
		&productColorModel{},
		&cartModel{},
		&cartLineModel{},
		&couponModel{},
		&addressModel{},
		&orderModel{},
		&orderItemModel{},
		&orderStatusUpdateModel{},
		&paymentModel{},
		&paymentRefundModel{},
		&orderRefundModel{},
	)
}
