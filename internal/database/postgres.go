package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/noah-isme/sidupak-api/internal/config"
)

// ConnectPostgres opens the submission database and applies the pool limits.
func ConnectPostgres(dsn string, pool config.DatabasePool) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := ApplyPool(db, pool); err != nil {
		return nil, err
	}

	return db, nil
}

// ApplyPool sets the connection pool limits on db; zero values keep the driver defaults.
func ApplyPool(db *gorm.DB, pool config.DatabasePool) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("access sql pool: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return nil
}
