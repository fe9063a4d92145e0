package migration

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/retainflow/config"
)

// DatabaseURL returns the dialect and golang-migrate URL for cfg. SQLite
// returns an empty URL.
func DatabaseURL(cfg config.DatabaseConfig) (DatabaseType, string, error) {
	dbType, err := ParseDatabaseType(cfg.Driver)
	if err != nil {
		return "", "", err
	}
	if dbType == DatabaseTypeSQLite {
		return dbType, "", nil
	}
	return dbType, BuildDatabaseURL(dbType, cfg.Host, cfg.Port, cfg.Name, cfg.User, cfg.Password, cfg.SSLMode), nil
}

// New picks the migrator for cfg.Driver. db and models are used only for
// SQLite.
func New(cfg config.DatabaseConfig, db *gorm.DB, logger *zap.Logger, models ...any) (Migrator, error) {
	dbType, dbURL, err := DatabaseURL(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid database type: %w", err)
	}
	if dbType == DatabaseTypeSQLite {
		return NewAutoMigrator(db, logger, models...)
	}
	return NewSQLMigrator(Config{
		DatabaseType: dbType,
		DatabaseURL:  dbURL,
		TableName:    DefaultTableName,
	}, logger)
}
