package config

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDatabase opens the audit database. In the test environment an
// in-memory SQLite database is used. When no DBHOST is configured the audit
// trail is not persisted and (nil, nil) is returned.
func ConnectDatabase() (*gorm.DB, error) {
	cfg := LoadConfig()
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	if cfg.IsTest() {
		return gorm.Open(sqlite.Open("file::memory:?cache=shared"), gormCfg)
	}
	if cfg.DBHost == "" {
		return nil, nil
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUSER, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	db, err := gorm.Open(mysql.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open mysql %s:%d: %w", cfg.DBHost, cfg.DBPort, err)
	}
	return db, nil
}
