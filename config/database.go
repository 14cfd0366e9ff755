package config

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDatabase connects to MySQL from DB_* env vars and returns the handle
// for injection into the gorm-backed store. Retries briefly so the service
// survives the database coming up after it.
func OpenDatabase() (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
		EnvString("DB_USER", "root"),
		EnvString("DB_PASSWORD", ""),
		EnvString("DB_HOST", "127.0.0.1"),
		EnvString("DB_PORT", "3306"),
		EnvString("DB_NAME", "ledger"),
	)

	var db *gorm.DB
	var err error
	attempts := EnvInt("DB_CONNECT_ATTEMPTS", 5)
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err == nil {
			return db, nil
		}
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return nil, fmt.Errorf("database connect failed after %d attempts: %w", attempts, err)
}
