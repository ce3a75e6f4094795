package store

import (
	"fmt"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/YuminosukeSato/rulconform/config"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
	"github.com/YuminosukeSato/rulconform/pkg/log"
)

// gormWriter forwards gorm's log lines to pkg/log.
type gormWriter struct {
	logger log.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.logger.Warn(fmt.Sprintf(format, args...))
}

// Exists reports whether the configured database is already there.
// A sqlite database exists once its file does; a postgres server is
// assumed to exist.
func Exists(cfg config.Database) bool {
	if cfg.Type == "pgsql" {
		return true
	}
	_, err := os.Stat(cfg.Name)
	return err == nil
}

func InitDB(cfg config.Database) (*gorm.DB, error) {
	var dia gorm.Dialector
	l := log.GetLoggerWithName("gorm")

	if cfg.Type == "pgsql" {
		dsn := fmt.Sprintf("host=%s user=%s password=%s port=%s",
			cfg.Hostname,
			cfg.User,
			cfg.Password,
			cfg.Port,
		)
		if cfg.Name != "" {
			dsn = fmt.Sprintf("%s dbname=%s", dsn, cfg.Name)
		}
		dia = postgres.Open(dsn)
	} else {
		dia = sqlite.Open(cfg.Name)
	}

	newLogger := logger.New(
		gormWriter{logger: l},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)

	newDB, err := gorm.Open(dia, &gorm.Config{Logger: newLogger, TranslateError: true})
	if err != nil {
		l.Error("failed to connect database", err, "db.type", cfg.Type)
		return nil, errors.Wrap(err, "open database")
	}

	sqlDB, err := newDB.DB()
	if err != nil {
		l.Error("failed to configure connections", err)
		return nil, errors.Wrap(err, "configure connections")
	}
	if cfg.Type == "pgsql" {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)

		var version string
		if result := newDB.Raw("SELECT version()").Scan(&version); result.Error != nil {
			return nil, errors.Wrap(result.Error, "query server version")
		}
		l.Info("PostgreSQL information", "db.version", version)
	} else {
		// sqlite は単一接続で書き込みを直列化する
		sqlDB.SetMaxOpenConns(1)
	}

	return newDB, nil
}
