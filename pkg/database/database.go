package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options describes how to reach the database
type Options struct {
	Driver         string
	DSN            string
	MaxConnections int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	ConnectRetries int
	Debug          bool
}

// Open connects with gorm, retrying while the database comes up
func Open(opts Options, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	}
	if opts.Debug {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	attempts := opts.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}

	var db *gorm.DB
	for i := 1; i <= attempts; i++ {
		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			break
		}
		if log != nil {
			log.Warn("Database not ready",
				zap.String("driver", opts.Driver),
				zap.Int("attempt", i),
				zap.Error(err),
			)
		}
		if i < attempts {
			time.Sleep(time.Duration(i) * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	if opts.MaxConnections > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxConnections)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.MaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.MaxLifetime)
	}

	return db, nil
}

// OpenMemory opens a private in-memory sqlite database named after name
func OpenMemory(name string) (*gorm.DB, error) {
	return Open(Options{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, nil)
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres", "":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
