// Package gormdb implements the dao repository interfaces on a relational
// database through GORM. The driver (mysql or sqlite) is chosen by
// configuration at startup.
package gormdb

import (
	"fmt"

	"klav_chat_server/internal/config"
	"klav_chat_server/internal/model"

	mysqldriver "gorm.io/driver/mysql"
	sqlitedriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Repositories bundles the gorm-backed repository set.
type Repositories struct {
	DB     *gorm.DB
	User   *userRepository
	Room   *roomRepository
	Member *memberRepository
	Log    *logRepository
	Follow *followRepository
}

// Open connects to the configured database, migrates the schema and
// returns the repository set.
func Open(cfg *config.StorageConfig) (*Repositories, error) {
	var dialector gorm.Dialector
	switch cfg.Backend {
	case "sqlite":
		dialector = sqlitedriver.Open(cfg.SqlitePath)
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DatabaseName)
		dialector = mysqldriver.Open(dsn)
	default:
		return nil, fmt.Errorf("gormdb: unsupported backend %q", cfg.Backend)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("gormdb: open: %w", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Room{},
		&model.RoomMember{},
		&model.ChatLog{},
		&model.Follow{},
	); err != nil {
		return nil, fmt.Errorf("gormdb: migrate: %w", err)
	}

	return New(db), nil
}

// New wires the repository set onto an already-open gorm handle.
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:     db,
		User:   &userRepository{db: db},
		Room:   &roomRepository{db: db},
		Member: &memberRepository{db: db},
		Log:    &logRepository{db: db},
		Follow: &followRepository{db: db},
	}
}

// Ping checks connectivity through the underlying sql.DB.
func (r *Repositories) Ping() error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close releases the connection pool.
func (r *Repositories) Close() error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
