package storage

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sqliteParams는 SQLite 연결마다 적용되는 pragma입니다. CASCADE 삭제에 foreign key가 필요합니다.
const sqliteParams = "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"

// IsPostgresDSN은 DSN이 PostgreSQL 연결 문자열인지 판별합니다.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// SQLiteDSN은 파일 경로나 SQLite DSN에 필수 pragma를 붙입니다.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys") {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&" + sqliteParams
	}
	return path + "?" + sqliteParams
}

// Open은 DSN 종류에 맞는 드라이버로 데이터베이스를 엽니다.
func Open(cfg Config) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("storage: empty DSN")
	}

	gormCfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(cfg.LogLevel),
		TranslateError: true,
	}

	var (
		db       *gorm.DB
		err      error
		isSQLite = !IsPostgresDSN(cfg.DSN)
	)
	if isSQLite {
		db, err = gorm.Open(sqlite.Open(SQLiteDSN(cfg.DSN)), gormCfg)
	} else {
		db, err = gorm.Open(postgres.Open(cfg.DSN), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("storage: access sql.DB: %w", err)
	}
	if isSQLite {
		// SQLite는 writer가 하나뿐이므로 연결을 하나로 제한합니다.
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// AutoMigrate는 모든 모델의 스키마를 생성하거나 갱신합니다.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Project{}, &AgentMessage{}, &Snapshot{}, &Memory{}); err != nil {
		return fmt.Errorf("storage: auto migrate: %w", err)
	}
	return nil
}

// Close는 내부 연결 풀을 닫습니다.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
