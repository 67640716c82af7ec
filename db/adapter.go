package db

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kasuganosora/my2dworld/config"
	dbmysql "github.com/kasuganosora/my2dworld/db/mysql"
	dbsqlite "github.com/kasuganosora/my2dworld/db/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ModeMemory = "memory"
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
)

// Open returns a *gorm.DB for the configured database mode. Failed and slow
// queries are reported on log; a nil log silences gorm.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	gl := NewLogger(log, cfg.SlowThreshold)
	switch cfg.Mode {
	case ModeMemory:
		// Each memory database gets its own name so parallel opens never share state.
		db, err := dbsqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), gl)
		if err != nil {
			return nil, err
		}
		// Shared-cache connections report SQLITE_LOCKED on concurrent writes
		// instead of waiting, so memory mode uses a single connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	case ModeSQLite:
		dsn := cfg.SQLitePath
		if !strings.Contains(dsn, "?") {
			dsn += "?_busy_timeout=5000&_journal_mode=WAL"
		}
		return dbsqlite.Open(dsn, gl)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, dbmysql.Pool{
			MaxOpen: cfg.MySQLMaxOpen,
			MaxIdle: cfg.MySQLMaxIdle,
			MaxLife: cfg.MySQLMaxLife,
		}, gl)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
