package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/caselaw-ingest/internal/entity"
	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
)

const sqliteScheme = "sqlite://"

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// Store bundles the gorm handle with the pgx pool backing it, if any.
type Store struct {
	DB   *gorm.DB
	pool *pgxpool.Pool
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}
}

// Open connects using cfg.DSN. A "sqlite://<path>" DSN opens an embedded
// database; anything else is treated as a PostgreSQL connection string.
func Open(ctx context.Context, cfg Config, logger *logger.Logger) (*Store, error) {
	if path, ok := strings.CutPrefix(cfg.DSN, sqliteScheme); ok {
		db, err := OpenSQLite(path, logger)
		if err != nil {
			return nil, err
		}
		return &Store{DB: db}, nil
	}
	return OpenPostgres(ctx, cfg, logger)
}

// OpenPostgres creates a pgx pool, wraps it for gorm, and returns both.
func OpenPostgres(ctx context.Context, cfg Config, logger *logger.Logger) (*Store, error) {
	logger.Info("connecting to database", "driver", "postgres")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database dsn", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "caselaw-ingest"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	// Wrap pool as *sql.DB for gorm
	sqlDB := stdlib.OpenDBFromPool(pool)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig())
	if err != nil {
		pool.Close()
		logger.Error("failed to open gorm over pool", "error", err)
		return nil, err
	}

	logger.Info("successfully connected to database")
	return &Store{DB: db, pool: pool}, nil
}

// OpenSQLite opens (creating if needed) a SQLite database file with foreign
// keys enforced.
func OpenSQLite(path string, logger *logger.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	logger.Info("connecting to database", "driver", "sqlite", "path", path)

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, gormConfig())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// single writer; keeps savepoints and reads on the same connection
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate creates or updates the ingestion tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(
		&entity.MetadataRaw{},
		&entity.RawDocument{},
		&entity.Document{},
		&entity.Chunk{},
		&entity.MetadataChunk{},
	)
}

// Close closes the database connections gracefully
func (s *Store) Close(logger *logger.Logger) {
	logger.Info("closing database connections")
	if s.DB != nil {
		if sqlDB, err := s.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Error("failed to close database handle", "error", err)
			}
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (s *Store) HealthCheck(ctx context.Context, timeout time.Duration, logger *logger.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if s.pool != nil {
		if err := s.pool.Ping(ctx); err != nil {
			return err
		}
	} else {
		sqlDB, err := s.DB.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return err
		}
	}
	logger.Debug("database ping successful")
	return nil
}
