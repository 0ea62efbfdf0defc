// Package store persists users, templates, submissions and session state
// with GORM. Every method maps driver failures onto the package's sentinel
// errors so callers never inspect driver types.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gestorcentros/internal/models"
)

var (
	ErrConnectionUnavailable = errors.New("database unavailable")
	ErrIntegrityViolation    = errors.New("integrity violation")
	ErrNotFound              = errors.New("not found")
	ErrAlreadyExists         = errors.New("already exists")
)

// reconnectBackoff spaces out reconnection attempts while the database is down.
const reconnectBackoff = 2 * time.Second

// Store is safe for concurrent use. The connection is opened lazily: a
// database that is down at startup is retried on the next call.
type Store struct {
	dsn string
	lg  *zap.SugaredLogger

	mu        sync.Mutex
	db        *gorm.DB
	lastTried time.Time
	lastErr   error
}

// Open creates a Store for dsn and makes a first connection attempt. A failed
// attempt is logged, not returned; the store keeps answering
// ErrConnectionUnavailable until the database comes back.
func Open(ctx context.Context, dsn string, lg *zap.SugaredLogger) *Store {
	s := &Store{dsn: dsn, lg: lg}
	if _, err := s.conn(ctx); err != nil {
		lg.Warnw("database not reachable, continuing in degraded mode", "error", err)
	}
	return s
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return classify(err)
	}
	return classify(sqlDB.PingContext(ctx))
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	s.db = nil
	return sqlDB.Close()
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.WithContext(ctx), nil
	}
	if !s.lastTried.IsZero() && time.Since(s.lastTried) < reconnectBackoff {
		return nil, fmt.Errorf("%w: %v", ErrConnectionUnavailable, s.lastErr)
	}
	s.lastTried = time.Now()
	db, err := s.open()
	if err != nil {
		s.lastErr = err
		return nil, fmt.Errorf("%w: %v", ErrConnectionUnavailable, err)
	}
	s.db = db
	s.lastErr = nil
	s.lg.Infow("database connected")
	return s.db.WithContext(ctx), nil
}

func (s *Store) open() (*gorm.DB, error) {
	dialector, memory := dialectorFor(s.dsn)
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(zap.NewStdLog(s.lg.Desugar()), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if memory {
		// every pooled connection to :memory: would otherwise see its own database
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return db, nil
}

// dialectorFor picks SQLite for "sqlite:" URLs and Postgres otherwise.
func dialectorFor(dsn string) (gorm.Dialector, bool) {
	if rest, ok := strings.CutPrefix(dsn, "sqlite:"); ok {
		return sqlite.Open(rest), strings.Contains(rest, ":memory:") || strings.Contains(rest, "mode=memory")
	}
	return postgres.Open(dsn), false
}

// classify maps driver and GORM errors onto the package's sentinels. Errors
// that match none are wrapped unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrConnectionUnavailable), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrIntegrityViolation):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrIntegrityViolation, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrAlreadyExists, pgErr.ConstraintName)
		case "23502", "23503", "23514":
			return fmt.Errorf("%w: %s", ErrIntegrityViolation, pgErr.ConstraintName)
		case "57P01", "57P02", "57P03", "08000", "08003", "08006":
			return fmt.Errorf("%w: %v", ErrConnectionUnavailable, err)
		}
		return fmt.Errorf("store: %w", err)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		if liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
		}
		return fmt.Errorf("%w: %v", ErrIntegrityViolation, err)
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, gorm.ErrInvalidDB) {
		return fmt.Errorf("%w: %v", ErrConnectionUnavailable, err)
	}
	return fmt.Errorf("store: %w", err)
}
