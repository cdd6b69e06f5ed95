package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"item-service/internal/config"
	"item-service/internal/domain/shared"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

const defaultProbeTimeout = 2 * time.Second

// Connection owns the pooled connection to the relational store
type Connection struct {
	db           *sql.DB
	dialect      Dialect
	probeTimeout time.Duration
	logger       zerolog.Logger
}

type ConnectionParams struct {
	Config config.DatabaseConfig
	Logger zerolog.Logger
}

// NewConnection opens the pool and verifies the store is reachable
func NewConnection(ctx context.Context, params ConnectionParams) (*Connection, error) {
	cfg := params.Config

	dsn, err := DataSourceName(cfg)
	if err != nil {
		return nil, err
	}

	dialect := Dialect(cfg.Driver)
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(cfg.MaxOpenConns())
	db.SetMaxIdleConns(cfg.PoolSize)
	db.SetConnMaxLifetime(cfg.PoolRecycle)
	db.SetConnMaxIdleTime(cfg.PoolRecycle)

	// Test the connection
	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", shared.ErrDatabaseConnection, err)
	}

	conn := WrapDB(db, dialect, cfg.ProbeTimeout, params.Logger)
	conn.logger.Info().
		Str("driver", cfg.Driver).
		Str("address", cfg.Address()).
		Int("max_open_conns", cfg.MaxOpenConns()).
		Int("max_idle_conns", cfg.PoolSize).
		Dur("conn_max_lifetime", cfg.PoolRecycle).
		Msg("Database connection pool ready")

	return conn, nil
}

// WrapDB adopts an already opened pool
func WrapDB(db *sql.DB, dialect Dialect, probeTimeout time.Duration, logger zerolog.Logger) *Connection {
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	return &Connection{
		db:           db,
		dialect:      dialect,
		probeTimeout: probeTimeout,
		logger:       logger.With().Str("component", "db_connection").Logger(),
	}
}

// GetDB returns the underlying sql.DB instance
func (client *Connection) GetDB() *sql.DB {
	return client.db
}

// Dialect returns the SQL dialect of the store
func (client *Connection) Dialect() Dialect {
	return client.dialect
}

// Exec runs a statement outside of an explicit transaction
func (client *Connection) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return client.db.ExecContext(ctx, client.dialect.Rebind(query), args...)
}

// Probe runs a no-op query with a short timeout. Any failure, including a
// timeout or a refused connection, is reported as false.
func (client *Connection) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, client.probeTimeout)
	defer cancel()

	var one int
	if err := client.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		stats := client.Stats()
		client.logger.Warn().
			Err(err).
			Int("open_connections", stats.OpenConnections).
			Int("in_use", stats.InUse).
			Int64("wait_count", stats.WaitCount).
			Msg("Database probe failed")
		return false
	}
	return true
}

// Stats exposes the pool statistics
func (client *Connection) Stats() sql.DBStats {
	return client.db.Stats()
}

// Close closes the database connection
func (client *Connection) Close() error {
	return client.db.Close()
}

// BeginTransaction starts a new database transaction
func (client *Connection) BeginTransaction(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := client.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %v", shared.ErrDatabaseTransaction, err)
	}
	return tx, nil
}

// ExecuteTransaction executes a function within a transaction
func (client *Connection) ExecuteTransaction(ctx context.Context, opts *sql.TxOptions, fn func(*sql.Tx) error) error {
	tx, err := client.BeginTransaction(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", shared.ErrDatabaseTransaction, err)
	}

	return nil
}
