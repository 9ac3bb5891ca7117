// AngelaMos | 2026
// database.go

package core

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/auratrack/auratrack-api/internal/config"
)

const (
	pingTimeout     = 5 * time.Second
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
)

// Database is the process-wide Postgres pool backing users, audit_logs
// and metrics_log.
type Database struct {
	DB *sqlx.DB
}

// NewDatabase opens the pool and waits for Postgres to answer, retrying
// with backoff so the API can start alongside its database container.
func NewDatabase(
	ctx context.Context,
	cfg config.DatabaseConfig,
) (*Database, error) {
	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(withJitter(cfg.ConnMaxLifetime))
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	d := &Database{DB: db}
	if err := retryConnect(ctx, "postgres", d.Ping); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, err
	}

	return d, nil
}

func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func (d *Database) Stats() sql.DBStats {
	return d.DB.Stats()
}

func (d *Database) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

// DBTX lets repositories run against the pool or inside InTx alike.
type DBTX interface {
	sqlx.ExtContext
	sqlx.ExecerContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(
		ctx context.Context,
		dest any,
		query string,
		args ...any,
	) error
}

// InTx commits when fn returns nil and rolls back otherwise, including
// when fn panics.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && err != nil {
			err = fmt.Errorf("%w (rollback: %w)", err, rbErr)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true

	return nil
}

func retryConnect(
	ctx context.Context,
	name string,
	ping func(context.Context) error,
) error {
	delay := connectBackoff

	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = ping(ctx); err == nil {
			return nil
		}

		if attempt == connectAttempts {
			break
		}

		slog.WarnContext(ctx, "dependency not ready, retrying",
			"dependency", name,
			"attempt", attempt,
			"retry_in", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("connect %s: %w", name, ctx.Err())
		case <-time.After(withJitter(delay)):
		}
		delay *= 2
	}

	return fmt.Errorf("connect %s after %d attempts: %w", name, connectAttempts, err)
}

// withJitter spreads pool recycling and retries so instances started
// together do not act in lockstep.
func withJitter(base time.Duration) time.Duration {
	if base <= 0 {
		return base
	}
	//nolint:gosec // G404: jitter is not security sensitive
	return base + time.Duration(rand.Int64N(int64(base/7)+1))
}
