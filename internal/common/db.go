package common

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ficlab/fic-etl/internal/repository"
)

// DBResult bundles the opened handles so callers can defer a single Cleanup.
type DBResult struct {
	DB      *sql.DB
	Pool    *pgxpool.Pool
	Dialect repository.Dialect

	logger *slog.Logger
}

// Cleanup closes the database handles.
func (r *DBResult) Cleanup() {
	repository.Close(r.DB, r.Pool, r.logger)
}

// InitDatabase opens either the configured Postgres pool or, with inmem, an
// in-memory SQLite database. The in-memory path needs no configuration and is
// meant for dry runs and local testing.
func InitDatabase(ctx context.Context, cfg *Config, inmem bool, logger *slog.Logger) (*DBResult, error) {
	if inmem {
		logger.Info("using in-memory SQLite database")
		db, err := repository.OpenInMemory()
		if err != nil {
			return nil, err
		}
		return &DBResult{DB: db, Dialect: repository.SQLite, logger: logger}, nil
	}

	db, pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &DBResult{DB: db, Pool: pool, Dialect: repository.Postgres, logger: logger}, nil
}
