// Package db opens the configured storage backend.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-notify-bot/internal/config"
	"telegram-notify-bot/internal/domain/ports/repository"
	pg "telegram-notify-bot/internal/infra/db/postgres"
	"telegram-notify-bot/internal/infra/db/sqlite"
	"telegram-notify-bot/internal/infra/metrics"
)

type Stores struct {
	Persons repository.PersonRepository
	Events  repository.EventRepository
	Tx      repository.TransactionManager

	pool  *pgxpool.Pool
	close func()
}

// Open connects to cfg.Driver and applies the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Stores, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("sqlite %s: %w", cfg.URL, err)
		}
		return &Stores{
			Persons: sqlite.NewPersonRepo(db),
			Events:  sqlite.NewEventRepo(db),
			Tx:      sqlite.NewTxManager(db),
			close:   func() { _ = db.Close() },
		}, nil
	case "postgres":
		pool, err := pg.Connect(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := pg.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		return &Stores{
			Persons: pg.NewPostgresPersonRepo(pool),
			Events:  pg.NewPostgresEventRepo(pool),
			Tx:      pg.NewTxManager(pool),
			pool:    pool,
			close:   pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("database driver %q is not supported", cfg.Driver)
}

func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// ReportPoolStats publishes connection pool gauges until ctx is done. It is a
// no-op for backends without a pool.
func (s *Stores) ReportPoolStats(ctx context.Context, every time.Duration) {
	if s.pool == nil {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			st := s.pool.Stat()
			metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
		}
	}
}
