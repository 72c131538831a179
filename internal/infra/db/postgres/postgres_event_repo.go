package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-notify-bot/internal/domain"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/repository"
)

var _ repository.EventRepository = (*PostgresEventRepo)(nil)

type PostgresEventRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresEventRepo(pool *pgxpool.Pool) *PostgresEventRepo {
	return &PostgresEventRepo{pool: pool}
}

const eventColumns = `id, title, guests, start_date, start_time, kind, location, recurring, end_date, created_by, created_at`

func (r *PostgresEventRepo) Create(ctx context.Context, tx repository.Tx, e *model.Event) error {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO events (` + eventColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`
	guests := e.Guests
	if guests == nil {
		guests = []string{}
	}
	var end *string
	if e.Recurring && e.EndDate != "" {
		end = &e.EndDate
	}
	_, err = exec.Exec(ctx, q, e.ID, e.Title, guests, e.StartDate, e.StartTime, e.Kind, e.Location,
		e.Recurring, end, string(e.CreatedBy), e.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *PostgresEventRepo) FindByDateOrRecurringWindow(ctx context.Context, tx repository.Tx, date string) ([]*model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE start_date=$1 OR recurring ORDER BY created_at, id;`
	return r.list(ctx, tx, q, date)
}

func (r *PostgresEventRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events ORDER BY created_at, id;`
	return r.list(ctx, tx, q)
}

func (r *PostgresEventRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Event, error) {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := exec.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		e         model.Event
		end       *string
		createdBy string
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Guests, &e.StartDate, &e.StartTime, &e.Kind, &e.Location,
		&e.Recurring, &end, &createdBy, &e.CreatedAt); err != nil {
		return nil, err
	}
	if end != nil {
		e.EndDate = *end
	}
	e.CreatedBy = model.ChatID(createdBy)
	return &e, nil
}
