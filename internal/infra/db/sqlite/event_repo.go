package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"telegram-notify-bot/internal/domain"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/repository"
)

var _ repository.EventRepository = (*EventRepo)(nil)

type EventRepo struct{ db *DB }

func NewEventRepo(db *DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `id, title, guests, start_date, start_time, kind, location, recurring, end_date, created_by, created_at`

func (r *EventRepo) Create(ctx context.Context, tx repository.Tx, e *model.Event) error {
	exec, err := getExecutor(r.db, tx)
	if err != nil {
		return err
	}
	guests := e.Guests
	if guests == nil {
		guests = []string{}
	}
	raw, err := json.Marshal(guests)
	if err != nil {
		return err
	}
	var end sql.NullString
	if e.Recurring && e.EndDate != "" {
		end = sql.NullString{String: e.EndDate, Valid: true}
	}
	res, err := exec.ExecContext(ctx, `
        INSERT INTO events (`+eventColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT(id) DO NOTHING`,
		e.ID, e.Title, string(raw), e.StartDate, e.StartTime, e.Kind, e.Location,
		e.Recurring, end, string(e.CreatedBy), e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *EventRepo) FindByDateOrRecurringWindow(ctx context.Context, tx repository.Tx, date string) ([]*model.Event, error) {
	return r.list(ctx, tx, `SELECT `+eventColumns+` FROM events WHERE start_date=? OR recurring=1 ORDER BY seq`, date)
}

func (r *EventRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Event, error) {
	return r.list(ctx, tx, `SELECT `+eventColumns+` FROM events ORDER BY seq`)
}

func (r *EventRepo) list(ctx context.Context, tx repository.Tx, q string, args ...any) ([]*model.Event, error) {
	exec, err := getExecutor(r.db, tx)
	if err != nil {
		return nil, err
	}
	rows, err := exec.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var res []*model.Event
	for rows.Next() {
		var (
			e         model.Event
			guests    string
			end       sql.NullString
			createdBy string
			created   int64
		)
		if err := rows.Scan(&e.ID, &e.Title, &guests, &e.StartDate, &e.StartTime, &e.Kind, &e.Location,
			&e.Recurring, &end, &createdBy, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(guests), &e.Guests); err != nil {
			return nil, fmt.Errorf("event %s guests: %w", e.ID, err)
		}
		e.EndDate = end.String
		e.CreatedBy = model.ChatID(createdBy)
		e.CreatedAt = time.Unix(0, created).UTC()
		res = append(res, &e)
	}
	return res, rows.Err()
}
