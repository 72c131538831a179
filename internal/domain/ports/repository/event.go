package repository

import (
	"context"

	"telegram-notify-bot/internal/domain/model"
)

// -----------------------------
// Events
// -----------------------------

type EventRepository interface {
	Create(ctx context.Context, tx Tx, e *model.Event) error
	// FindByDateOrRecurringWindow returns events starting on date (DD.MM.YYYY)
	// plus every recurring event, in insertion order. Callers apply the exact
	// window check.
	FindByDateOrRecurringWindow(ctx context.Context, tx Tx, date string) ([]*model.Event, error)
	List(ctx context.Context, tx Tx) ([]*model.Event, error)
}
