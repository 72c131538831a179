package application

import (
	"context"
	"time"

	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/usecase"
)

// ---- small interfaces to decouple the facade from concrete usecase structs ----

type QueryUseCaseIface interface {
	FindMatchingEvents(ctx context.Context, referenceDate time.Time, halfDay bool) ([]*model.Event, error)
	FindMatchingBirthdays(ctx context.Context, dayMonth string) ([]*model.Person, error)
}

type DispatchUseCaseIface interface {
	DispatchEvents(ctx context.Context, events []*model.Event, primary, status model.ChatID) (usecase.Report, error)
	NotifyGroup(ctx context.Context, people []*model.Person, dayMonth string, destination, status model.ChatID) (usecase.Report, error)
	NotifyAllUsersIndividually(ctx context.Context, owners []*model.Person, dayMonth string, status model.ChatID) (usecase.Report, error)
}

// Triggers is what commands, HTTP hooks and cron jobs call.
type Triggers interface {
	BirthdayCheck(ctx context.Context) (CheckResult, error)
	EventCheck(ctx context.Context, halfDay bool) (CheckResult, error)
}
