package usecase

import (
	"context"
	"fmt"
	"time"

	"telegram-notify-bot/internal/domain/dateutil"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/repository"
	"telegram-notify-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ QueryUseCase = (*queryUC)(nil)

type QueryUseCase interface {
	// FindMatchingEvents returns one-off events on referenceDate and recurring
	// events whose window contains it. With halfDay only events in the current
	// hour's half-day bucket are kept.
	FindMatchingEvents(ctx context.Context, referenceDate time.Time, halfDay bool) ([]*model.Event, error)
	// FindMatchingBirthdays returns persons whose birthday equals a DD.MM reference.
	FindMatchingBirthdays(ctx context.Context, dayMonth string) ([]*model.Person, error)
}

type queryUC struct {
	events  repository.EventRepository
	persons repository.PersonRepository
	clock   dateutil.Clock
	log     *zerolog.Logger
}

func NewQueryUseCase(events repository.EventRepository, persons repository.PersonRepository, clock dateutil.Clock, logger *zerolog.Logger) *queryUC {
	return &queryUC{events: events, persons: persons, clock: clock, log: logger}
}

func (u *queryUC) FindMatchingEvents(ctx context.Context, referenceDate time.Time, halfDay bool) ([]*model.Event, error) {
	defer logging.TraceDuration(u.log, "QueryUC.FindMatchingEvents")()

	ref := dateutil.FormatDayMonthYear(referenceDate)
	candidates, err := u.events.FindByDateOrRecurringWindow(ctx, repository.NoTX, ref)
	if err != nil {
		return nil, fmt.Errorf("find events for %s: %w", ref, err)
	}

	matched := make([]*model.Event, 0, len(candidates))
	for _, e := range candidates {
		ok, err := e.OccursOn(ref)
		if err != nil {
			u.log.Warn().Err(err).Str("event_id", e.ID).Msg("skipping event with malformed window")
			continue
		}
		if ok {
			matched = append(matched, e)
		}
	}
	if !halfDay {
		return matched, nil
	}

	bucket := dateutil.HalfDayBucket(u.clock.Now().Hour())
	out := matched[:0]
	for _, e := range matched {
		hour, ok := dateutil.ParseHour(e.StartTime)
		if !ok {
			continue
		}
		if dateutil.HalfDayBucket(hour) == bucket {
			out = append(out, e)
		}
	}
	return out, nil
}

func (u *queryUC) FindMatchingBirthdays(ctx context.Context, dayMonth string) ([]*model.Person, error) {
	defer logging.TraceDuration(u.log, "QueryUC.FindMatchingBirthdays")()

	people, err := u.persons.FindWithBirthdaySet(ctx, repository.NoTX)
	if err != nil {
		return nil, fmt.Errorf("find birthdays for %s: %w", dayMonth, err)
	}
	var out []*model.Person
	for _, p := range people {
		if p.BirthdayOn(dayMonth) {
			out = append(out, p)
		}
	}
	return out, nil
}
