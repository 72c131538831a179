package application

import (
	"context"
	"fmt"
	"time"

	"telegram-notify-bot/internal/domain/dateutil"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/infra/logging"
	"telegram-notify-bot/internal/infra/metrics"
	"telegram-notify-bot/internal/usecase"

	"github.com/rs/zerolog"
)

var _ Triggers = (*NotifyFacade)(nil)

type BirthdayMode string

const (
	BirthdayModeGroup      BirthdayMode = "group"
	BirthdayModeIndividual BirthdayMode = "individual"
	BirthdayModeBoth       BirthdayMode = "both"
)

// CheckResult is returned to every trigger source; HTTP hooks encode it as JSON.
type CheckResult struct {
	Check     string `json:"check"`
	Reference string `json:"reference"`
	Matched   int    `json:"matched"`
	usecase.Report
}

type NotifySettings struct {
	GroupChat          model.ChatID
	StatusChat         model.ChatID
	BirthdayMode       BirthdayMode
	BirthdayOffsetDays int
	EventOffsetDays    int
}

// NotifyFacade composes query and dispatch into the notification checks.
type NotifyFacade struct {
	query    QueryUseCaseIface
	dispatch DispatchUseCaseIface
	clock    dateutil.Clock
	cfg      NotifySettings
	log      *zerolog.Logger
}

func NewNotifyFacade(query QueryUseCaseIface, dispatch DispatchUseCaseIface, clock dateutil.Clock, cfg NotifySettings, logger *zerolog.Logger) *NotifyFacade {
	if cfg.BirthdayMode == "" {
		cfg.BirthdayMode = BirthdayModeGroup
	}
	return &NotifyFacade{query: query, dispatch: dispatch, clock: clock, cfg: cfg, log: logger}
}

// BirthdayCheck notifies about persons whose birthday falls on today plus the
// configured offset.
func (f *NotifyFacade) BirthdayCheck(ctx context.Context) (CheckResult, error) {
	defer f.observe(ctx, "birthday")()

	ref := dateutil.FormatDayMonth(f.clock.Now().AddDate(0, 0, f.cfg.BirthdayOffsetDays))
	res := CheckResult{Check: "birthday", Reference: ref}

	people, err := f.query.FindMatchingBirthdays(ctx, ref)
	if err != nil {
		return res, fmt.Errorf("birthday check: %w", err)
	}
	res.Matched = len(people)

	if f.cfg.BirthdayMode == BirthdayModeGroup || f.cfg.BirthdayMode == BirthdayModeBoth {
		rep, err := f.dispatch.NotifyGroup(ctx, people, ref, f.cfg.GroupChat, f.cfg.StatusChat)
		if err != nil {
			return res, fmt.Errorf("notify group: %w", err)
		}
		metrics.AddNotifications("birthday_group", rep.Sent, rep.Failed)
		res.merge(rep)
	}
	if f.cfg.BirthdayMode == BirthdayModeIndividual || f.cfg.BirthdayMode == BirthdayModeBoth {
		rep, err := f.dispatch.NotifyAllUsersIndividually(ctx, people, ref, f.cfg.StatusChat)
		if err != nil {
			return res, fmt.Errorf("notify individually: %w", err)
		}
		metrics.AddNotifications("birthday_individual", rep.Sent, rep.Failed)
		res.merge(rep)
	}
	return res, nil
}

// EventCheck notifies the group about today's meetings, optionally limited to
// the current half of the day.
func (f *NotifyFacade) EventCheck(ctx context.Context, halfDay bool) (CheckResult, error) {
	check := "events"
	if halfDay {
		check = "events_half"
	}
	defer f.observe(ctx, check)()

	day := f.clock.Now().AddDate(0, 0, f.cfg.EventOffsetDays)
	res := CheckResult{Check: check, Reference: dateutil.FormatDayMonthYear(day)}

	events, err := f.query.FindMatchingEvents(ctx, day, halfDay)
	if err != nil {
		return res, fmt.Errorf("event check: %w", err)
	}
	res.Matched = len(events)

	rep, err := f.dispatch.DispatchEvents(ctx, events, f.cfg.GroupChat, f.cfg.StatusChat)
	if err != nil {
		return res, fmt.Errorf("dispatch events: %w", err)
	}
	metrics.AddNotifications("events", rep.Sent, rep.Failed)
	res.merge(rep)
	return res, nil
}

func (r *CheckResult) merge(rep usecase.Report) {
	r.Sent += rep.Sent
	r.Failed += rep.Failed
	r.Recipients += rep.Recipients
}

func (f *NotifyFacade) observe(ctx context.Context, check string) func() {
	start := time.Now()
	source := logging.Trigger(ctx)
	metrics.IncDispatchRun(check, source)
	return func() {
		metrics.ObserveDispatchDuration(check, time.Since(start).Seconds())
		logging.With(ctx, f.log).Info().Str("check", check).Dur("took", time.Since(start)).Msg("check finished")
	}
}
