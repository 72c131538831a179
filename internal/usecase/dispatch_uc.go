package usecase

import (
	"context"
	"fmt"
	"time"

	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/adapter"
	"telegram-notify-bot/internal/domain/ports/repository"
	"telegram-notify-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ DispatchUseCase = (*dispatchUC)(nil)

// Report counts the outcome of one dispatch run. Recipients is the number of
// distinct chats that received at least one message.
type Report struct {
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
	Recipients int `json:"recipients"`
}

type DispatchUseCase interface {
	DispatchEvents(ctx context.Context, events []*model.Event, primary, status model.ChatID) (Report, error)
	// NotifyGroup posts one greeting per person to destination.
	NotifyGroup(ctx context.Context, people []*model.Person, dayMonth string, destination, status model.ChatID) (Report, error)
	// NotifyAllUsersIndividually messages every registered person who is not
	// one of the owners.
	NotifyAllUsersIndividually(ctx context.Context, owners []*model.Person, dayMonth string, status model.ChatID) (Report, error)
}

type DispatchOptions struct {
	// Pace is the pause between two sends; zero sends back to back.
	Pace       time.Duration
	Collection CollectionInfo
}

type dispatchUC struct {
	sender  adapter.MessageSender
	persons repository.PersonRepository
	opts    DispatchOptions
	log     *zerolog.Logger
}

func NewDispatchUseCase(sender adapter.MessageSender, persons repository.PersonRepository, opts DispatchOptions, logger *zerolog.Logger) *dispatchUC {
	return &dispatchUC{sender: sender, persons: persons, opts: opts, log: logger}
}

func (u *dispatchUC) DispatchEvents(ctx context.Context, events []*model.Event, primary, status model.ChatID) (Report, error) {
	defer logging.TraceDuration(u.log, "DispatchUC.DispatchEvents")()
	log := logging.With(ctx, u.log)

	var rep Report
	for i, e := range events {
		u.pace(ctx, i)
		if err := u.sendHTML(ctx, primary, RenderEvent(e)); err != nil {
			rep.Failed++
			log.Warn().Err(err).Str("event_id", e.ID).Msg("event notice failed")
			continue
		}
		rep.Sent++
	}
	if rep.Sent > 0 {
		rep.Recipients = 1
	}

	summary := msgNoMeetings
	if len(events) > 0 {
		summary = withFailures(fmt.Sprintf(msgEventsSummary, rep.Sent), rep.Failed)
	}
	u.status(ctx, status, summary)
	log.Info().Int("matched", len(events)).Int("sent", rep.Sent).Int("failed", rep.Failed).Msg("event dispatch finished")
	return rep, nil
}

func (u *dispatchUC) NotifyGroup(ctx context.Context, people []*model.Person, dayMonth string, destination, status model.ChatID) (Report, error) {
	defer logging.TraceDuration(u.log, "DispatchUC.NotifyGroup")()
	log := logging.With(ctx, u.log)

	var rep Report
	for i, p := range people {
		u.pace(ctx, i)
		if err := u.sendHTML(ctx, destination, RenderBirthday(p, dayMonth)); err != nil {
			rep.Failed++
			log.Warn().Err(err).Str("chat_id", p.ChatID.String()).Msg("birthday greeting failed")
			continue
		}
		rep.Sent++
	}
	if rep.Sent > 0 {
		rep.Recipients = 1
	}

	summary := fmt.Sprintf(msgNoBirthdays, dayMonth)
	if len(people) > 0 {
		summary = withFailures(fmt.Sprintf(msgBirthdaySummary, dayMonth, rep.Sent), rep.Failed)
	}
	u.status(ctx, status, summary)
	log.Info().Int("matched", len(people)).Int("sent", rep.Sent).Int("failed", rep.Failed).Msg("group birthday dispatch finished")
	return rep, nil
}

func (u *dispatchUC) NotifyAllUsersIndividually(ctx context.Context, owners []*model.Person, dayMonth string, status model.ChatID) (Report, error) {
	defer logging.TraceDuration(u.log, "DispatchUC.NotifyAllUsersIndividually")()
	log := logging.With(ctx, u.log)

	if len(owners) == 0 {
		u.status(ctx, status, fmt.Sprintf(msgNoBirthdays, dayMonth))
		return Report{}, nil
	}

	everyone, err := u.persons.List(ctx, repository.NoTX)
	if err != nil {
		return Report{}, fmt.Errorf("list persons: %w", err)
	}
	isOwner := make(map[model.ChatID]struct{}, len(owners))
	for _, o := range owners {
		isOwner[o.ChatID] = struct{}{}
	}

	var rep Report
	notified := make(map[model.ChatID]struct{})
	n := 0
	for _, owner := range owners {
		text := RenderIndividualNotice(owner, dayMonth, u.opts.Collection)
		for _, p := range everyone {
			if _, skip := isOwner[p.ChatID]; skip {
				continue
			}
			u.pace(ctx, n)
			n++
			if err := u.sendHTML(ctx, p.ChatID, text); err != nil {
				rep.Failed++
				log.Warn().Err(err).Str("chat_id", p.ChatID.String()).Msg("individual birthday notice failed")
				continue
			}
			rep.Sent++
			notified[p.ChatID] = struct{}{}
		}
	}
	rep.Recipients = len(notified)

	u.status(ctx, status, withFailures(fmt.Sprintf(msgIndividualCount, dayMonth, rep.Recipients), rep.Failed))
	log.Info().Int("owners", len(owners)).Int("recipients", rep.Recipients).Int("failed", rep.Failed).Msg("individual birthday dispatch finished")
	return rep, nil
}

func (u *dispatchUC) sendHTML(ctx context.Context, chatID model.ChatID, text string) error {
	return u.sender.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text, ParseMode: adapter.ParseModeHTML})
}

// status sends a summary line; a failure here is only logged.
func (u *dispatchUC) status(ctx context.Context, chatID model.ChatID, text string) {
	if chatID == "" {
		return
	}
	if err := u.sender.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		u.log.Warn().Err(err).Str("chat_id", chatID.String()).Msg("status summary failed")
	}
}

func (u *dispatchUC) pace(ctx context.Context, i int) {
	if i == 0 || u.opts.Pace <= 0 {
		return
	}
	t := time.NewTimer(u.opts.Pace)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
