package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"telegram-notify-bot/internal/domain"
	"telegram-notify-bot/internal/domain/dateutil"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/adapter"
	"telegram-notify-bot/internal/domain/ports/repository"
	"telegram-notify-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ IntakeUseCase = (*intakeUC)(nil)

// Outcome describes what a single intake message did to the draft.
type Outcome string

const (
	OutcomeIgnored    Outcome = "ignored"
	OutcomeStarted    Outcome = "started"
	OutcomeAdvanced   Outcome = "advanced"
	OutcomeRejected   Outcome = "rejected"
	OutcomeSaved      Outcome = "saved"
	OutcomeSaveFailed Outcome = "save_failed"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeStopped    Outcome = "stopped"
	OutcomeDenied     Outcome = "denied"
)

// IntakeUseCase drives the per-chat event creation conversation.
type IntakeUseCase interface {
	// Start opens a fresh draft, replacing any existing one.
	Start(ctx context.Context, chatID model.ChatID) (Outcome, error)
	// Handle feeds one inbound message to the chat's draft. Chats without a
	// draft are ignored.
	Handle(ctx context.Context, chatID model.ChatID, text string) (Outcome, error)
	// Cancel discards the chat's draft from any step. Chats without a draft
	// are ignored.
	Cancel(ctx context.Context, chatID model.ChatID) (Outcome, error)
}

type intakeUC struct {
	drafts repository.DraftStore
	events repository.EventRepository
	access adapter.AccessControl
	sender adapter.MessageSender
	clock  dateutil.Clock
	log    *zerolog.Logger
}

func NewIntakeUseCase(
	drafts repository.DraftStore,
	events repository.EventRepository,
	access adapter.AccessControl,
	sender adapter.MessageSender,
	clock dateutil.Clock,
	logger *zerolog.Logger,
) *intakeUC {
	return &intakeUC{
		drafts: drafts,
		events: events,
		access: access,
		sender: sender,
		clock:  clock,
		log:    logger,
	}
}

func (u *intakeUC) Start(ctx context.Context, chatID model.ChatID) (Outcome, error) {
	defer logging.TraceDuration(u.log, "IntakeUC.Start")()

	if !u.access.IsAuthorized(ctx, chatID, adapter.ActionIntake) {
		if err := u.drafts.Delete(ctx, chatID); err != nil {
			u.log.Warn().Err(err).Str("chat_id", chatID.String()).Msg("discard draft failed")
		}
		u.reply(ctx, chatID, msgPermissionDenied)
		return OutcomeDenied, nil
	}

	d := model.NewDraft(chatID)
	d.UpdatedAt = u.clock.Now()
	if err := u.drafts.Save(ctx, d); err != nil {
		return OutcomeIgnored, fmt.Errorf("start intake: %w", err)
	}
	u.reply(ctx, chatID, msgPromptTitle)
	return OutcomeStarted, nil
}

func (u *intakeUC) Handle(ctx context.Context, chatID model.ChatID, text string) (Outcome, error) {
	defer logging.TraceDuration(u.log, "IntakeUC.Handle")()

	d, err := u.drafts.Get(ctx, chatID)
	if errors.Is(err, domain.ErrNotFound) {
		return OutcomeIgnored, nil
	}
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("load draft: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == TokenStop {
		return u.discard(ctx, d, OutcomeStopped, msgIntakeStopped)
	}
	if !u.access.IsAuthorized(ctx, chatID, adapter.ActionIntake) {
		return u.discard(ctx, d, OutcomeDenied, msgPermissionDenied)
	}
	if d.Step != model.StepAwaitConfirm && strings.HasPrefix(text, "/") {
		return OutcomeIgnored, nil
	}

	switch d.Step {
	case model.StepAwaitTitle:
		if text == "" {
			return u.reject(ctx, d, msgPromptTitle)
		}
		d.Event.Title = text
		return u.advance(ctx, d, model.StepAwaitGuests, msgPromptGuests)

	case model.StepAwaitGuests:
		d.Event.Guests = model.ParseGuests(text)
		return u.advance(ctx, d, model.StepAwaitDate, msgPromptDate)

	case model.StepAwaitDate:
		if !dateutil.IsValidDateString(text) {
			return u.reject(ctx, d, msgInvalidDate)
		}
		d.Event.StartDate = text
		return u.advance(ctx, d, model.StepAwaitTime, msgPromptTime)

	case model.StepAwaitTime:
		if !dateutil.IsValidTimeString(text) {
			return u.reject(ctx, d, msgInvalidTime)
		}
		d.Event.StartTime = text
		return u.advance(ctx, d, model.StepAwaitRecurring, msgPromptRecurring)

	case model.StepAwaitRecurring:
		if text == "1" {
			d.Event.Recurring = true
			return u.advance(ctx, d, model.StepAwaitEndDate, msgPromptEndDate)
		}
		d.Event.Recurring = false
		d.Event.EndDate = ""
		return u.advance(ctx, d, model.StepAwaitKind, msgPromptKind)

	case model.StepAwaitEndDate:
		if !dateutil.IsValidDateString(text) {
			return u.reject(ctx, d, msgInvalidDate)
		}
		ok, err := dateutil.InWindow(d.Event.StartDate, d.Event.StartDate, text)
		if err != nil || !ok {
			return u.reject(ctx, d, fmt.Sprintf(msgEndBeforeStart, d.Event.StartDate))
		}
		d.Event.EndDate = text
		return u.advance(ctx, d, model.StepAwaitKind, msgPromptKind)

	case model.StepAwaitKind:
		d.Event.Kind = text
		return u.advance(ctx, d, model.StepAwaitLocation, msgPromptLocation)

	case model.StepAwaitLocation:
		d.Event.Location = text
		d.Step = model.StepAwaitConfirm
		d.UpdatedAt = u.clock.Now()
		if err := u.drafts.Save(ctx, d); err != nil {
			return OutcomeIgnored, fmt.Errorf("save draft: %w", err)
		}
		u.replyHTML(ctx, d.ChatID, renderPreview(&d.Event))
		return OutcomeAdvanced, nil

	case model.StepAwaitConfirm:
		switch text {
		case TokenConfirm:
			return u.confirm(ctx, d)
		case TokenCancel:
			return u.discard(ctx, d, OutcomeCancelled, msgEventDiscarded)
		}
		return u.reject(ctx, d, msgConfirmUsage)
	}

	// unknown step from a stale store; start over
	u.log.Warn().Str("chat_id", chatID.String()).Int("step", int(d.Step)).Msg("draft in unknown step, discarding")
	return u.discard(ctx, d, OutcomeStopped, msgIntakeStopped)
}

func (u *intakeUC) Cancel(ctx context.Context, chatID model.ChatID) (Outcome, error) {
	defer logging.TraceDuration(u.log, "IntakeUC.Cancel")()

	d, err := u.drafts.Get(ctx, chatID)
	if errors.Is(err, domain.ErrNotFound) {
		return OutcomeIgnored, nil
	}
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("load draft: %w", err)
	}
	return u.discard(ctx, d, OutcomeCancelled, msgEventDiscarded)
}

func (u *intakeUC) confirm(ctx context.Context, d *model.ConversationDraft) (Outcome, error) {
	ev := d.Event
	ev.ID = model.NewEventID()
	ev.CreatedBy = d.ChatID
	ev.CreatedAt = u.clock.Now()
	if ev.Guests == nil {
		ev.Guests = []string{}
	}

	if err := u.events.Create(ctx, repository.NoTX, &ev); err != nil {
		// draft stays so the user can retry /confirm
		u.log.Error().Err(err).Str("chat_id", d.ChatID.String()).Msg("persist event failed")
		u.reply(ctx, d.ChatID, msgSaveFailed)
		return OutcomeSaveFailed, nil
	}
	if err := u.drafts.Delete(ctx, d.ChatID); err != nil {
		u.log.Warn().Err(err).Str("chat_id", d.ChatID.String()).Msg("clear draft failed")
	}
	u.log.Info().Str("chat_id", d.ChatID.String()).Str("event_id", ev.ID).Str("title", ev.Title).Msg("event created")
	u.reply(ctx, d.ChatID, msgEventSaved)
	return OutcomeSaved, nil
}

func (u *intakeUC) advance(ctx context.Context, d *model.ConversationDraft, next model.Step, prompt string) (Outcome, error) {
	d.Step = next
	d.UpdatedAt = u.clock.Now()
	if err := u.drafts.Save(ctx, d); err != nil {
		return OutcomeIgnored, fmt.Errorf("save draft: %w", err)
	}
	u.reply(ctx, d.ChatID, prompt)
	return OutcomeAdvanced, nil
}

func (u *intakeUC) reject(ctx context.Context, d *model.ConversationDraft, prompt string) (Outcome, error) {
	u.reply(ctx, d.ChatID, prompt)
	return OutcomeRejected, nil
}

func (u *intakeUC) discard(ctx context.Context, d *model.ConversationDraft, outcome Outcome, notice string) (Outcome, error) {
	if err := u.drafts.Delete(ctx, d.ChatID); err != nil {
		return OutcomeIgnored, fmt.Errorf("discard draft: %w", err)
	}
	u.reply(ctx, d.ChatID, notice)
	return outcome, nil
}

func (u *intakeUC) reply(ctx context.Context, chatID model.ChatID, text string) {
	u.send(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text})
}

func (u *intakeUC) replyHTML(ctx context.Context, chatID model.ChatID, text string) {
	u.send(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text, ParseMode: adapter.ParseModeHTML})
}

func (u *intakeUC) send(ctx context.Context, p adapter.SendMessageParams) {
	if err := u.sender.SendMessage(ctx, p); err != nil {
		u.log.Warn().Err(err).Str("chat_id", p.ChatID.String()).Msg("intake reply failed")
	}
}
