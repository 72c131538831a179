package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-notify-bot/internal/application"
	"telegram-notify-bot/internal/config"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/adapter"
	"telegram-notify-bot/internal/infra/logging"
	"telegram-notify-bot/internal/infra/metrics"
	red "telegram-notify-bot/internal/infra/redis"
	"telegram-notify-bot/internal/usecase"
)

const (
	msgDenied      = "⛔ You are not allowed to do this."
	msgRateLimited = "⏳ Too many requests. Please try again later."
	msgCheckFailed = "⚠️ The check failed, see the logs for details."
	msgHelp        = "Commands:\n" +
		"/start - register\n" +
		"/newevent - add a meeting\n" +
		"/check - birthday check\n" +
		"/events - today's meetings\n" +
		"/events_half - meetings of the current half-day\n" +
		"/confirm, /cancel, /stop - finish or abort a new meeting"
)

// Inbound is a transport-neutral text message.
type Inbound struct {
	ChatID    model.ChatID
	SenderID  model.ChatID // user who wrote the message; empty when unknown
	FirstName string
	Text      string
	Command   string // without slash and @bot suffix; empty for plain text
}

// Sender is the id permissions are checked against. Replies still go to
// ChatID, which differs from the sender in group chats.
func (in Inbound) Sender() model.ChatID {
	if in.SenderID != "" {
		return in.SenderID
	}
	return in.ChatID
}

// Limiter is satisfied by *redis.RateLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type commandHandler func(ctx context.Context, in Inbound) error

// CommandRouter maps inbound messages onto the use cases.
type CommandRouter struct {
	registration usecase.RegistrationUseCase
	intake       usecase.IntakeUseCase
	triggers     application.Triggers
	access       adapter.AccessControl
	sender       adapter.MessageSender
	limiter      Limiter
	rl           config.RateLimitConfig
	log          *zerolog.Logger
}

func NewCommandRouter(
	registration usecase.RegistrationUseCase,
	intake usecase.IntakeUseCase,
	triggers application.Triggers,
	access adapter.AccessControl,
	sender adapter.MessageSender,
	limiter Limiter,
	rl config.RateLimitConfig,
	logger *zerolog.Logger,
) *CommandRouter {
	l := logger.With().Str("component", "command_router").Logger()
	return &CommandRouter{
		registration: registration,
		intake:       intake,
		triggers:     triggers,
		access:       access,
		sender:       sender,
		limiter:      limiter,
		rl:           rl,
		log:          &l,
	}
}

// commandRoutes defines the bot commands. Anything else goes to intake.
func (r *CommandRouter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":    r.handleStartCommand,
		"newevent": r.handleNewEventCommand,
		"help":     r.handleHelpCommand,

		// trigger commands are guarded and rate limited
		"check":       r.guarded(adapter.ActionBirthdayCheck, r.rateLimited(r.handleCheckCommand)),
		"events":      r.guarded(adapter.ActionEventCheck, r.rateLimited(r.eventCheck(false))),
		"events_half": r.guarded(adapter.ActionEventCheck, r.rateLimited(r.eventCheck(true))),

		// intake tokens are normalised so "/confirm@bot" still matches
		"confirm": r.intakeToken(usecase.TokenConfirm),
		"cancel":  r.handleCancelCommand,
		"stop":    r.intakeToken(usecase.TokenStop),
	}
}

// Route handles one inbound message. Errors are logged by the caller.
func (r *CommandRouter) Route(ctx context.Context, in Inbound) error {
	metrics.IncTelegramUpdate(in.Command)
	if fn, ok := r.commandRoutes()[in.Command]; ok {
		return fn(ctx, in)
	}
	return r.handleIntake(ctx, in, in.Text)
}

func (r *CommandRouter) guarded(action adapter.Action, next commandHandler) commandHandler {
	return func(ctx context.Context, in Inbound) error {
		ok := r.access.IsAuthorized(ctx, in.Sender(), action)
		metrics.IncAccessCheck(string(action), ok)
		if !ok {
			return r.reply(ctx, in.ChatID, msgDenied)
		}
		return next(ctx, in)
	}
}

func (r *CommandRouter) rateLimited(next commandHandler) commandHandler {
	return func(ctx context.Context, in Inbound) error {
		if r.limiter == nil || r.rl.Limit <= 0 {
			return next(ctx, in)
		}
		allowed, err := r.limiter.Allow(ctx, red.CommandKey(in.Sender().String(), in.Command), r.rl.Limit, r.rl.Window)
		if err != nil {
			// fail open when redis is unavailable
			logging.With(ctx, r.log).Warn().Err(err).Msg("rate limit check failed")
			return next(ctx, in)
		}
		if !allowed {
			metrics.IncRateLimited()
			return r.reply(ctx, in.ChatID, msgRateLimited)
		}
		return next(ctx, in)
	}
}

func (r *CommandRouter) handleStartCommand(ctx context.Context, in Inbound) error {
	_, created, err := r.registration.Register(ctx, in.ChatID, in.FirstName)
	if err != nil {
		return err
	}
	if created {
		metrics.IncPersonsRegistered()
	}
	return nil
}

func (r *CommandRouter) handleNewEventCommand(ctx context.Context, in Inbound) error {
	out, err := r.intake.Start(ctx, in.ChatID)
	r.recordIntake(in, out)
	if out == usecase.OutcomeDenied || err == nil {
		metrics.IncAccessCheck(string(adapter.ActionIntake), out != usecase.OutcomeDenied)
	}
	return err
}

func (r *CommandRouter) handleHelpCommand(ctx context.Context, in Inbound) error {
	return r.reply(ctx, in.ChatID, msgHelp)
}

func (r *CommandRouter) handleCheckCommand(ctx context.Context, in Inbound) error {
	res, err := r.triggers.BirthdayCheck(ctx)
	return r.afterCheck(ctx, in, res, err)
}

func (r *CommandRouter) eventCheck(halfDay bool) commandHandler {
	return func(ctx context.Context, in Inbound) error {
		res, err := r.triggers.EventCheck(ctx, halfDay)
		return r.afterCheck(ctx, in, res, err)
	}
}

func (r *CommandRouter) afterCheck(ctx context.Context, in Inbound, res application.CheckResult, err error) error {
	if err != nil {
		_ = r.reply(ctx, in.ChatID, msgCheckFailed)
		return fmt.Errorf("%s: %w", in.Command, err)
	}
	logging.With(ctx, r.log).Info().
		Str("check", res.Check).
		Str("reference", res.Reference).
		Int("matched", res.Matched).
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Msg("check finished")
	return nil
}

func (r *CommandRouter) intakeToken(token string) commandHandler {
	return func(ctx context.Context, in Inbound) error {
		return r.handleIntake(ctx, in, token)
	}
}

func (r *CommandRouter) handleCancelCommand(ctx context.Context, in Inbound) error {
	out, err := r.intake.Cancel(ctx, in.ChatID)
	r.recordIntake(in, out)
	return err
}

func (r *CommandRouter) handleIntake(ctx context.Context, in Inbound, text string) error {
	out, err := r.intake.Handle(ctx, in.ChatID, text)
	r.recordIntake(in, out)
	return err
}

func (r *CommandRouter) recordIntake(in Inbound, out usecase.Outcome) {
	if out == usecase.OutcomeIgnored {
		return
	}
	input := in.Command
	if input == "" {
		input = "text"
	}
	metrics.IncIntakeStep(input, string(out))
	switch out {
	case usecase.OutcomeSaved:
		metrics.IncEventsCreated()
	case usecase.OutcomeCancelled, usecase.OutcomeStopped, usecase.OutcomeDenied:
		metrics.IncIntakeAborted(string(out))
	}
}

func (r *CommandRouter) reply(ctx context.Context, chatID model.ChatID, text string) error {
	return r.sender.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text})
}

// commandName strips the leading slash and an @bot suffix.
func commandName(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name := strings.Fields(text)[0][1:]
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}
