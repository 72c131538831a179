package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-notify-bot/internal/config"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/adapter"
	"telegram-notify-bot/internal/infra/logging"
	"telegram-notify-bot/internal/infra/metrics"
	"telegram-notify-bot/internal/infra/worker"
)

var _ adapter.MessageSender = (*RealTelegramBotAdapter)(nil)

// Router consumes inbound messages; *CommandRouter is the production one.
type Router interface {
	Route(ctx context.Context, in Inbound) error
}

// RealTelegramBotAdapter polls updates and sends messages through tgbotapi.
type RealTelegramBotAdapter struct {
	bot *tgbotapi.BotAPI
	cfg *config.BotConfig
	log *zerolog.Logger

	updateWorkers int

	mu            sync.Mutex
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	l := logger.With().Str("component", "telegram").Str("bot", bot.Self.UserName).Logger()
	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		log:           &l,
		updateWorkers: workers,
	}, nil
}

// StartPolling blocks until ctx is done. Updates of one chat are handled
// sequentially; different chats run in parallel.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context, router Router) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.mu.Lock()
	r.cancelPolling = cancel
	r.mu.Unlock()

	pool := worker.NewPool(r.updateWorkers, 32, r.log)
	pool.Start(ctx)
	defer pool.Stop()

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			in, ok := toInbound(up)
			if !ok {
				continue
			}
			err := pool.Submit(ctx, in.ChatID.String(), func(ctx context.Context) error {
				ctx = logging.WithChatID(ctx, in.ChatID.String())
				ctx = logging.WithTraceID(ctx, ulid.Make().String())
				if err := router.Route(ctx, in); err != nil {
					logging.With(ctx, r.log).Error().Err(err).Str("command", in.Command).Msg("update failed")
				}
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				r.log.Warn().Err(err).Str("chat_id", in.ChatID.String()).Msg("update dropped")
			}
		}
	}
}

// StopPolling may be called from any goroutine, before or after StartPolling.
func (r *RealTelegramBotAdapter) StopPolling() {
	r.mu.Lock()
	cancel := r.cancelPolling
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, p adapter.SendMessageParams) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if _, err := r.bot.Send(newMessage(p)); err != nil {
		metrics.IncSendError()
		return err
	}
	return nil
}

// SetMenuCommands publishes the command list shown in Telegram clients.
func (r *RealTelegramBotAdapter) SetMenuCommands(ctx context.Context) error {
	_, err := r.bot.Request(tgbotapi.NewSetMyCommands(menuCommands()...))
	return err
}

func menuCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Register"},
		{Command: "newevent", Description: "Add a meeting"},
		{Command: "check", Description: "Run the birthday check"},
		{Command: "events", Description: "Announce today's meetings"},
		{Command: "events_half", Description: "Announce this half-day's meetings"},
		{Command: "help", Description: "Show commands"},
	}
}

// newMessage addresses numeric ids directly and anything else as a channel username.
func newMessage(p adapter.SendMessageParams) tgbotapi.MessageConfig {
	var msg tgbotapi.MessageConfig
	if id, ok := p.ChatID.Int64(); ok {
		msg = tgbotapi.NewMessage(id, p.Text)
	} else {
		channel := p.ChatID.String()
		if !strings.HasPrefix(channel, "@") {
			channel = "@" + channel
		}
		msg = tgbotapi.NewMessageToChannel(channel, p.Text)
	}
	msg.ParseMode = string(p.ParseMode)
	msg.DisableWebPagePreview = true
	return msg
}

func toInbound(up tgbotapi.Update) (Inbound, bool) {
	m := up.Message
	if m == nil || m.Chat == nil || strings.TrimSpace(m.Text) == "" {
		return Inbound{}, false
	}
	in := Inbound{
		ChatID: model.ChatIDFromInt64(m.Chat.ID),
		Text:   m.Text,
	}
	if m.From != nil {
		in.SenderID = model.ChatIDFromInt64(m.From.ID)
		in.FirstName = m.From.FirstName
	}
	if in.FirstName == "" {
		in.FirstName = m.Chat.FirstName
	}
	if m.IsCommand() {
		in.Command = strings.ToLower(m.Command())
	} else {
		in.Command = commandName(m.Text)
	}
	return in, true
}
