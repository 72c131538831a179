package telegram

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-notify-bot/internal/domain/ports/adapter"
)

var _ adapter.MessageSender = (*NoopBotAdapter)(nil)

// NoopBotAdapter logs messages instead of sending them. Used when no bot
// token is configured in dev mode.
type NoopBotAdapter struct {
	log   *zerolog.Logger
	delay time.Duration
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	l := logger.With().Str("component", "noop_telegram").Logger()
	return &NoopBotAdapter{log: &l, delay: 100 * time.Millisecond}
}

// SendMessage logs the message and simulates a small delay.
func (b *NoopBotAdapter) SendMessage(ctx context.Context, p adapter.SendMessageParams) error {
	select {
	case <-time.After(b.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	b.log.Info().Str("chat_id", p.ChatID.String()).Str("parse_mode", string(p.ParseMode)).Msg(p.Text)
	return nil
}

func (b *NoopBotAdapter) SetMenuCommands(ctx context.Context) error {
	b.log.Info().Int("commands", len(menuCommands())).Msg("SetMenuCommands called")
	return nil
}
