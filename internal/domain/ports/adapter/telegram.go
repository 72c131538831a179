// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"

	"telegram-notify-bot/internal/domain/model"
)

type ParseMode string

const (
	ParseModePlain ParseMode = ""
	ParseModeHTML  ParseMode = "HTML"
)

type SendMessageParams struct {
	ChatID    model.ChatID
	Text      string
	ParseMode ParseMode
}

// MessageSender delivers one chat message. Implementations map the canonical
// chat id to the transport's addressing.
type MessageSender interface {
	SendMessage(ctx context.Context, params SendMessageParams) error
}
