package repository

import (
	"context"

	"telegram-notify-bot/internal/domain/model"
)

// DraftStore keeps intake conversations keyed by chat. Get returns
// domain.ErrNotFound when the chat has no active draft.
type DraftStore interface {
	Get(ctx context.Context, chatID model.ChatID) (*model.ConversationDraft, error)
	Save(ctx context.Context, d *model.ConversationDraft) error
	Delete(ctx context.Context, chatID model.ChatID) error
}
