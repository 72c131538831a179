package repository

import (
	"context"

	"telegram-notify-bot/internal/domain/model"
)

// -----------------------------
// Persons
// -----------------------------

type PersonRepository interface {
	// FindByChatID returns domain.ErrNotFound for unknown chats.
	FindByChatID(ctx context.Context, tx Tx, chatID model.ChatID) (*model.Person, error)
	// Create returns domain.ErrAlreadyExists when the chat is registered.
	Create(ctx context.Context, tx Tx, p *model.Person) error
	FindWithBirthdaySet(ctx context.Context, tx Tx) ([]*model.Person, error)
	List(ctx context.Context, tx Tx) ([]*model.Person, error)
	UpdateProfile(ctx context.Context, tx Tx, chatID model.ChatID, profile model.Profile) error
}
