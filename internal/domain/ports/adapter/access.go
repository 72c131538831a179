package adapter

import (
	"context"

	"telegram-notify-bot/internal/domain/model"
)

type Action string

const (
	ActionRegister      Action = "register"
	ActionIntake        Action = "intake"
	ActionBirthdayCheck Action = "birthday_check"
	ActionEventCheck    Action = "event_check"
)

// AccessControl answers whether a chat may perform an action.
type AccessControl interface {
	IsAuthorized(ctx context.Context, chatID model.ChatID, action Action) bool
}
