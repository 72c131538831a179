package usecase

import (
	"context"
	"errors"

	"telegram-notify-bot/internal/domain"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/adapter"
	"telegram-notify-bot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ AccessUseCase = (*accessUC)(nil)

// AccessUseCase combines a fixed admin allow-list with persons that have a
// birthday set, which stands in for "fully registered".
type AccessUseCase interface {
	adapter.AccessControl
	IsAdmin(chatID model.ChatID) bool
	Admins() []model.ChatID
}

type accessUC struct {
	admins   []model.ChatID
	adminSet map[model.ChatID]struct{}
	persons  repository.PersonRepository
	log      *zerolog.Logger
}

func NewAccessUseCase(adminIDs []string, persons repository.PersonRepository, logger *zerolog.Logger) *accessUC {
	a := &accessUC{
		adminSet: make(map[model.ChatID]struct{}, len(adminIDs)),
		persons:  persons,
		log:      logger,
	}
	for _, id := range adminIDs {
		cid := model.ChatID(id)
		if _, dup := a.adminSet[cid]; dup || cid == "" {
			continue
		}
		a.adminSet[cid] = struct{}{}
		a.admins = append(a.admins, cid)
	}
	return a
}

func (a *accessUC) IsAdmin(chatID model.ChatID) bool {
	_, ok := a.adminSet[chatID]
	return ok
}

func (a *accessUC) Admins() []model.ChatID {
	out := make([]model.ChatID, len(a.admins))
	copy(out, a.admins)
	return out
}

func (a *accessUC) IsAuthorized(ctx context.Context, chatID model.ChatID, action adapter.Action) bool {
	switch action {
	case adapter.ActionRegister:
		return true
	case adapter.ActionIntake, adapter.ActionBirthdayCheck:
		return a.IsAdmin(chatID)
	case adapter.ActionEventCheck:
		return a.IsAdmin(chatID) || a.isRegistered(ctx, chatID)
	}
	return false
}

func (a *accessUC) isRegistered(ctx context.Context, chatID model.ChatID) bool {
	p, err := a.persons.FindByChatID(ctx, repository.NoTX, chatID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			a.log.Error().Err(err).Str("chat_id", chatID.String()).Msg("access lookup failed")
		}
		return false
	}
	return p.HasBirthday()
}
