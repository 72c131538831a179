package usecase

import (
	"context"
	"errors"
	"fmt"

	"telegram-notify-bot/internal/domain"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/adapter"
	"telegram-notify-bot/internal/domain/ports/repository"
	"telegram-notify-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ RegistrationUseCase = (*registrationUC)(nil)

// RegistrationUseCase handles the /start flow.
type RegistrationUseCase interface {
	// Register creates the Person on first contact and reports whether it was new.
	Register(ctx context.Context, chatID model.ChatID, firstName string) (*model.Person, bool, error)
}

type registrationUC struct {
	persons repository.PersonRepository
	tm      repository.TransactionManager
	sender  adapter.MessageSender
	admins  []model.ChatID
	log     *zerolog.Logger
}

func NewRegistrationUseCase(
	persons repository.PersonRepository,
	tm repository.TransactionManager,
	sender adapter.MessageSender,
	admins []model.ChatID,
	logger *zerolog.Logger,
) *registrationUC {
	return &registrationUC{
		persons: persons,
		tm:      tm,
		sender:  sender,
		admins:  admins,
		log:     logger,
	}
}

func (u *registrationUC) Register(ctx context.Context, chatID model.ChatID, firstName string) (*model.Person, bool, error) {
	defer logging.TraceDuration(u.log, "RegistrationUC.Register")()

	var (
		person  *model.Person
		created bool
	)
	// find and create run in one transaction so a double /start cannot race
	err := u.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		existing, err := u.persons.FindByChatID(ctx, tx, chatID)
		if err == nil {
			person = existing
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		np, err := model.NewPerson(chatID, firstName)
		if err != nil {
			return err
		}
		if err := u.persons.Create(ctx, tx, np); err != nil {
			return err
		}
		person, created = np, true
		return nil
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		// lost a race with a concurrent /start from the same chat
		person, err = u.persons.FindByChatID(ctx, repository.NoTX, chatID)
	}
	if err != nil {
		return nil, false, fmt.Errorf("register %s: %w", chatID, err)
	}

	if !created {
		u.send(ctx, chatID, msgAlreadyRegistered)
		return person, false, nil
	}

	u.log.Info().Str("chat_id", chatID.String()).Str("name", person.DisplayName).Msg("person registered")
	u.send(ctx, chatID, fmt.Sprintf(msgRegistered, person.DisplayName))
	for _, admin := range u.admins {
		if admin == chatID {
			continue
		}
		u.send(ctx, admin, fmt.Sprintf(msgAdminNewPerson, person.DisplayName, chatID))
	}
	return person, true, nil
}

func (u *registrationUC) send(ctx context.Context, chatID model.ChatID, text string) {
	if err := u.sender.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		u.log.Warn().Err(err).Str("chat_id", chatID.String()).Msg("registration reply failed")
	}
}
