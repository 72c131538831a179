// Package contacts back-fills person profiles from vCard exports.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/rs/zerolog"

	"telegram-notify-bot/internal/domain"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/repository"
	"telegram-notify-bot/internal/infra/logging"
)

// FieldTelegramID carries the chat id a card belongs to.
const FieldTelegramID = "X-TELEGRAM-ID"

type Result struct {
	Cards   int `json:"cards"`
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

type Importer struct {
	persons repository.PersonRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewImporter(persons repository.PersonRepository, tm repository.TransactionManager, logger *zerolog.Logger) *Importer {
	l := logger.With().Str("component", "VCardImporter").Logger()
	return &Importer{persons: persons, tm: tm, log: &l}
}

// Import applies every card that names a registered chat. Fields missing from
// a card keep their stored value. Unknown chats and unusable cards are skipped.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Result, error) {
	defer logging.TraceDuration(im.log, "Importer.Import")()

	var res Result
	dec := vcard.NewDecoder(r)
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("decode card %d: %w", res.Cards+1, err)
		}
		res.Cards++

		chatID, update, err := parseCard(card)
		if err != nil {
			im.log.Warn().Err(err).Int("card", res.Cards).Msg("card skipped")
			res.Skipped++
			continue
		}
		err = im.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			p, err := im.persons.FindByChatID(ctx, tx, chatID)
			if err != nil {
				return err
			}
			return im.persons.UpdateProfile(ctx, tx, chatID, update.merge(p))
		})
		switch {
		case errors.Is(err, domain.ErrNotFound):
			im.log.Info().Str("chat_id", chatID.String()).Msg("card for unregistered chat skipped")
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("update %s: %w", chatID, err)
		default:
			res.Applied++
		}
	}
	im.log.Info().Int("cards", res.Cards).Int("applied", res.Applied).Int("skipped", res.Skipped).Msg("vcard import done")
	return res, nil
}

// profileUpdate holds the fields a card actually supplied.
type profileUpdate struct {
	birthday *model.Birthday
	category *model.Category
	title    *string
}

func (u profileUpdate) merge(p *model.Person) model.Profile {
	out := model.Profile{Birthday: p.Birthday, Category: p.Category, Title: p.Title}
	if u.birthday != nil {
		out.Birthday = u.birthday
	}
	if u.category != nil {
		out.Category = *u.category
	}
	if u.title != nil {
		out.Title = *u.title
	}
	return out
}

func parseCard(card vcard.Card) (model.ChatID, profileUpdate, error) {
	var u profileUpdate
	id := model.ChatID(strings.TrimSpace(card.Value(FieldTelegramID)))
	if id == "" {
		return "", u, fmt.Errorf("no %s: %w", FieldTelegramID, domain.ErrInvalidArgument)
	}

	if raw := strings.TrimSpace(card.Value(vcard.FieldBirthday)); raw != "" {
		b, err := ParseBDAY(raw)
		if err != nil {
			return "", u, err
		}
		u.birthday = &b
	}
	if f := card.Get(vcard.FieldTitle); f != nil {
		t := strings.TrimSpace(f.Value)
		u.title = &t
	}
	if raw := card.Value(vcard.FieldCategories); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			if cat, err := model.ParseCategory(c); err == nil && cat != model.CategoryNone {
				u.category = &cat
				break
			}
		}
	}
	return id, u, nil
}

var bdayLayouts = []string{"2006-01-02", "20060102", "--0102", "--01-02"}

// ParseBDAY reads the vCard BDAY forms with and without a year.
func ParseBDAY(s string) (model.Birthday, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i > 0 {
		s = s[:i]
	}
	for _, layout := range bdayLayouts {
		input := s
		if strings.HasPrefix(layout, "--") {
			if !strings.HasPrefix(s, "--") {
				continue
			}
			// time.Parse has no year-less layout; pin a leap year
			layout, input = "2006"+layout[2:], "2000"+s[2:]
		}
		if t, err := time.Parse(layout, input); err == nil {
			return model.NewBirthday(t.Day(), t.Month())
		}
	}
	return model.Birthday{}, fmt.Errorf("bday %q: %w", s, domain.ErrMalformedDate)
}
