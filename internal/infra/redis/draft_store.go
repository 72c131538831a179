package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"telegram-notify-bot/internal/domain"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/repository"
)

var _ repository.DraftStore = (*DraftStore)(nil)

// DraftStore keeps intake drafts in Redis so they survive a restart and are
// shared between replicas. A zero ttl keeps drafts until a terminal step.
type DraftStore struct {
	client RedisClient
	ttl    time.Duration
}

func NewDraftStore(client RedisClient, ttl time.Duration) *DraftStore {
	return &DraftStore{client: client, ttl: ttl}
}

type draftRecord struct {
	ChatID    string    `json:"chat_id"`
	Step      int       `json:"step"`
	Title     string    `json:"title"`
	Guests    []string  `json:"guests"`
	StartDate string    `json:"start_date"`
	StartTime string    `json:"start_time"`
	Recurring bool      `json:"recurring"`
	EndDate   string    `json:"end_date,omitempty"`
	Kind      string    `json:"kind"`
	Location  string    `json:"location"`
	UpdatedAt time.Time `json:"updated_at"`
}

func draftKey(chatID model.ChatID) string {
	return fmt.Sprintf("conv_draft:%s", chatID)
}

func (s *DraftStore) Get(ctx context.Context, chatID model.ChatID) (*model.ConversationDraft, error) {
	data, err := s.client.Get(ctx, draftKey(chatID))
	if errors.Is(err, Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}

	var rec draftRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &model.ConversationDraft{
		ChatID: model.ChatID(rec.ChatID),
		Step:   model.Step(rec.Step),
		Event: model.Event{
			Title:     rec.Title,
			Guests:    rec.Guests,
			StartDate: rec.StartDate,
			StartTime: rec.StartTime,
			Recurring: rec.Recurring,
			EndDate:   rec.EndDate,
			Kind:      rec.Kind,
			Location:  rec.Location,
			CreatedBy: model.ChatID(rec.ChatID),
		},
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (s *DraftStore) Save(ctx context.Context, d *model.ConversationDraft) error {
	rec := draftRecord{
		ChatID:    d.ChatID.String(),
		Step:      int(d.Step),
		Title:     d.Event.Title,
		Guests:    d.Event.Guests,
		StartDate: d.Event.StartDate,
		StartTime: d.Event.StartTime,
		Recurring: d.Event.Recurring,
		EndDate:   d.Event.EndDate,
		Kind:      d.Event.Kind,
		Location:  d.Event.Location,
		UpdatedAt: d.UpdatedAt,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, draftKey(d.ChatID), data, s.ttl)
}

func (s *DraftStore) Delete(ctx context.Context, chatID model.ChatID) error {
	return s.client.Del(ctx, draftKey(chatID))
}
