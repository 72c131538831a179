// Package memory holds process-local stores.
package memory

import (
	"context"
	"sync"
	"time"

	"telegram-notify-bot/internal/domain"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/repository"
)

var _ repository.DraftStore = (*DraftStore)(nil)

// DraftStore keeps drafts in a map for the lifetime of the process. Drafts
// idle longer than ttl are dropped on access; a zero ttl disables expiry.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[model.ChatID]model.ConversationDraft
	ttl    time.Duration
	now    func() time.Time
}

func NewDraftStore(ttl time.Duration) *DraftStore {
	return &DraftStore{
		drafts: make(map[model.ChatID]model.ConversationDraft),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *DraftStore) Get(ctx context.Context, chatID model.ChatID) (*model.ConversationDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if s.expired(d) {
		delete(s.drafts, chatID)
		return nil, domain.ErrNotFound
	}
	d.Event.Guests = append([]string(nil), d.Event.Guests...)
	return &d, nil
}

func (s *DraftStore) Save(ctx context.Context, d *model.ConversationDraft) error {
	cp := *d
	cp.Event.Guests = append([]string(nil), d.Event.Guests...)
	cp.UpdatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ChatID] = cp
	return nil
}

func (s *DraftStore) Delete(ctx context.Context, chatID model.ChatID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, chatID)
	return nil
}

// Sweep drops expired drafts and returns how many were removed.
func (s *DraftStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, d := range s.drafts {
		if s.expired(d) {
			delete(s.drafts, id)
			n++
		}
	}
	return n
}

func (s *DraftStore) expired(d model.ConversationDraft) bool {
	return s.ttl > 0 && s.now().Sub(d.UpdatedAt) > s.ttl
}
