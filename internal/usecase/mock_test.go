//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"telegram-notify-bot/internal/domain"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/adapter"
	"telegram-notify-bot/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// =============================
// Adapters
// =============================

// ---- Mock MessageSender ----

type MockSender struct {
	mu   sync.Mutex
	Sent []adapter.SendMessageParams // successful sends only

	SendMessageFunc func(ctx context.Context, params adapter.SendMessageParams) error
}

var _ adapter.MessageSender = (*MockSender)(nil)

func (m *MockSender) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	if m.SendMessageFunc != nil {
		if err := m.SendMessageFunc(ctx, params); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, params)
	return nil
}

func (m *MockSender) To(chatID model.ChatID) []adapter.SendMessageParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []adapter.SendMessageParams
	for _, p := range m.Sent {
		if p.ChatID == chatID {
			out = append(out, p)
		}
	}
	return out
}

func (m *MockSender) Last() adapter.SendMessageParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return adapter.SendMessageParams{}
	}
	return m.Sent[len(m.Sent)-1]
}

// ---- Mock AccessControl ----

type MockAccess struct {
	mu      sync.Mutex
	Allowed map[model.ChatID]bool
}

var _ adapter.AccessControl = (*MockAccess)(nil)

func NewMockAccess(allowed ...model.ChatID) *MockAccess {
	m := &MockAccess{Allowed: map[model.ChatID]bool{}}
	for _, id := range allowed {
		m.Allowed[id] = true
	}
	return m
}

func (m *MockAccess) IsAuthorized(ctx context.Context, chatID model.ChatID, action adapter.Action) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Allowed[chatID]
}

func (m *MockAccess) Revoke(chatID model.ChatID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Allowed, chatID)
}

// =============================
// Repositories
// =============================

// ---- Mock PersonRepository ----

type MockPersonRepo struct {
	mu     sync.Mutex
	order  []model.ChatID
	byChat map[model.ChatID]*model.Person

	FindByChatIDFunc func(ctx context.Context, tx repository.Tx, chatID model.ChatID) (*model.Person, error)
	CreateFunc       func(ctx context.Context, tx repository.Tx, p *model.Person) error
	ListFunc         func(ctx context.Context, tx repository.Tx) ([]*model.Person, error)
}

var _ repository.PersonRepository = (*MockPersonRepo)(nil)

func NewMockPersonRepo(people ...*model.Person) *MockPersonRepo {
	m := &MockPersonRepo{byChat: map[model.ChatID]*model.Person{}}
	for _, p := range people {
		m.order = append(m.order, p.ChatID)
		m.byChat[p.ChatID] = p
	}
	return m
}

func (m *MockPersonRepo) FindByChatID(ctx context.Context, tx repository.Tx, chatID model.ChatID) (*model.Person, error) {
	if m.FindByChatIDFunc != nil {
		return m.FindByChatIDFunc(ctx, tx, chatID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byChat[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPersonRepo) Create(ctx context.Context, tx repository.Tx, p *model.Person) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byChat[p.ChatID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *p
	m.byChat[p.ChatID] = &cp
	m.order = append(m.order, p.ChatID)
	return nil
}

func (m *MockPersonRepo) FindWithBirthdaySet(ctx context.Context, tx repository.Tx) ([]*model.Person, error) {
	all, err := m.List(ctx, tx)
	if err != nil {
		return nil, err
	}
	var out []*model.Person
	for _, p := range all {
		if p.HasBirthday() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockPersonRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Person, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Person, 0, len(m.order))
	for _, id := range m.order {
		cp := *m.byChat[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockPersonRepo) UpdateProfile(ctx context.Context, tx repository.Tx, chatID model.ChatID, profile model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byChat[chatID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Birthday, p.Category, p.Title = profile.Birthday, profile.Category, profile.Title
	return nil
}

func (m *MockPersonRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// ---- Mock EventRepository ----

type MockEventRepo struct {
	mu      sync.Mutex
	Created []*model.Event

	CreateFunc func(ctx context.Context, tx repository.Tx, e *model.Event) error
}

var _ repository.EventRepository = (*MockEventRepo)(nil)

func (m *MockEventRepo) Create(ctx context.Context, tx repository.Tx, e *model.Event) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, tx, e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.Created = append(m.Created, &cp)
	return nil
}

func (m *MockEventRepo) FindByDateOrRecurringWindow(ctx context.Context, tx repository.Tx, date string) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Event
	for _, e := range m.Created {
		if e.StartDate == date || e.Recurring {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockEventRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Event, len(m.Created))
	copy(out, m.Created)
	return out, nil
}

// ---- Mock DraftStore ----

type MockDraftStore struct {
	mu     sync.Mutex
	drafts map[model.ChatID]model.ConversationDraft

	SaveFunc func(ctx context.Context, d *model.ConversationDraft) error
}

var _ repository.DraftStore = (*MockDraftStore)(nil)

func NewMockDraftStore() *MockDraftStore {
	return &MockDraftStore{drafts: map[model.ChatID]model.ConversationDraft{}}
}

func (m *MockDraftStore) Get(ctx context.Context, chatID model.ChatID) (*model.ConversationDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	d.Event.Guests = append([]string(nil), d.Event.Guests...)
	return &d, nil
}

func (m *MockDraftStore) Save(ctx context.Context, d *model.ConversationDraft) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, d); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[d.ChatID] = *d
	return nil
}

func (m *MockDraftStore) Delete(ctx context.Context, chatID model.ChatID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, chatID)
	return nil
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	Calls int
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	return fn(ctx, nil)
}
