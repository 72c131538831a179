//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"telegram-notify-bot/internal/domain"
	"telegram-notify-bot/internal/domain/dateutil"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/adapter"
	"telegram-notify-bot/internal/domain/ports/repository"
	"telegram-notify-bot/internal/usecase"
)

const adminChat model.ChatID = "1001"

type intakeFixture struct {
	uc     usecase.IntakeUseCase
	drafts *MockDraftStore
	events *MockEventRepo
	access *MockAccess
	sender *MockSender
}

func newIntakeFixture() *intakeFixture {
	f := &intakeFixture{
		drafts: NewMockDraftStore(),
		events: &MockEventRepo{},
		access: NewMockAccess(adminChat),
		sender: &MockSender{},
	}
	clock := dateutil.FixedClock{T: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	f.uc = usecase.NewIntakeUseCase(f.drafts, f.events, f.access, f.sender, clock, newTestLogger())
	return f
}

func (f *intakeFixture) feed(t *testing.T, chat model.ChatID, inputs ...string) usecase.Outcome {
	t.Helper()
	var last usecase.Outcome
	for _, in := range inputs {
		out, err := f.uc.Handle(context.Background(), chat, in)
		if err != nil {
			t.Fatalf("Handle(%q) returned error: %v", in, err)
		}
		last = out
	}
	return last
}

func (f *intakeFixture) draft(t *testing.T, chat model.ChatID) *model.ConversationDraft {
	t.Helper()
	d, err := f.drafts.Get(context.Background(), chat)
	if err != nil {
		t.Fatalf("expected a draft for %s: %v", chat, err)
	}
	return d
}

func (f *intakeFixture) start(t *testing.T) {
	t.Helper()
	out, err := f.uc.Start(context.Background(), adminChat)
	if err != nil || out != usecase.OutcomeStarted {
		t.Fatalf("Start = %v, %v", out, err)
	}
}

var fullRecurringInput = []string{"Weekly sync", "Ann, Bob ,, Carl", "01.01.2025", "10:30", "1", "31.12.2025", "PM", "Room 4"}

func TestIntakeUseCase_HappyPath(t *testing.T) {
	t.Run("nine steps end in AwaitConfirm with every field", func(t *testing.T) {
		// --- Arrange ---
		f := newIntakeFixture()
		f.start(t)

		// --- Act ---
		f.feed(t, adminChat, fullRecurringInput...)

		// --- Assert ---
		d := f.draft(t, adminChat)
		if d.Step != model.StepAwaitConfirm {
			t.Fatalf("expected AwaitConfirm, got %s", d.Step)
		}
		want := model.Event{
			Title:     "Weekly sync",
			Guests:    []string{"Ann", "Bob", "", "Carl"},
			StartDate: "01.01.2025",
			StartTime: "10:30",
			Kind:      "PM",
			Location:  "Room 4",
			Recurring: true,
			EndDate:   "31.12.2025",
			CreatedBy: adminChat,
		}
		if !reflect.DeepEqual(d.Event, want) {
			t.Errorf("draft mismatch\n got: %+v\nwant: %+v", d.Event, want)
		}
		preview := f.sender.Last()
		if preview.ParseMode != adapter.ParseModeHTML || !strings.Contains(preview.Text, "Weekly sync") {
			t.Errorf("expected HTML preview, got %+v", preview)
		}
	})

	t.Run("confirm creates exactly one event", func(t *testing.T) {
		f := newIntakeFixture()
		f.start(t)
		f.feed(t, adminChat, fullRecurringInput...)

		out := f.feed(t, adminChat, usecase.TokenConfirm)

		if out != usecase.OutcomeSaved {
			t.Fatalf("expected saved, got %s", out)
		}
		if len(f.events.Created) != 1 {
			t.Fatalf("expected 1 event, got %d", len(f.events.Created))
		}
		ev := f.events.Created[0]
		if ev.ID == "" || ev.Title != "Weekly sync" || ev.EndDate != "31.12.2025" || ev.CreatedAt.IsZero() {
			t.Errorf("unexpected persisted event %+v", ev)
		}
		if _, err := f.drafts.Get(context.Background(), adminChat); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected draft to be cleared, got %v", err)
		}
	})

	t.Run("non recurring path skips the end date", func(t *testing.T) {
		f := newIntakeFixture()
		f.start(t)
		f.feed(t, adminChat, "Retro", "Team", "02.02.2025", "15:00", "no")

		d := f.draft(t, adminChat)
		if d.Step != model.StepAwaitKind || d.Event.Recurring {
			t.Fatalf("expected AwaitKind non-recurring, got %s %v", d.Step, d.Event.Recurring)
		}
		f.feed(t, adminChat, "DATA", "Online", usecase.TokenConfirm)
		if len(f.events.Created) != 1 || f.events.Created[0].EndDate != "" {
			t.Errorf("unexpected events %+v", f.events.Created)
		}
	})
}

func TestIntakeUseCase_Validation(t *testing.T) {
	t.Run("bad date and time re-prompt in place", func(t *testing.T) {
		f := newIntakeFixture()
		f.start(t)
		f.feed(t, adminChat, "Title", "Guests")

		if out := f.feed(t, adminChat, "3.12.2025"); out != usecase.OutcomeRejected {
			t.Errorf("expected rejected date, got %s", out)
		}
		if d := f.draft(t, adminChat); d.Step != model.StepAwaitDate {
			t.Errorf("expected to stay in AwaitDate, got %s", d.Step)
		}
		f.feed(t, adminChat, "03.12.2025")
		if out := f.feed(t, adminChat, "9:30"); out != usecase.OutcomeRejected {
			t.Errorf("expected rejected time, got %s", out)
		}
		if d := f.draft(t, adminChat); d.Step != model.StepAwaitTime || d.Event.StartDate != "03.12.2025" {
			t.Errorf("unexpected draft %+v", d)
		}
	})

	t.Run("end date must be a date on or after the start", func(t *testing.T) {
		f := newIntakeFixture()
		f.start(t)
		f.feed(t, adminChat, "Title", "Guests", "10.05.2025", "10:00", "1")

		for _, bad := range []string{"next month", "09.05.2025"} {
			if out := f.feed(t, adminChat, bad); out != usecase.OutcomeRejected {
				t.Errorf("end date %q: expected rejected, got %s", bad, out)
			}
		}
		if d := f.draft(t, adminChat); d.Step != model.StepAwaitEndDate {
			t.Fatalf("expected AwaitEndDate, got %s", d.Step)
		}
		if out := f.feed(t, adminChat, "10.05.2025"); out != usecase.OutcomeAdvanced {
			t.Errorf("same-day end should be accepted, got %s", out)
		}
	})

	t.Run("confirm gate re-prompts on other input", func(t *testing.T) {
		f := newIntakeFixture()
		f.start(t)
		f.feed(t, adminChat, fullRecurringInput...)

		if out := f.feed(t, adminChat, "yes please"); out != usecase.OutcomeRejected {
			t.Errorf("expected rejected, got %s", out)
		}
		if out := f.feed(t, adminChat, "/events"); out != usecase.OutcomeRejected {
			t.Errorf("expected command to be rejected at confirm, got %s", out)
		}
		if d := f.draft(t, adminChat); d.Step != model.StepAwaitConfirm {
			t.Errorf("expected AwaitConfirm, got %s", d.Step)
		}
		if len(f.events.Created) != 0 {
			t.Error("no event should be created")
		}
	})
}

func TestIntakeUseCase_GlobalRules(t *testing.T) {
	t.Run("chat without draft is ignored", func(t *testing.T) {
		f := newIntakeFixture()
		out := f.feed(t, "555", "hello")
		if out != usecase.OutcomeIgnored || len(f.sender.Sent) != 0 {
			t.Errorf("expected silent ignore, got %s and %d messages", out, len(f.sender.Sent))
		}
	})

	t.Run("cancel discards without persisting", func(t *testing.T) {
		f := newIntakeFixture()
		f.start(t)
		f.feed(t, adminChat, fullRecurringInput...)

		if out := f.feed(t, adminChat, usecase.TokenCancel); out != usecase.OutcomeCancelled {
			t.Fatalf("expected cancelled, got %s", out)
		}
		if len(f.events.Created) != 0 {
			t.Error("cancel must not create an event")
		}
		if _, err := f.drafts.Get(context.Background(), adminChat); !errors.Is(err, domain.ErrNotFound) {
			t.Error("expected draft to be discarded")
		}
	})

	t.Run("stop discards from any state", func(t *testing.T) {
		for n := 0; n <= len(fullRecurringInput); n++ {
			f := newIntakeFixture()
			f.start(t)
			f.feed(t, adminChat, fullRecurringInput[:n]...)

			if out := f.feed(t, adminChat, usecase.TokenStop); out != usecase.OutcomeStopped {
				t.Fatalf("after %d inputs: expected stopped, got %s", n, out)
			}
			if _, err := f.drafts.Get(context.Background(), adminChat); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("after %d inputs: expected draft to be discarded", n)
			}
		}
	})

	t.Run("cancel command discards from any state", func(t *testing.T) {
		for n := 0; n <= len(fullRecurringInput); n++ {
			f := newIntakeFixture()
			f.start(t)
			f.feed(t, adminChat, fullRecurringInput[:n]...)

			out, err := f.uc.Cancel(context.Background(), adminChat)
			if err != nil || out != usecase.OutcomeCancelled {
				t.Fatalf("after %d inputs: expected cancelled, got %s %v", n, out, err)
			}
			if _, err := f.drafts.Get(context.Background(), adminChat); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("after %d inputs: expected draft to be discarded", n)
			}
			if len(f.events.Created) != 0 {
				t.Errorf("after %d inputs: cancel must not create an event", n)
			}
		}
	})

	t.Run("cancel command without a draft is ignored", func(t *testing.T) {
		f := newIntakeFixture()
		out, err := f.uc.Cancel(context.Background(), "555")
		if err != nil || out != usecase.OutcomeIgnored {
			t.Fatalf("expected ignored, got %s %v", out, err)
		}
		if len(f.sender.Sent) != 0 {
			t.Errorf("expected no messages, got %d", len(f.sender.Sent))
		}
	})

	t.Run("commands are noise outside the confirm step", func(t *testing.T) {
		f := newIntakeFixture()
		f.start(t)
		f.feed(t, adminChat, "Title")

		for _, cmd := range []string{"/events", usecase.TokenConfirm, usecase.TokenCancel} {
			if out := f.feed(t, adminChat, cmd); out != usecase.OutcomeIgnored {
				t.Errorf("%s: expected ignored, got %s", cmd, out)
			}
		}
		d := f.draft(t, adminChat)
		if d.Step != model.StepAwaitGuests || d.Event.Guests != nil {
			t.Errorf("draft must be unchanged, got %+v", d)
		}
	})

	t.Run("start is denied for unauthorized chats", func(t *testing.T) {
		f := newIntakeFixture()
		out, err := f.uc.Start(context.Background(), "777")
		if err != nil || out != usecase.OutcomeDenied {
			t.Fatalf("expected denied, got %s %v", out, err)
		}
		if _, err := f.drafts.Get(context.Background(), "777"); !errors.Is(err, domain.ErrNotFound) {
			t.Error("no draft should exist")
		}
		if got := f.sender.To("777"); len(got) != 1 {
			t.Errorf("expected one denial message, got %d", len(got))
		}
	})

	t.Run("revoked authorization aborts mid conversation", func(t *testing.T) {
		f := newIntakeFixture()
		f.start(t)
		f.feed(t, adminChat, "Title", "Guests")
		f.access.Revoke(adminChat)

		if out := f.feed(t, adminChat, "01.01.2025"); out != usecase.OutcomeDenied {
			t.Fatalf("expected denied, got %s", out)
		}
		if _, err := f.drafts.Get(context.Background(), adminChat); !errors.Is(err, domain.ErrNotFound) {
			t.Error("expected draft to be discarded")
		}
	})

	t.Run("restart replaces the previous draft", func(t *testing.T) {
		f := newIntakeFixture()
		f.start(t)
		f.feed(t, adminChat, "Old", "Guests")
		f.start(t)

		d := f.draft(t, adminChat)
		if d.Step != model.StepAwaitTitle || d.Event.Title != "" {
			t.Errorf("expected fresh draft, got %+v", d)
		}
	})

	t.Run("drafts of different chats are independent", func(t *testing.T) {
		f := newIntakeFixture()
		other := model.ChatID("1002")
		f.access.Allowed[other] = true
		f.start(t)
		if _, err := f.uc.Start(context.Background(), other); err != nil {
			t.Fatal(err)
		}
		f.feed(t, adminChat, "Mine")
		f.feed(t, other, "Theirs", "X")

		if d := f.draft(t, adminChat); d.Event.Title != "Mine" || d.Step != model.StepAwaitGuests {
			t.Errorf("unexpected draft %+v", d)
		}
		if d := f.draft(t, other); d.Event.Title != "Theirs" || d.Step != model.StepAwaitDate {
			t.Errorf("unexpected draft %+v", d)
		}
	})
}

func TestIntakeUseCase_PersistenceFailure(t *testing.T) {
	// --- Arrange ---
	f := newIntakeFixture()
	fail := true
	f.events.CreateFunc = func(ctx context.Context, tx repository.Tx, e *model.Event) error {
		if fail {
			return errors.New("db down")
		}
		return nil
	}
	f.start(t)
	f.feed(t, adminChat, fullRecurringInput...)

	// --- Act ---
	out := f.feed(t, adminChat, usecase.TokenConfirm)

	// --- Assert ---
	if out != usecase.OutcomeSaveFailed {
		t.Fatalf("expected save_failed, got %s", out)
	}
	if d := f.draft(t, adminChat); d.Step != model.StepAwaitConfirm {
		t.Fatalf("draft must survive a failed confirm, got %s", d.Step)
	}

	fail = false
	if out := f.feed(t, adminChat, usecase.TokenConfirm); out != usecase.OutcomeSaved {
		t.Fatalf("retry: expected saved, got %s", out)
	}
	if len(f.events.Created) != 1 {
		t.Errorf("expected exactly one event after retry, got %d", len(f.events.Created))
	}
}
