//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/adapter"
	"telegram-notify-bot/internal/usecase"
)

const (
	groupChat  model.ChatID = "-100500"
	statusChat model.ChatID = "1001"
)

func TestDispatchUseCase_DispatchEvents(t *testing.T) {
	ctx := context.Background()
	events := []*model.Event{
		{ID: "1", Title: "Standup", Guests: []string{"Ann", "Bob"}, StartDate: "15.06.2025", StartTime: "09:00", Location: "Room <1>", Kind: "PM"},
		{ID: "2", Title: "Fails", StartDate: "15.06.2025", StartTime: "10:00"},
		{ID: "3", Title: "Daily", StartDate: "01.06.2025", StartTime: "11:00", Recurring: true, EndDate: "30.06.2025"},
	}

	t.Run("sends each event and a summary, tolerating failures", func(t *testing.T) {
		// --- Arrange ---
		sender := &MockSender{SendMessageFunc: func(ctx context.Context, p adapter.SendMessageParams) error {
			if strings.Contains(p.Text, "Fails") {
				return errors.New("telegram: bad gateway")
			}
			return nil
		}}
		uc := usecase.NewDispatchUseCase(sender, NewMockPersonRepo(), usecase.DispatchOptions{}, newTestLogger())

		// --- Act ---
		rep, err := uc.DispatchEvents(ctx, events, groupChat, statusChat)

		// --- Assert ---
		if err != nil {
			t.Fatal(err)
		}
		if rep.Sent != 2 || rep.Failed != 1 {
			t.Errorf("expected 2 sent 1 failed, got %+v", rep)
		}
		group := sender.To(groupChat)
		if len(group) != 2 {
			t.Fatalf("expected 2 group messages, got %d", len(group))
		}
		first := group[0]
		if first.ParseMode != adapter.ParseModeHTML || !strings.Contains(first.Text, "Ann, Bob") || !strings.Contains(first.Text, "Room &lt;1&gt;") {
			t.Errorf("unexpected event notice %q", first.Text)
		}
		if !strings.Contains(group[1].Text, "until 30.06.2025") {
			t.Errorf("expected recurrence footer, got %q", group[1].Text)
		}
		status := sender.To(statusChat)
		if len(status) != 1 || !strings.Contains(status[0].Text, "2 meeting notices sent") || !strings.Contains(status[0].Text, "1 failed") {
			t.Errorf("unexpected status %+v", status)
		}
	})

	t.Run("no events still reports to status", func(t *testing.T) {
		sender := &MockSender{}
		uc := usecase.NewDispatchUseCase(sender, NewMockPersonRepo(), usecase.DispatchOptions{}, newTestLogger())

		rep, _ := uc.DispatchEvents(ctx, nil, groupChat, statusChat)

		if rep.Sent != 0 || len(sender.To(groupChat)) != 0 {
			t.Errorf("expected nothing sent to group, got %+v", rep)
		}
		if st := sender.To(statusChat); len(st) != 1 || !strings.Contains(st[0].Text, "No meetings") {
			t.Errorf("unexpected status %+v", st)
		}
	})
}

func TestDispatchUseCase_NotifyGroup(t *testing.T) {
	b := mustBirthday(t, "05.03")
	people := []*model.Person{
		{ChatID: "11", DisplayName: "Peer", Birthday: &b, Category: model.CategoryNone},
		{ChatID: "12", DisplayName: "Boss", Birthday: &b, Category: model.CategoryManagement, Title: "head of sales"},
		{ChatID: "13", DisplayName: "Chief", Birthday: &b, Category: model.CategoryDirector, Title: "CEO"},
	}
	sender := &MockSender{}
	uc := usecase.NewDispatchUseCase(sender, NewMockPersonRepo(), usecase.DispatchOptions{}, newTestLogger())

	rep, err := uc.NotifyGroup(context.Background(), people, "05.03", groupChat, statusChat)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Sent != 3 {
		t.Fatalf("expected 3 greetings, got %+v", rep)
	}
	group := sender.To(groupChat)
	for i, p := range people {
		if group[i].Text != usecase.RenderBirthday(p, "05.03") {
			t.Errorf("greeting %d used the wrong template: %q", i, group[i].Text)
		}
	}
	if !strings.Contains(group[0].Text, "colleague") || !strings.Contains(group[1].Text, "head of sales") || !strings.Contains(group[2].Text, "director CEO") {
		t.Errorf("templates not selected by category: %v", group)
	}
	if !strings.Contains(group[0].Text, `<a href="tg://user?id=11">Peer</a>`) {
		t.Errorf("expected a mention link, got %q", group[0].Text)
	}
	if st := sender.To(statusChat); len(st) != 1 || !strings.Contains(st[0].Text, ": 3") {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestDispatchUseCase_NotifyAllUsersIndividually(t *testing.T) {
	ctx := context.Background()
	b := mustBirthday(t, "05.03")

	t.Run("fans out to everyone except the owner", func(t *testing.T) {
		// --- Arrange ---
		owner := &model.Person{ChatID: "1", DisplayName: "Ann", Birthday: &b}
		repo := NewMockPersonRepo(owner, &model.Person{ChatID: "2", DisplayName: "Bob"}, &model.Person{ChatID: "3", DisplayName: "Cid"})
		sender := &MockSender{}
		opts := usecase.DispatchOptions{Collection: usecase.CollectionInfo{Amount: "50 000", CardNumber: "8600 1234", CardHolder: "Treasurer", CardOwner: "@treasurer"}}
		uc := usecase.NewDispatchUseCase(sender, repo, opts, newTestLogger())

		// --- Act ---
		rep, err := uc.NotifyAllUsersIndividually(ctx, []*model.Person{owner}, "05.03", statusChat)

		// --- Assert ---
		if err != nil {
			t.Fatal(err)
		}
		if rep.Sent != 2 || rep.Recipients != 2 {
			t.Errorf("expected 2 messages to 2 recipients, got %+v", rep)
		}
		if len(sender.To("1")) != 0 {
			t.Error("the birthday owner must not be notified")
		}
		msg := sender.To("2")
		if len(msg) != 1 || !strings.Contains(msg[0].Text, "8600 1234") || !strings.Contains(msg[0].Text, "https://t.me/treasurer") {
			t.Errorf("unexpected notice %+v", msg)
		}
		if st := sender.To(statusChat); len(st) != 1 || !strings.Contains(st[0].Text, "delivered to 2 people") {
			t.Errorf("unexpected status %+v", st)
		}
	})

	t.Run("counts distinct recipients across owners", func(t *testing.T) {
		o1 := &model.Person{ChatID: "1", DisplayName: "Ann", Birthday: &b}
		o2 := &model.Person{ChatID: "2", DisplayName: "Bob", Birthday: &b}
		repo := NewMockPersonRepo(o1, o2,
			&model.Person{ChatID: "3"}, &model.Person{ChatID: "4"}, &model.Person{ChatID: "5"})
		sender := &MockSender{SendMessageFunc: func(ctx context.Context, p adapter.SendMessageParams) error {
			if p.ChatID == "5" {
				return errors.New("bot was blocked by the user")
			}
			return nil
		}}
		uc := usecase.NewDispatchUseCase(sender, repo, usecase.DispatchOptions{}, newTestLogger())

		rep, err := uc.NotifyAllUsersIndividually(ctx, []*model.Person{o1, o2}, "05.03", statusChat)
		if err != nil {
			t.Fatal(err)
		}
		if rep.Sent != 4 || rep.Failed != 2 || rep.Recipients != 2 {
			t.Errorf("unexpected report %+v", rep)
		}
	})

	t.Run("no owners reports nobody", func(t *testing.T) {
		sender := &MockSender{}
		uc := usecase.NewDispatchUseCase(sender, NewMockPersonRepo(&model.Person{ChatID: "2"}), usecase.DispatchOptions{}, newTestLogger())

		rep, err := uc.NotifyAllUsersIndividually(ctx, nil, "05.03", statusChat)
		if err != nil || rep.Sent != 0 {
			t.Fatalf("unexpected %+v %v", rep, err)
		}
		if st := sender.To(statusChat); len(st) != 1 || !strings.Contains(st[0].Text, "Nobody") {
			t.Errorf("unexpected status %+v", st)
		}
	})
}

func TestBirthdayCheckScenario(t *testing.T) {
	// two persons registered, one management birthday today
	ctx := context.Background()
	b := mustBirthday(t, "05.03")
	other := mustBirthday(t, "10.10")
	repo := NewMockPersonRepo(
		&model.Person{ChatID: "21", DisplayName: "Mila", Birthday: &b, Category: model.CategoryManagement, Title: "CTO office"},
		&model.Person{ChatID: "22", DisplayName: "Ivan", Birthday: &other},
	)
	sender := &MockSender{}
	query := usecase.NewQueryUseCase(&MockEventRepo{}, repo, nil, newTestLogger())
	dispatch := usecase.NewDispatchUseCase(sender, repo, usecase.DispatchOptions{}, newTestLogger())

	people, err := query.FindMatchingBirthdays(ctx, "05.03")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dispatch.NotifyGroup(ctx, people, "05.03", groupChat, statusChat); err != nil {
		t.Fatal(err)
	}

	group := sender.To(groupChat)
	if len(group) != 1 || !strings.Contains(group[0].Text, "Mila") || !strings.Contains(group[0].Text, "Thank you for leading us") {
		t.Fatalf("expected one management greeting, got %+v", group)
	}
	if strings.Contains(group[0].Text, "Ivan") {
		t.Error("non-birthday person must not be mentioned")
	}
	if len(sender.To(statusChat)) != 1 {
		t.Error("expected a summary to the admin")
	}
	if len(sender.Sent) != 2 {
		t.Errorf("expected exactly 2 messages, got %d", len(sender.Sent))
	}
}

func TestRenderIndividualNotice_ScreenshotContact(t *testing.T) {
	owner := &model.Person{ChatID: "1", DisplayName: "Ann"}

	t.Run("numeric owner links to the user id", func(t *testing.T) {
		msg := usecase.RenderIndividualNotice(owner, "05.03", usecase.CollectionInfo{CardNumber: "8600", CardHolder: "Mila", CardOwner: "424242"})
		if !strings.Contains(msg, `tg://user?id=424242`) {
			t.Errorf("expected user id link, got %q", msg)
		}
		if !strings.Contains(msg, "(Mila)") || strings.Contains(msg, "(424242)") {
			t.Errorf("holder label should be the holder name, got %q", msg)
		}
	})

	t.Run("username owner links to t.me", func(t *testing.T) {
		msg := usecase.RenderIndividualNotice(owner, "05.03", usecase.CollectionInfo{CardOwner: "@treasurer"})
		if !strings.Contains(msg, "https://t.me/treasurer") {
			t.Errorf("expected t.me link, got %q", msg)
		}
	})

	t.Run("no owner, no screenshot line", func(t *testing.T) {
		if msg := usecase.RenderIndividualNotice(owner, "05.03", usecase.CollectionInfo{}); strings.Contains(msg, "screenshot") {
			t.Errorf("unexpected screenshot line in %q", msg)
		}
	})
}
