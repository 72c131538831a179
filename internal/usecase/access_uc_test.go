//go:build !integration

package usecase_test

import (
	"context"
	"testing"

	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/adapter"
	"telegram-notify-bot/internal/usecase"
)

func TestAccessUseCase(t *testing.T) {
	ctx := context.Background()
	b := mustBirthday(t, "01.02")
	repo := NewMockPersonRepo(
		&model.Person{ChatID: "10", DisplayName: "Member", Birthday: &b},
		&model.Person{ChatID: "11", DisplayName: "Newcomer"},
	)
	uc := usecase.NewAccessUseCase([]string{"1", "1", "", "2"}, repo, newTestLogger())

	if got := uc.Admins(); len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Errorf("expected deduplicated admins, got %v", got)
	}

	cases := []struct {
		chat   model.ChatID
		action adapter.Action
		want   bool
	}{
		{"1", adapter.ActionIntake, true},
		{"1", adapter.ActionBirthdayCheck, true},
		{"1", adapter.ActionEventCheck, true},
		{"10", adapter.ActionIntake, false},
		{"10", adapter.ActionBirthdayCheck, false},
		{"10", adapter.ActionEventCheck, true},
		{"11", adapter.ActionEventCheck, false},
		{"99", adapter.ActionEventCheck, false},
		{"99", adapter.ActionRegister, true},
		{"1", adapter.Action("unknown"), false},
	}
	for _, tc := range cases {
		if got := uc.IsAuthorized(ctx, tc.chat, tc.action); got != tc.want {
			t.Errorf("IsAuthorized(%s, %s) = %v, want %v", tc.chat, tc.action, got, tc.want)
		}
	}
}
