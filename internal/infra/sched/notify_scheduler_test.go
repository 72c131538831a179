package sched

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-notify-bot/internal/application"
	"telegram-notify-bot/internal/config"
	"telegram-notify-bot/internal/infra/logging"
	red "telegram-notify-bot/internal/infra/redis"
)

type mockTriggers struct {
	mu      sync.Mutex
	sources []string
}

func (m *mockTriggers) BirthdayCheck(ctx context.Context) (application.CheckResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = append(m.sources, logging.Trigger(ctx))
	return application.CheckResult{}, nil
}

func (m *mockTriggers) EventCheck(ctx context.Context, halfDay bool) (application.CheckResult, error) {
	return application.CheckResult{}, nil
}

type mockLocker struct {
	held     map[string]string
	unlocked []string
	err      error
}

func (m *mockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if _, ok := m.held[key]; ok {
		return "", red.ErrLockHeld
	}
	m.held[key] = "tok-" + key
	return m.held[key], nil
}

func (m *mockLocker) Unlock(ctx context.Context, key, token string) error {
	if m.held[key] == token {
		delete(m.held, key)
		m.unlocked = append(m.unlocked, key)
	}
	return nil
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestNewNotifyScheduler(t *testing.T) {
	t.Run("schedules only configured jobs", func(t *testing.T) {
		n, err := NewNotifyScheduler(config.ScheduleConfig{BirthdayCron: "0 9 * * *", HalfDayCron: "0 8,14 * * 1-5"},
			time.UTC, &mockTriggers{}, nil, newTestLogger())
		if err != nil {
			t.Fatal(err)
		}
		defer n.Shutdown()
		if n.Jobs() != 2 {
			t.Errorf("expected 2 jobs, got %d", n.Jobs())
		}
	})

	t.Run("rejects a bad cron expression", func(t *testing.T) {
		if _, err := NewNotifyScheduler(config.ScheduleConfig{EventsCron: "every morning"}, time.UTC, &mockTriggers{}, nil, newTestLogger()); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestRunGuarded(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2025, 3, 4, 9, 0, 30, 0, time.UTC)

	newSched := func(locker red.Locker) *NotifyScheduler {
		n, err := NewNotifyScheduler(config.ScheduleConfig{}, time.UTC, &mockTriggers{}, locker, newTestLogger())
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = n.Shutdown() })
		n.now = func() time.Time { return fixed }
		return n
	}

	t.Run("runs with cron trigger source", func(t *testing.T) {
		tr := &mockTriggers{}
		n := newSched(nil)
		n.runGuarded(ctx, "birthday", func(ctx context.Context) error {
			_, err := tr.BirthdayCheck(ctx)
			return err
		})
		if len(tr.sources) != 1 || tr.sources[0] != "cron" {
			t.Errorf("unexpected sources %v", tr.sources)
		}
	})

	t.Run("one run per slot across replicas", func(t *testing.T) {
		locker := &mockLocker{held: map[string]string{}}
		a, b := newSched(locker), newSched(locker)
		runs := 0
		job := func(context.Context) error { runs++; return nil }

		a.runGuarded(ctx, "events", job)
		b.runGuarded(ctx, "events", job)
		if runs != 1 {
			t.Errorf("expected 1 run, got %d", runs)
		}
		if _, ok := locker.held[slotKey("events", fixed)]; !ok {
			t.Error("a successful slot stays claimed")
		}
	})

	t.Run("failed run releases the slot", func(t *testing.T) {
		locker := &mockLocker{held: map[string]string{}}
		n := newSched(locker)
		runs := 0
		n.runGuarded(ctx, "events", func(context.Context) error { runs++; return errors.New("telegram down") })
		n.runGuarded(ctx, "events", func(context.Context) error { runs++; return nil })
		if runs != 2 || len(locker.unlocked) != 1 {
			t.Errorf("expected retry after failure, runs=%d unlocked=%v", runs, locker.unlocked)
		}
	})

	t.Run("locker errors do not block the job", func(t *testing.T) {
		n := newSched(&mockLocker{err: errors.New("redis down")})
		ran := false
		n.runGuarded(ctx, "birthday", func(context.Context) error { ran = true; return nil })
		if !ran {
			t.Error("expected the job to run")
		}
	})
}

func TestSlotKey(t *testing.T) {
	got := slotKey("birthday", time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC))
	if got != "lock:sched:birthday:202512312359" {
		t.Errorf("unexpected key %q", got)
	}
}
