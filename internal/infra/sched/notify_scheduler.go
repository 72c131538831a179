package sched

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"telegram-notify-bot/internal/application"
	"telegram-notify-bot/internal/config"
	"telegram-notify-bot/internal/infra/logging"
	red "telegram-notify-bot/internal/infra/redis"
)

// slotTTL bounds how long a fired slot stays claimed across replicas.
const slotTTL = 10 * time.Minute

// NotifyScheduler runs the configured checks on cron expressions. With a
// locker, each firing slot is claimed once across replicas.
type NotifyScheduler struct {
	s        gocron.Scheduler
	triggers application.Triggers
	locker   red.Locker
	loc      *time.Location
	now      func() time.Time
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewNotifyScheduler(cfg config.ScheduleConfig, loc *time.Location, triggers application.Triggers, locker red.Locker, logger *zerolog.Logger) (*NotifyScheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, err
	}
	l := logger.With().Str("component", "NotifyScheduler").Logger()
	n := &NotifyScheduler{s: s, triggers: triggers, locker: locker, loc: loc, now: time.Now, log: &l}
	n.ctx, n.cancel = context.WithCancel(context.Background())

	jobs := []struct {
		name string
		cron string
		run  func(ctx context.Context) error
	}{
		{"birthday", cfg.BirthdayCron, func(ctx context.Context) error {
			_, err := triggers.BirthdayCheck(ctx)
			return err
		}},
		{"events", cfg.EventsCron, func(ctx context.Context) error {
			_, err := triggers.EventCheck(ctx, false)
			return err
		}},
		{"events_half", cfg.HalfDayCron, func(ctx context.Context) error {
			_, err := triggers.EventCheck(ctx, true)
			return err
		}},
	}
	for _, j := range jobs {
		if j.cron == "" {
			continue
		}
		name, run := j.name, j.run
		_, err := s.NewJob(
			gocron.CronJob(j.cron, false),
			gocron.NewTask(func() { n.runGuarded(n.ctx, name, run) }),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("schedule %s %q: %w", name, j.cron, err)
		}
		n.log.Info().Str("job", name).Str("cron", j.cron).Str("tz", loc.String()).Msg("job scheduled")
	}
	return n, nil
}

// Jobs reports how many jobs are scheduled.
func (n *NotifyScheduler) Jobs() int { return len(n.s.Jobs()) }

func (n *NotifyScheduler) Start() { n.s.Start() }

func (n *NotifyScheduler) Shutdown() error {
	n.cancel()
	return n.s.Shutdown()
}

// runGuarded claims the current slot, then runs the job with a cron trigger source.
func (n *NotifyScheduler) runGuarded(ctx context.Context, name string, run func(ctx context.Context) error) {
	ctx = logging.WithTrigger(ctx, "cron")
	log := n.log.With().Str("job", name).Logger()

	if n.locker == nil {
		_ = n.execute(ctx, &log, run)
		return
	}
	key := slotKey(name, n.now().In(n.loc))
	token, err := n.locker.TryLock(ctx, key, slotTTL)
	switch {
	case errors.Is(err, red.ErrLockHeld):
		log.Debug().Str("slot", key).Msg("slot claimed by another replica")
		return
	case err != nil:
		log.Warn().Err(err).Msg("lock unavailable, running anyway")
		_ = n.execute(ctx, &log, run)
		return
	}
	if err := n.execute(ctx, &log, run); err != nil {
		// release the slot on failure
		_ = n.locker.Unlock(ctx, key, token)
	}
}

func (n *NotifyScheduler) execute(ctx context.Context, log *zerolog.Logger, run func(ctx context.Context) error) error {
	defer logging.TraceDuration(log, "NotifyScheduler.run")()
	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("scheduled check failed")
		return err
	}
	return nil
}

func slotKey(name string, t time.Time) string {
	return "lock:sched:" + name + ":" + t.Format("200601021504")
}
