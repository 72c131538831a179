// File: cmd/app/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"telegram-notify-bot/internal/application"
	"telegram-notify-bot/internal/config"
	"telegram-notify-bot/internal/domain/dateutil"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/adapter"
	"telegram-notify-bot/internal/domain/ports/repository"
	tele "telegram-notify-bot/internal/infra/adapters/telegram"
	"telegram-notify-bot/internal/infra/api"
	"telegram-notify-bot/internal/infra/calendar"
	"telegram-notify-bot/internal/infra/db"
	"telegram-notify-bot/internal/infra/logging"
	"telegram-notify-bot/internal/infra/memory"
	"telegram-notify-bot/internal/infra/metrics"
	red "telegram-notify-bot/internal/infra/redis"
	"telegram-notify-bot/internal/infra/sched"
	"telegram-notify-bot/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

type bot interface {
	adapter.MessageSender
	SetMenuCommands(ctx context.Context) error
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		log.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	loc := cfg.Location()
	clock := dateutil.SystemClock{Loc: loc}

	// ---- Storage ----
	st, err := db.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("storage")
	}
	defer st.Close()
	go st.ReportPoolStats(ctx, 15*time.Second)

	// ---- Redis (optional) ----
	var (
		limiter tele.Limiter
		locker  red.Locker
		drafts  repository.DraftStore
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
		locker = red.NewLocker(redisClient)
		if cfg.Conversation.Store == "redis" {
			drafts = red.NewDraftStore(redisClient, cfg.Conversation.IdleTTL)
		}
	}
	if drafts == nil {
		mem := memory.NewDraftStore(cfg.Conversation.IdleTTL)
		drafts = mem
		if cfg.Conversation.IdleTTL > 0 {
			go sweepDrafts(ctx, mem, cfg.Conversation.IdleTTL, log)
		}
	}

	// ---- Telegram ----
	var (
		sender  bot
		realBot *tele.RealTelegramBotAdapter
	)
	if cfg.Bot.Token == "" {
		log.Warn().Msg("no bot token; messages are logged only")
		sender = tele.NewNoopBotAdapter(log)
	} else {
		realBot, err = tele.NewRealTelegramBotAdapter(&cfg.Bot, log)
		if err != nil {
			log.Fatal().Err(err).Msg("telegram")
		}
		sender = realBot
	}

	// ---- Use cases ----
	accessUC := usecase.NewAccessUseCase(cfg.Bot.AdminIDs, st.Persons, log)
	registrationUC := usecase.NewRegistrationUseCase(st.Persons, st.Tx, sender, accessUC.Admins(), log)
	intakeUC := usecase.NewIntakeUseCase(drafts, st.Events, accessUC, sender, clock, log)
	queryUC := usecase.NewQueryUseCase(st.Events, st.Persons, clock, log)
	dispatchUC := usecase.NewDispatchUseCase(sender, st.Persons, usecase.DispatchOptions{
		Pace: cfg.Dispatch.Pace,
		Collection: usecase.CollectionInfo{
			Amount:     cfg.Birthday.Amount,
			CardNumber: cfg.Birthday.CardNumber,
			CardHolder: cfg.Birthday.CardHolder,
			CardOwner:  cfg.Birthday.CardOwner,
			Note:       cfg.Birthday.CollectionNote,
		},
	}, log)

	facade := application.NewNotifyFacade(queryUC, dispatchUC, clock, application.NotifySettings{
		GroupChat:          model.ChatID(cfg.Bot.GroupChatID),
		StatusChat:         model.ChatID(cfg.Bot.StatusChatID),
		BirthdayMode:       application.BirthdayMode(cfg.Birthday.Mode),
		BirthdayOffsetDays: cfg.Schedule.BirthdayOffsetDays,
		EventOffsetDays:    cfg.Schedule.EventOffsetDays,
	}, log)

	router := tele.NewCommandRouter(registrationUC, intakeUC, facade, accessUC, sender, limiter, cfg.RateLimit, log)

	if err := sender.SetMenuCommands(ctx); err != nil {
		log.Warn().Err(err).Msg("set menu commands failed")
	}
	if realBot != nil {
		go func() {
			if err := realBot.StartPolling(ctx, router); err != nil {
				log.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	}

	// ---- Scheduler ----
	scheduler, err := sched.NewNotifyScheduler(cfg.Schedule, loc, facade, locker, log)
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler")
	}
	scheduler.Start()

	// ---- HTTP hooks ----
	feed := calendar.NewFeed(st.Events, st.Persons, loc, clock, log)
	server := api.NewServer(facade, feed, api.NewHookAuth(cfg.HTTP.HookSecret), cfg.HTTP.Timeout, log)
	go func() {
		if err := server.Start(cfg.HTTP.Port); err != nil {
			log.Error().Err(err).Msg("http server stopped")
		}
	}()

	log.Info().Str("version", version).Str("db", cfg.Database.Driver).Str("drafts", cfg.Conversation.Store).
		Str("tz", loc.String()).Int("port", cfg.HTTP.Port).
		Str("card", logging.Redact(cfg.Birthday.CardNumber, cfg.Runtime.Dev)).
		Bool("hook_auth", cfg.HTTP.HookSecret != "").Msg("bot started")

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	log.Info().Msg("shutdown requested")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if realBot != nil {
		realBot.StopPolling()
	}
	if err := scheduler.Shutdown(); err != nil {
		log.Warn().Err(err).Msg("scheduler shutdown")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	cancel()
}

func sweepDrafts(ctx context.Context, store *memory.DraftStore, ttl time.Duration, log *zerolog.Logger) {
	t := time.NewTicker(ttl)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := store.Sweep(); n > 0 {
				log.Debug().Int("expired", n).Msg("idle drafts swept")
			}
		}
	}
}
