package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"telegram-notify-bot/internal/config"
	"telegram-notify-bot/internal/domain/dateutil"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/repository"
	"telegram-notify-bot/internal/infra/db"
)

// Seeds a few events around today so the checks have something to send
// during manual testing.
func main() {
	// ---- Config ----
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := db.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer st.Close()

	// If events already exist, do nothing
	existing, err := st.Events.List(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("list events: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d events already present. No changes.\n", len(existing))
		for _, e := range existing {
			fmt.Printf("  - %s %s %s\n", e.StartDate, e.StartTime, e.Title)
		}
		return
	}

	today := time.Now().In(cfg.Location())
	createdBy := model.ChatID("seed")
	if len(cfg.Bot.AdminIDs) > 0 {
		createdBy = model.ChatID(cfg.Bot.AdminIDs[0])
	}
	seed := []model.Event{
		{Title: "Planning", Guests: []string{"Team"}, StartDate: dateutil.FormatDayMonthYear(today), StartTime: "10:00", Kind: "meeting", Location: "Room 1"},
		{Title: "Review", Guests: []string{"Leads"}, StartDate: dateutil.FormatDayMonthYear(today), StartTime: "15:30", Kind: "meeting", Location: "Online"},
		{Title: "Standup", StartDate: dateutil.FormatDayMonthYear(today.AddDate(0, 0, -3)), StartTime: "09:15", Kind: "daily", Location: "Online",
			Recurring: true, EndDate: dateutil.FormatDayMonthYear(today.AddDate(0, 0, 30))},
	}

	err = st.Tx.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		for i := range seed {
			e := seed[i]
			e.ID = model.NewEventID()
			e.CreatedBy = createdBy
			e.CreatedAt = time.Now()
			if err := e.Validate(); err != nil {
				return fmt.Errorf("%s: %w", e.Title, err)
			}
			if err := st.Events.Create(ctx, tx, &e); err != nil {
				return fmt.Errorf("create %s: %w", e.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	fmt.Printf("Seeded %d events.\n", len(seed))
}
