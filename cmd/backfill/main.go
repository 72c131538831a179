// Command backfill applies birthdays, titles and categories from a vCard
// export to already registered persons.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"telegram-notify-bot/internal/config"
	"telegram-notify-bot/internal/infra/contacts"
	"telegram-notify-bot/internal/infra/db"
	"telegram-notify-bot/internal/infra/logging"
)

func main() {
	vcfPath := flag.String("vcf", "", "path to a .vcf export")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *vcfPath == "" {
		log.Fatal("-vcf is required")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	st, err := db.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer st.Close()

	f, err := os.Open(*vcfPath)
	if err != nil {
		log.Fatalf("open vcf: %v", err)
	}
	defer f.Close()

	res, err := contacts.NewImporter(st.Persons, st.Tx, logger).Import(ctx, f)
	if err != nil {
		log.Fatalf("import: %v (applied %d of %d cards)", err, res.Applied, res.Cards)
	}
	fmt.Printf("cards=%d applied=%d skipped=%d\n", res.Cards, res.Applied, res.Skipped)
}
