// Command hooktoken prints a bearer token for the HTTP check hooks.
package main

import (
	"flag"
	"fmt"
	"log"

	"telegram-notify-bot/internal/config"
	"telegram-notify-bot/internal/infra/api"
)

func main() {
	subject := flag.String("subject", "uptime", "token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime; 0 never expires")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	auth := api.NewHookAuth(cfg.HTTP.HookSecret)
	if !auth.Enabled() {
		log.Fatal("http.hook_secret is empty; hooks are unauthenticated")
	}
	tok, err := auth.Mint(*subject, *ttl)
	if err != nil {
		log.Fatalf("mint: %v", err)
	}
	fmt.Println(tok)
}
