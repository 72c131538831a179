// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string   `yaml:"token"`
	Username string   `yaml:"username"`
	Workers  int      `yaml:"workers"` // polling workers, sharded by chat
	AdminIDs []string `yaml:"admin_ids"`
	// GroupChatID is the primary destination for group posts: a numeric id or @channel.
	GroupChatID string `yaml:"group_chat_id"`
	// StatusChatID receives dispatch summaries; defaults to the first admin.
	StatusChatID string `yaml:"status_chat_id"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port       int           `yaml:"port"`
	HookSecret string        `yaml:"hook_secret"` // empty disables hook auth
	Timeout    time.Duration `yaml:"timeout"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // postgres | sqlite
	URL    string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"` // empty disables redis
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ConversationConfig struct {
	Store   string        `yaml:"store"`    // memory | redis
	IdleTTL time.Duration `yaml:"idle_ttl"` // 0 keeps drafts until a terminal step
}

type ScheduleConfig struct {
	BirthdayCron       string `yaml:"birthday_cron"`
	EventsCron         string `yaml:"events_cron"`
	HalfDayCron        string `yaml:"half_day_cron"`
	BirthdayOffsetDays int    `yaml:"birthday_offset_days"`
	EventOffsetDays    int    `yaml:"event_offset_days"`
}

// DefaultBirthdayOffsetDays announces birthdays one day ahead. An explicit 0
// in the file checks the same day.
const DefaultBirthdayOffsetDays = 1

type BirthdayConfig struct {
	Mode           string `yaml:"mode"` // group | individual | both
	Amount         string `yaml:"amount"`
	CardNumber     string `yaml:"card_number"`
	CardHolder     string `yaml:"card_holder"` // name printed next to the card number
	// CardOwner receives the payment screenshot: a numeric user id or @username.
	CardOwner string `yaml:"card_owner"`
	CollectionNote string `yaml:"collection_note"`
}

type DispatchConfig struct {
	Pace time.Duration `yaml:"pace"` // pause between sequential sends
}

type RateLimitConfig struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

type Config struct {
	Bot          BotConfig          `yaml:"bot"`
	Log          LogConfig          `yaml:"log"`
	HTTP         HTTPConfig         `yaml:"http"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Conversation ConversationConfig `yaml:"conversation"`
	Schedule     ScheduleConfig     `yaml:"schedule"`
	Birthday     BirthdayConfig     `yaml:"birthday"`
	Dispatch     DispatchConfig     `yaml:"dispatch"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Timezone     string             `yaml:"timezone"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig parses flags, loads .env and the yaml file, applies environment
// overrides, then normalizes and validates the result.
func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	return load(configPath, dev)
}

// Load reads configuration from path. A missing file is allowed when the
// environment carries the required settings.
func Load(path string) (*Config, error) { return load(path, false) }

func load(path string, dev bool) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	// keys absent from the file keep these values
	cfg := Config{
		Runtime:  RuntimeConfig{Dev: dev},
		Schedule: ScheduleConfig{BirthdayOffsetDays: DefaultBirthdayOffsetDays},
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TOKEN"); v != "" {
		c.Bot.Token = v
	}
	if v := os.Getenv("ADMIN_ID"); v != "" {
		c.Bot.AdminIDs = splitList(v)
	}
	if v := os.Getenv("GROUP_CHAT_ID"); v != "" {
		c.Bot.GroupChatID = v
	}
	if v := os.Getenv("CARD_OWNER"); v != "" {
		c.Birthday.CardOwner = v
	}
	if v := os.Getenv("CARD_HOLDER"); v != "" {
		c.Birthday.CardHolder = v
	}
	if v := os.Getenv("CARD_NUMBER"); v != "" {
		c.Birthday.CardNumber = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("HOOK_SECRET"); v != "" {
		c.HTTP.HookSecret = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PORT: %w", err)
		}
		c.HTTP.Port = port
	}
	return nil
}

// Normalize fills defaults for anything left unset.
func (c *Config) Normalize() {
	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 4
	}
	if c.Bot.StatusChatID == "" && len(c.Bot.AdminIDs) > 0 {
		c.Bot.StatusChatID = c.Bot.AdminIDs[0]
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3000
	}
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = 2 * time.Minute
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.Driver == "sqlite" && c.Database.URL == "" {
		c.Database.URL = "notify.db"
	}
	if c.Conversation.Store == "" {
		c.Conversation.Store = "memory"
	}
	if c.Birthday.Mode == "" {
		c.Birthday.Mode = "group"
	}
	if c.RateLimit.Limit <= 0 {
		c.RateLimit.Limit = 5
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
}

// Validate rejects configurations the bot cannot start with.
func (c *Config) Validate() error {
	// dev mode runs without telegram
	if c.Bot.Token == "" && !c.Runtime.Dev {
		return errors.New("bot.token is required")
	}
	if len(c.Bot.AdminIDs) == 0 {
		return errors.New("bot.admin_ids is required")
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required")
		}
	case "sqlite":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	switch c.Conversation.Store {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for conversation.store=redis")
		}
	default:
		return fmt.Errorf("conversation.store %q is not supported", c.Conversation.Store)
	}
	switch c.Birthday.Mode {
	case "group", "individual", "both":
	default:
		return fmt.Errorf("birthday.mode %q is not supported", c.Birthday.Mode)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	return nil
}

// Location returns the configured time zone; Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
