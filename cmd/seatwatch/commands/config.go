package commands

import (
	"os"
	"strings"

	"seatwatch/lib/configutil"
	emailnotify "seatwatch/lib/notify/email"

	"github.com/joho/godotenv"
)

type DiscordConfig struct {
	WebhookUrl string `json:"webhook_url"`
	UserId     string `json:"user_id"`
}

type Config struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// course identifiers like "CSCI 101"
	Courses []string `json:"courses"`
	// section codes (5 digit class numbers) to watch
	Sections   []string             `json:"sections"`
	AutoEnroll bool                 `json:"auto_enroll"`
	Hour24     bool                 `json:"hour_24"`
	Discord    DiscordConfig        `json:"discord"`
	Email      *emailnotify.Options `json:"email"`
}

// loadConfig reads config.json5 (with .local overrides) and backfills
// from the environment. A .env file next to the binary is honored.
func loadConfig() (Config, error) {
	godotenv.Load()

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		return cfg, err
	}
	return applyEnv(cfg, os.Getenv), nil
}

func applyEnv(cfg Config, getenv func(string) string) Config {
	if v := getenv("CUNY_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := getenv("CUNY_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Discord.WebhookUrl = v
	}
	if v := getenv("DISCORD_USER_ID"); v != "" {
		cfg.Discord.UserId = v
	}
	if v := getenv("COURSE_NAMES"); v != "" {
		cfg.Courses = splitList(v)
	}
	if v := getenv("COURSE_CODES"); v != "" {
		cfg.Sections = splitList(v)
	}
	return cfg
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
