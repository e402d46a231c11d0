package bot

import (
	"os"
	"strconv"
	"time"

	"github.com/example/pepelbot/internal/scheduler"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// How many rows the personal report shows
	HistoryLimit int
	// Cron spec for the weekly check-in broadcast (UTC)
	BroadcastCron string
	// Upper bound for a single Telegram API call, so one unreachable
	// recipient cannot stall a broadcast cycle
	SendTimeout time.Duration
}

// DefaultConfig returns the default bot configuration, with overrides from
// the environment
func DefaultConfig() *BotConfig {
	cfg := &BotConfig{
		HistoryLimit:  10,
		BroadcastCron: scheduler.DefaultCronSpec,
		SendTimeout:   30 * time.Second,
	}
	if spec := os.Getenv("BROADCAST_CRON"); spec != "" {
		cfg.BroadcastCron = spec
	}
	if limitStr := os.Getenv("REPORT_HISTORY_LIMIT"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}
	if secondsStr := os.Getenv("SEND_TIMEOUT_SECONDS"); secondsStr != "" {
		if n, err := strconv.Atoi(secondsStr); err == nil && n > 0 {
			cfg.SendTimeout = time.Duration(n) * time.Second
		}
	}
	return cfg
}
