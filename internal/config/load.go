package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load initializes the configuration from file and environment variables.
func Load(cfgFile string) {
	// explicit .env loading; missing file is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("CVEBOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("nvd.base_url", "https://services.nvd.nist.gov/rest/json")
	viper.SetDefault("pagination.timeout", 60)
	viper.SetDefault("latest.count", 10)
	viper.SetDefault("latest.window_days", 7)
	viper.SetDefault("metrics.port", 2112)
	viper.SetDefault("slack.channel", "")
	viper.SetDefault("verbose", false)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// Bot holds the credentials and identifiers the chat bot needs at startup.
type Bot struct {
	BotToken          string
	AppToken          string
	ChannelID         string
	PaginationTimeout time.Duration
	LatestCount       int
	LatestWindow      time.Duration
}

// BotFromEnv assembles the bot configuration. The two Slack tokens are
// required; everything else has defaults.
func BotFromEnv() (Bot, error) {
	botToken := os.Getenv("SLACK_BOT_TOKEN")
	if botToken == "" {
		return Bot{}, fmt.Errorf("SLACK_BOT_TOKEN is not set")
	}
	appToken := os.Getenv("SLACK_APP_TOKEN")
	if appToken == "" {
		return Bot{}, fmt.Errorf("SLACK_APP_TOKEN is not set")
	}
	if !strings.HasPrefix(appToken, "xapp-") {
		return Bot{}, fmt.Errorf("SLACK_APP_TOKEN must be an app-level token (xapp-...)")
	}

	return Bot{
		BotToken:          botToken,
		AppToken:          appToken,
		ChannelID:         viper.GetString("slack.channel"),
		PaginationTimeout: time.Duration(viper.GetInt("pagination.timeout")) * time.Second,
		LatestCount:       viper.GetInt("latest.count"),
		LatestWindow:      time.Duration(viper.GetInt("latest.window_days")) * 24 * time.Hour,
	}, nil
}
