package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.base_url", "https://api.telegram.org")
	viper.SetDefault("telegram.poll_timeout", 30*time.Second)
	viper.SetDefault("telegram.send_timeout", 10*time.Second)
	viper.SetDefault("telegram.error_backoff", 5*time.Second)

	viper.SetDefault("bot.op_timeout", 30*time.Second)

	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "goalbot.db")

	viper.SetDefault("http.addr", "127.0.0.1:8080")

	viper.SetDefault("reminders.enabled", true)
	viper.SetDefault("reminders.hour", 6)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)
}

// configKeys lists the settings shown by `config show`.
var configKeys = []string{
	"telegram.bot_token",
	"telegram.base_url",
	"telegram.poll_timeout",
	"telegram.send_timeout",
	"telegram.error_backoff",
	"bot.op_timeout",
	"database.driver",
	"database.dsn",
	"http.addr",
	"reminders.enabled",
	"reminders.hour",
	"logging.level",
	"logging.format",
	"logging.add_source",
}
