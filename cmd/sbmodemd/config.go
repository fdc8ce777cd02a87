package main

import (
	"errors"
	"fmt"
	"os"

	"sbmodem-exporter/lib/configutil"
)

type Config struct {
	BaseUrl             string `json:"base_url"`
	Username            string `json:"username"`
	Password            string `json:"password"`
	Port                int    `json:"port"`
	PollIntervalSeconds int    `json:"poll_interval_seconds"`
	LogLevel            string `json:"log_level"`
}

// LoadConfig layers an optional config.json5 over the defaults, then
// the environment over both. Env always wins so the container story
// stays simple.
func LoadConfig() (Config, error) {
	config := Config{
		BaseUrl: "https://192.168.100.1",
		// The support docs don't indicate the username can be changed.
		Username:            "admin",
		Port:                8200,
		PollIntervalSeconds: 60,
		LogLevel:            "INFO",
	}

	fromFile, err := configutil.ReadConfig[Config]("config.json5")
	if err == nil {
		if fromFile.BaseUrl != "" {
			config.BaseUrl = fromFile.BaseUrl
		}
		if fromFile.Username != "" {
			config.Username = fromFile.Username
		}
		if fromFile.Password != "" {
			config.Password = fromFile.Password
		}
		if fromFile.Port != 0 {
			config.Port = fromFile.Port
		}
		if fromFile.PollIntervalSeconds != 0 {
			config.PollIntervalSeconds = fromFile.PollIntervalSeconds
		}
		if fromFile.LogLevel != "" {
			config.LogLevel = fromFile.LogLevel
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config.json5: %w", err)
	}

	configutil.EnvString(&config.BaseUrl, "MODEM_BASE_URL")
	configutil.EnvString(&config.Username, "MODEM_USERNAME")
	configutil.EnvString(&config.Password, "MODEM_PASSWORD")
	configutil.EnvString(&config.LogLevel, "LOG_LEVEL")
	if err := configutil.EnvInt(&config.Port, "METRICS_PORT"); err != nil {
		return Config{}, err
	}
	if err := configutil.EnvInt(&config.PollIntervalSeconds, "METRICS_POLL_INTERVAL_SECONDS"); err != nil {
		return Config{}, err
	}

	if config.Password == "" {
		return Config{}, fmt.Errorf("MODEM_PASSWORD is required")
	}
	if config.PollIntervalSeconds <= 0 {
		return Config{}, fmt.Errorf("METRICS_POLL_INTERVAL_SECONDS must be positive")
	}
	return config, nil
}
