package main

import (
	"log/slog"
	"os"

	"github.com/cvdnnn/clark-county-apn-scraper/lib/telemetry"
	"github.com/cvdnnn/clark-county-apn-scraper/services/parcels"

	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

type ScraperConfig struct {
	BaseUrl        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	MaxRetries     int    `json:"max_retries"`
	VerifyTls      bool   `json:"verify_tls"`
	CacheDir       string `json:"cache_dir"`
	CacheTTLHours  int    `json:"cache_ttl_hours"`
	DelayMs        int    `json:"delay_ms"`
}

type Config struct {
	Port        int                 `json:"port"`
	AccessToken string              `json:"access_token"`
	Database    string              `json:"database"`
	Scraper     ScraperConfig       `json:"scraper"`
	Smtp        *parcels.SmtpConfig `json:"smtp"`
	Telemetry   telemetry.Config    `json:"telemetry"`
}

func MustLoadConfig(path string) Config {
	// a .env next to the binary holds the secrets the config file
	// shouldn't
	godotenv.Load()

	cfgFile, err := os.ReadFile(path)
	if err != nil {
		slog.Error("failed to open config file", "err", err.Error())
		os.Exit(1)
	}

	config := Config{}
	err = json5.Unmarshal(cfgFile, &config)
	if err != nil {
		slog.Error("failed to parse config file", "err", err.Error())
		os.Exit(1)
	}

	if token := os.Getenv("APN_ACCESS_TOKEN"); token != "" {
		config.AccessToken = token
	}
	if database := os.Getenv("APN_DATABASE"); database != "" {
		config.Database = database
	}
	if password := os.Getenv("APN_SMTP_PASSWORD"); password != "" && config.Smtp != nil {
		config.Smtp.Password = password
	}

	if config.Port == 0 {
		config.Port = 8000
	}
	if config.Database == "" {
		config.Database = "parcels.db"
	}
	return config
}
