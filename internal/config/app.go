package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"
)

type AppConfig struct {
	Name               string
	Env                string
	Port               string
	BaseURL            string
	Timezone           string
	DailyIdeaLimit     int
	WorkerConcurrency  int
	WorkerPollInterval time.Duration
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "development"
			log.Printf("Warning: APP_ENV not set, defaulting to %s", env)
		}
		appConfig = &AppConfig{
			Name:               os.Getenv("APP_NAME"),
			Env:                env,
			Port:               os.Getenv("APP_PORT"),
			BaseURL:            os.Getenv("APP_URL"),
			Timezone:           envOr("APP_TIMEZONE", "UTC"),
			DailyIdeaLimit:     envInt("DAILY_IDEA_LIMIT", 3),
			WorkerConcurrency:  envInt("WORKER_CONCURRENCY", 2),
			WorkerPollInterval: envDuration("WORKER_POLL_INTERVAL", 2*time.Second),
		}
	})
	return appConfig
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not a duration, using %s", key, v, fallback)
		return fallback
	}
	return d
}
