package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	SessionSecret     string
	GinMode           string
	LogLevel          string
	DayBoundary       *time.Location
	SeedSampleHabits  bool
	SuperRootUserName string
	SuperRootPassword string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "habitloop.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "habitloop-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	logLevel := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "info"
	}

	// 日界时区显式可配，避免按 UTC 截断导致午夜前后“今天”漂移
	dayBoundary := time.Local
	if tz := strings.TrimSpace(os.Getenv("TIMEZONE")); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			dayBoundary = loc
		}
	}

	seedSamples := strings.EqualFold(strings.TrimSpace(os.Getenv("SEED_SAMPLE_HABITS")), "true")

	superRootUserName := strings.TrimSpace(os.Getenv("SUPER_ROOT_USER_NAME"))
	superRootPassword := strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD"))

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabasePath:      databasePath,
		SessionSecret:     sessionSecret,
		GinMode:           ginMode,
		LogLevel:          logLevel,
		DayBoundary:       dayBoundary,
		SeedSampleHabits:  seedSamples,
		SuperRootUserName: superRootUserName,
		SuperRootPassword: superRootPassword,
	}
}
