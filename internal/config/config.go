package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	DBUrl  string
	AppEnv string

	// Rotation tuning. The clinic contract is 30-minute segments with a
	// 2-minute grace margin before a rotation counts as overdue, three
	// professional slots per room, and a 10-second screen refresh.
	SegmentMinutes int
	GraceMinutes   int
	SlotsPerRoom   int
	RefreshSeconds int

	// AutoRotate makes the refresh monitor advance overdue sessions on its
	// own, mirroring the scheduled job the legacy database ran.
	AutoRotate bool
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		DBUrl:          getEnv("DB_URL", ""),
		AppEnv:         normalizeEnv(getEnv("APP_ENV", "production")),
		SegmentMinutes: getEnvInt("SEGMENT_MINUTES", 30),
		GraceMinutes:   getEnvInt("GRACE_MINUTES", 2),
		SlotsPerRoom:   getEnvInt("SLOTS_PER_ROOM", 3),
		RefreshSeconds: getEnvInt("REFRESH_SECONDS", 10),
		AutoRotate:     getEnvBool("AUTO_ROTATE", false),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
