package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr  string
	LogLevel  string
	CORSAllow []string

	// RoomIDLength controls generated room id size.
	RoomIDLength int

	// CreateUnknownRooms restores the legacy join policy: an unknown room id
	// creates a fresh room instead of rejecting the join.
	CreateUnknownRooms bool

	// RateLimitPerMin caps HTTP requests per client IP per minute.
	RateLimitPerMin int
}

func Load() Config {
	return Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllow:          splitCSV(getEnv("CORS_ALLOW", "*")),
		RoomIDLength:       getEnvInt("ROOM_ID_LENGTH", 5),
		CreateUnknownRooms: getEnvBool("CREATE_UNKNOWN_ROOMS", false),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MIN", 120),
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return def
}

func getEnvBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
