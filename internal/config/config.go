package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Chat     ChatConfig
	Database DatabaseConfig
	LogLevel string
}

type ServerConfig struct {
	TCPAddr         string
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type ChatConfig struct {
	// RoomCapacity is the number of events buffered per subscription before
	// a slow reader starts missing events.
	RoomCapacity int
	MaxLineBytes int
}

// DatabaseConfig is optional; an empty URL disables the presence mirror.
type DatabaseConfig struct {
	URL string
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Error loading .env file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			TCPAddr:         getEnvOrDefault("TCP_ADDR", ":7878"),
			HTTPAddr:        getEnvOrUnset("HTTP_ADDR", ":8080"),
			ReadTimeout:     getDurationOrDefault("READ_TIMEOUT", "0s"),
			WriteTimeout:    getDurationOrDefault("WRITE_TIMEOUT", "10s"),
			ShutdownTimeout: getDurationOrDefault("SHUTDOWN_TIMEOUT", "15s"),
		},
		Chat: ChatConfig{
			RoomCapacity: getIntOrDefault("ROOM_CAPACITY", 1024),
			MaxLineBytes: getIntOrDefault("MAX_LINE_BYTES", 1<<20),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrUnset returns defaultValue only when key is absent, so an explicit
// empty value can switch a listener off.
func getEnvOrUnset(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key, defaultValue string) time.Duration {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("Invalid duration for %s: %v", key, err)
	}
	return duration
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil || intValue <= 0 {
		log.Fatalf("Invalid integer for %s: %q", key, value)
	}
	return intValue
}
