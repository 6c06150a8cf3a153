package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port    string
	Env     string
	LogMode string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Quiz
	QuizDefaultQuestions int
	QuizSessionTTL       time.Duration

	// Speech
	SpeechEnabled  bool
	SpeechLanguage string
	SpeechTimeout  time.Duration

	// Worker
	WorkerCount int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	env := getEnvOrDefault("ENV", "development")

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  env,
		LogMode:              getEnvOrDefault("LOG_MODE", env),
		DatabaseURL:          mustGetEnv("DATABASE_URL"),
		RedisURL:             mustGetEnv("REDIS_URL"),
		JWTSecret:            mustGetEnv("JWT_SECRET"),
		QuizDefaultQuestions: getEnvAsIntOrDefault("QUIZ_DEFAULT_QUESTIONS", 5),
		QuizSessionTTL:       time.Duration(getEnvAsIntOrDefault("QUIZ_SESSION_TTL_MINUTES", 60)) * time.Minute,
		SpeechEnabled:        getEnvAsBoolOrDefault("SPEECH_ENABLED", false),
		SpeechLanguage:       getEnvOrDefault("SPEECH_LANGUAGE", "ja-JP"),
		SpeechTimeout:        time.Duration(getEnvAsIntOrDefault("SPEECH_TIMEOUT_MS", 3000)) * time.Millisecond,
		WorkerCount:          getEnvAsIntOrDefault("WORKER_COUNT", 2),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
