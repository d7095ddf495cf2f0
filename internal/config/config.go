package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	QuestionsFile string
	ResultsDelay  time.Duration
	BotDebug      bool
}

// Load reads settings from the environment, after loading .env files when
// present.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	delay, err := time.ParseDuration(getEnvOrDefault("QUIZ_RESULTS_DELAY", "1s"))
	if err != nil {
		return nil, fmt.Errorf("QUIZ_RESULTS_DELAY: %w", err)
	}
	if delay < 0 {
		return nil, fmt.Errorf("QUIZ_RESULTS_DELAY: negative duration %s", delay)
	}

	debug, err := strconv.ParseBool(getEnvOrDefault("BOT_DEBUG", "false"))
	if err != nil {
		return nil, fmt.Errorf("BOT_DEBUG: %w", err)
	}

	return &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		QuestionsFile: getEnvOrDefault("QUIZ_QUESTIONS_FILE", "questions.yaml"),
		ResultsDelay:  delay,
		BotDebug:      debug,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
