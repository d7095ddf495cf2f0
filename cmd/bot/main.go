package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/PoluyanbIch/GoQuiz/internal/config"
	"github.com/PoluyanbIch/GoQuiz/internal/service"
	"github.com/PoluyanbIch/GoQuiz/internal/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable is required")
	}

	questions, err := service.LoadQuizQuestions(cfg.QuestionsFile)
	if err != nil {
		log.Fatal(err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal(err)
	}
	api.Debug = cfg.BotDebug

	// Results live only as long as the process.
	leaderboardService := service.NewMemoryLeaderboardService()

	bot, err := telegram.NewBot(api, leaderboardService, questions, cfg.ResultsDelay)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("🤖 Bot is starting...")
	if err := bot.Run(ctx, api); err != nil {
		log.Fatal(err)
	}
	log.Println("Bot stopped")
}
