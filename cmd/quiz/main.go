package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/PoluyanbIch/GoQuiz/internal/config"
	"github.com/PoluyanbIch/GoQuiz/internal/service"
	"github.com/PoluyanbIch/GoQuiz/internal/terminal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	questionsFile := flag.String("questions", cfg.QuestionsFile, "YAML question set")
	delay := flag.Duration("delay", cfg.ResultsDelay, "pause before the results are shown")
	flag.Parse()

	questions, err := service.LoadQuizQuestions(*questionsFile)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := terminal.Run(ctx, os.Stdin, os.Stdout, questions, *delay); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
