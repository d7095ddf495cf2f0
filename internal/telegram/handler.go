package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/PoluyanbIch/GoQuiz/internal/eventloop"
	"github.com/PoluyanbIch/GoQuiz/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// game is one chat's quiz.
type game struct {
	engine *service.QuizEngine
	view   *chatView
	user   *tgbotapi.User
}

type Bot struct {
	api                sender
	loop               *eventloop.Loop
	games              map[int64]*game
	leaderboardService service.LeaderboardService
	quizQuestions      []service.QuizQuestion
	resultsDelay       time.Duration
}

func NewBot(api sender, leaderboardService service.LeaderboardService, questions []service.QuizQuestion, resultsDelay time.Duration) (*Bot, error) {
	if err := service.ValidateQuestions(questions); err != nil {
		return nil, err
	}

	return &Bot{
		api:                api,
		loop:               eventloop.New(64),
		games:              make(map[int64]*game),
		leaderboardService: leaderboardService,
		quizQuestions:      questions,
		resultsDelay:       resultsDelay,
	}, nil
}

// Run feeds Telegram updates into the bot's event loop until ctx is done.
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI) error {
	log.Printf("Authorised on account: %s", api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := api.GetUpdatesChan(u)
	go func() {
		for update := range updates {
			if !b.loop.Post(func() { b.handleUpdate(update) }) {
				return
			}
		}
	}()

	err := b.loop.Run(ctx)
	api.StopReceivingUpdates()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		chatID := update.Message.Chat.ID
		switch update.Message.Command() {
		case "start":
			b.sendMainMenu(chatID)
		case "quiz":
			b.startQuiz(chatID, update.Message.From)
		case "leaderboard":
			b.handleLeaderboard(chatID)
		case "info":
			b.handleInfo(chatID)
		default:
			b.sendMessage(chatID, "Unknown command. Try /quiz")
		}
	}
	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	callbackConfig := tgbotapi.NewCallback(callback.ID, "")
	if _, err := b.api.Request(callbackConfig); err != nil {
		log.Printf("Error answering callback: %v", err)
	}

	action, index := parseCallbackData(callback.Data)
	switch action {
	case actionStartQuiz, actionRestart:
		b.startQuiz(chatID, callback.From)
	case actionOption:
		b.handleAnswer(chatID, messageID, index, callback.From)
	case actionNext:
		b.handleAdvance(chatID, messageID, callback.From)
	case actionMenu:
		b.sendMainMenu(chatID)
	case actionInfo:
		b.handleInfo(chatID)
	case actionLeaderboard:
		b.handleLeaderboard(chatID)
	case actionNoop:
	default:
		b.sendMessage(chatID, "Unknown command")
	}
}

type callbackAction int

const (
	actionUnknown callbackAction = iota
	actionStartQuiz
	actionRestart
	actionOption
	actionNext
	actionMenu
	actionInfo
	actionLeaderboard
	actionNoop
)

// parseCallbackData decodes inline button data. index is only meaningful
// for actionOption.
func parseCallbackData(data string) (callbackAction, int) {
	switch data {
	case "start_quiz":
		return actionStartQuiz, 0
	case "restart":
		return actionRestart, 0
	case "next":
		return actionNext, 0
	case "back_to_menu":
		return actionMenu, 0
	case "info":
		return actionInfo, 0
	case "leaderboard":
		return actionLeaderboard, 0
	case "noop":
		return actionNoop, 0
	}

	if rest, ok := strings.CutPrefix(data, "opt_"); ok {
		i, err := strconv.Atoi(rest)
		if err != nil || i < 0 {
			return actionUnknown, 0
		}
		return actionOption, i
	}
	return actionUnknown, 0
}

func (b *Bot) startQuiz(chatID int64, user *tgbotapi.User) {
	g, exists := b.games[chatID]
	if !exists {
		view := newChatView(b.api, chatID)
		g = &game{view: view}
		engine, err := service.NewEngine(b.quizQuestions, view, b.loop,
			service.WithResultsDelay(b.resultsDelay),
			service.WithFinishHook(func(r service.Result) { b.recordResult(g, r) }),
		)
		if err != nil {
			log.Printf("Error creating quiz for chat %d: %v", chatID, err)
			return
		}
		g.engine = engine
		b.games[chatID] = g
	}

	g.user = user
	g.engine.Start()
	log.Printf("Chat %d started session %s", chatID, g.engine.Session().ID)
	b.flush(g)
}

func (b *Bot) handleAnswer(chatID int64, messageID, index int, user *tgbotapi.User) {
	g, exists := b.games[chatID]
	if !exists || !g.view.current(messageID) {
		return
	}
	option, ok := g.view.optionAt(index)
	if !ok {
		return
	}

	g.user = user
	if err := g.engine.SelectAnswer(option); err != nil {
		log.Printf("Chat %d: ignoring answer: %v", chatID, err)
		return
	}
	b.flush(g)
}

func (b *Bot) handleAdvance(chatID int64, messageID int, user *tgbotapi.User) {
	g, exists := b.games[chatID]
	if !exists || !g.view.current(messageID) {
		return
	}

	g.user = user
	if err := g.engine.Advance(); err != nil {
		log.Printf("Chat %d: ignoring advance: %v", chatID, err)
		return
	}
	b.flush(g)
}

// recordResult runs inside the engine's finish step, before the results
// message is flushed.
func (b *Bot) recordResult(g *game, r service.Result) {
	log.Printf("Chat %d finished session %s: %d/%d (%s)", g.view.chatID, r.SessionID, r.Score, r.Total, r.Tier)

	if g.user != nil {
		isNewBest := b.leaderboardService.AddEntry(g.user.ID, g.user.UserName, g.user.FirstName, r.Score, r.Total)
		if isNewBest {
			if position, _ := b.leaderboardService.GetUserPosition(g.user.ID); position != -1 {
				g.view.note(fmt.Sprintf("🎉 <b>New personal best!</b> You are #%d on the leaderboard.", position))
			}
		}
	}
	// Results arrive from a timer task, so nothing else flushes them.
	b.flush(g)
}

func (b *Bot) flush(g *game) {
	total := g.engine.Total()
	header := fmt.Sprintf("Question %d/%d", min(g.engine.Session().CurrentIndex+1, total), total)
	g.view.flush(header)
}

func (b *Bot) sendMainMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "📋 *Main menu*")
	msg.ParseMode = tgbotapi.ModeMarkdown

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Start quiz", "start_quiz"),
			tgbotapi.NewInlineKeyboardButtonData("🏆 Leaderboard", "leaderboard"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ About", "info"),
		),
	)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending menu: %v", err)
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending msg: %v", err)
	}
}

func (b *Bot) handleLeaderboard(chatID int64) {
	top := b.leaderboardService.GetTop(10)

	if len(top) == 0 {
		b.sendMessage(chatID, "🏆 Leaderboard\n\nNo results yet. Be the first! 🎯")
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatLeaderboard(top))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Start quiz", "start_quiz"),
			tgbotapi.NewInlineKeyboardButtonData("📋 Main menu", "back_to_menu"),
		),
	)

	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending leaderboard: %v", err)
	}
}

func formatLeaderboard(top []service.LeaderboardEntry) string {
	var sb strings.Builder
	sb.WriteString("🏆 <b>Top 10 players</b>\n\n")

	for i, entry := range top {
		username := entry.FirstName
		if entry.Username != "" {
			username = "@" + entry.Username
		}

		medal := "🔸"
		switch i {
		case 0:
			medal = "🥇"
		case 1:
			medal = "🥈"
		case 2:
			medal = "🥉"
		}

		fmt.Fprintf(&sb, "%s %d. %s - %d%% (%d/%d)\n   📅 %s\n\n",
			medal, i+1, html.EscapeString(username), entry.Percentage, entry.Score, entry.Total, entry.Date)
	}
	return sb.String()
}

func (b *Bot) handleInfo(chatID int64) {
	text := fmt.Sprintf("A %d-question multiple-choice quiz.\n"+
		"Pick an answer, then press Next. Your best score goes on the leaderboard.", len(b.quizQuestions))

	infoMsg := tgbotapi.NewMessage(chatID, text)
	infoMsg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back", "back_to_menu"),
		),
	)

	if _, err := b.api.Send(infoMsg); err != nil {
		log.Printf("Error sending info: %v", err)
	}
}
