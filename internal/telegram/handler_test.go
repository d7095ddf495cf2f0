package telegram

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PoluyanbIch/GoQuiz/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	nextID   int
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if _, ok := c.(tgbotapi.CallbackConfig); !ok {
		f.requests = append(f.requests, c)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if msg, ok := f.sent[i].(tgbotapi.MessageConfig); ok {
			return msg
		}
	}
	t.Fatal("no message sent")
	return tgbotapi.MessageConfig{}
}

func (f *fakeSender) lastEdit(t *testing.T) tgbotapi.EditMessageTextConfig {
	t.Helper()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if edit, ok := f.requests[i].(tgbotapi.EditMessageTextConfig); ok {
			return edit
		}
	}
	t.Fatal("no edit sent")
	return tgbotapi.EditMessageTextConfig{}
}

const testChat = 42

var testUser = &tgbotapi.User{ID: 7, UserName: "ann", FirstName: "Ann"}

func command(name string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: testUser,
		Chat: &tgbotapi.Chat{ID: testChat},
		Text: "/" + name,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(name) + 1},
		},
	}}
}

func callback(messageID int, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    testUser,
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: testChat}},
		Data:    data,
	}}
}

func newTestBot(t *testing.T) (*Bot, *fakeSender, *service.MemoryLeaderboardService) {
	t.Helper()
	api := &fakeSender{}
	lb := service.NewMemoryLeaderboardService()
	bot, err := NewBot(api, lb, service.DefaultQuizQuestions(), time.Millisecond)
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	return bot, api, lb
}

func buttonData(kb interface{}) []string {
	markup, ok := kb.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		return nil
	}
	var data []string
	for _, row := range markup.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil {
				data = append(data, *b.CallbackData)
			}
		}
	}
	return data
}

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		data       string
		wantAction callbackAction
		wantIndex  int
	}{
		{"start_quiz", actionStartQuiz, 0},
		{"restart", actionRestart, 0},
		{"next", actionNext, 0},
		{"back_to_menu", actionMenu, 0},
		{"leaderboard", actionLeaderboard, 0},
		{"noop", actionNoop, 0},
		{"opt_3", actionOption, 3},
		{"opt_x", actionUnknown, 0},
		{"opt_-1", actionUnknown, 0},
		{"quiz_1_2", actionUnknown, 0},
	}

	for _, tc := range tests {
		t.Run(tc.data, func(t *testing.T) {
			action, index := parseCallbackData(tc.data)
			if action != tc.wantAction || index != tc.wantIndex {
				t.Errorf("parseCallbackData(%q) = %d, %d; want %d, %d", tc.data, action, index, tc.wantAction, tc.wantIndex)
			}
		})
	}
}

func TestQuizFlow(t *testing.T) {
	bot, api, lb := newTestBot(t)

	bot.handleUpdate(command("quiz"))

	question := api.lastMessage(t)
	if !strings.Contains(question.Text, "Question 1/5") || !strings.Contains(question.Text, "capital city of Japan") {
		t.Fatalf("unexpected question text %q", question.Text)
	}
	if got := buttonData(question.ReplyMarkup); strings.Join(got, ",") != "opt_0,opt_1,opt_2,opt_3" {
		t.Fatalf("buttons = %v", got)
	}
	questionID := api.nextID

	// Wrong answer on the first question.
	bot.handleUpdate(callback(questionID, "opt_0"))
	edit := api.lastEdit(t)
	if edit.MessageID != questionID {
		t.Fatalf("edited message %d, want %d", edit.MessageID, questionID)
	}
	if got := buttonData(*edit.ReplyMarkup); strings.Join(got, ",") != "noop,noop,noop,noop,next" {
		t.Errorf("buttons after answer = %v", got)
	}
	labels := edit.ReplyMarkup.InlineKeyboard
	if labels[0][0].Text != "❌ Beijing" || labels[2][0].Text != "✅ Tokyo" {
		t.Errorf("marks = %q / %q", labels[0][0].Text, labels[2][0].Text)
	}

	// A second answer on the same question changes nothing.
	edits := len(api.requests)
	bot.handleUpdate(callback(questionID, "opt_2"))
	if len(api.requests) != edits {
		t.Errorf("repeat answer produced %d extra requests", len(api.requests)-edits)
	}

	answers := []string{"opt_1", "opt_1", "opt_1", "opt_2"}
	for i, data := range answers {
		bot.handleUpdate(callback(questionID, "next"))
		if api.nextID == questionID {
			t.Fatalf("question %d not sent", i+2)
		}
		questionID = api.nextID

		// Clicking Next on an old question does nothing.
		sent := len(api.sent)
		bot.handleUpdate(callback(questionID-1, "next"))
		if len(api.sent) != sent {
			t.Fatalf("stale next click sent a message")
		}

		bot.handleUpdate(callback(questionID, data))
	}

	if bot.loop.Pending() != 1 {
		t.Fatalf("expected a pending results callback, got %d", bot.loop.Pending())
	}

	bot.loop.Post(bot.loop.StopWhenIdle)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bot.loop.Run(ctx); err != nil {
		t.Fatalf("loop: %v", err)
	}

	results := api.lastMessage(t)
	if !strings.Contains(results.Text, "Result: 4/5") || !strings.Contains(results.Text, "Excellent work!") {
		t.Errorf("unexpected results text %q", results.Text)
	}
	if !strings.Contains(results.Text, "#1 on the leaderboard") {
		t.Errorf("expected leaderboard note in %q", results.Text)
	}
	if got := buttonData(results.ReplyMarkup); strings.Join(got, ",") != "restart,back_to_menu" {
		t.Errorf("results buttons = %v", got)
	}

	if pos, entry := lb.GetUserPosition(testUser.ID); pos != 1 || entry.Score != 4 {
		t.Errorf("leaderboard position %d entry %+v", pos, entry)
	}

	// Restart begins a fresh quiz with a new message.
	bot.handleUpdate(callback(api.nextID, "restart"))
	restarted := api.lastMessage(t)
	if !strings.Contains(restarted.Text, "Question 1/5") || !strings.Contains(restarted.Text, "Score: 0") {
		t.Errorf("unexpected restart text %q", restarted.Text)
	}
}

func TestRestartMidQuizRetiresOldKeyboard(t *testing.T) {
	bot, api, _ := newTestBot(t)

	bot.handleUpdate(command("quiz"))
	oldID := api.nextID
	bot.handleUpdate(callback(oldID, "opt_2"))

	requests := len(api.requests)
	bot.handleUpdate(command("quiz"))

	var retired *tgbotapi.EditMessageReplyMarkupConfig
	for _, r := range api.requests[requests:] {
		if edit, ok := r.(tgbotapi.EditMessageReplyMarkupConfig); ok {
			retired = &edit
		}
	}
	if retired == nil {
		t.Fatal("old question keyboard was not edited")
	}
	if retired.MessageID != oldID {
		t.Errorf("retired message %d, want %d", retired.MessageID, oldID)
	}
	if got := buttonData(*retired.ReplyMarkup); strings.Join(got, ",") != "noop,noop,noop,noop" {
		t.Errorf("retired buttons = %v", got)
	}
	if label := retired.ReplyMarkup.InlineKeyboard[2][0].Text; label != "✅ Tokyo" {
		t.Errorf("retired keyboard lost its marks: %q", label)
	}

	newID := api.nextID
	if newID == oldID {
		t.Fatal("restart did not send a new question")
	}
	if got := buttonData(api.lastMessage(t).ReplyMarkup); strings.Join(got, ",") != "opt_0,opt_1,opt_2,opt_3" {
		t.Errorf("new question buttons = %v", got)
	}

	sent := len(api.sent)
	bot.handleUpdate(callback(oldID, "next"))
	if len(api.sent) != sent {
		t.Error("next on the old question sent a message")
	}
}

func TestCallbackWithoutGameIsIgnored(t *testing.T) {
	bot, api, _ := newTestBot(t)

	bot.handleUpdate(callback(1, "opt_0"))
	bot.handleUpdate(callback(1, "next"))

	if len(api.sent) != 0 || len(api.requests) != 0 {
		t.Errorf("expected no output, got %d messages and %d requests", len(api.sent), len(api.requests))
	}
}

func TestLeaderboardCommand(t *testing.T) {
	bot, api, lb := newTestBot(t)

	bot.handleUpdate(command("leaderboard"))
	if msg := api.lastMessage(t); !strings.Contains(msg.Text, "No results yet") {
		t.Errorf("unexpected empty leaderboard text %q", msg.Text)
	}

	lb.AddEntry(1, "", "A<b>", 5, 5)
	lb.AddEntry(2, "bob", "Bob", 3, 5)
	bot.handleUpdate(command("leaderboard"))

	msg := api.lastMessage(t)
	if msg.ParseMode != tgbotapi.ModeHTML {
		t.Errorf("parse mode = %q", msg.ParseMode)
	}
	if !strings.Contains(msg.Text, "🥇 1. A&lt;b&gt; - 100% (5/5)") || !strings.Contains(msg.Text, "🥈 2. @bob - 60% (3/5)") {
		t.Errorf("unexpected leaderboard text %q", msg.Text)
	}
}
