package telegram

import (
	"fmt"
	"html"
	"log"

	"github.com/PoluyanbIch/GoQuiz/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of *tgbotapi.BotAPI the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type results struct {
	score, total int
	message      string
	notes        []string
}

// chatView renders one chat's quiz. Render calls only update local state;
// flush turns them into at most a few API calls once the event is handled.
type chatView struct {
	api    sender
	chatID int64

	messageID int
	prompt    string
	options   []string
	marks     map[string]service.OptionStatus
	disabled  bool
	advance   bool
	score     int

	fresh   bool
	dirty   bool
	retired *tgbotapi.EditMessageReplyMarkupConfig
	results *results
}

var _ service.ViewSurface = (*chatView)(nil)

func newChatView(api sender, chatID int64) *chatView {
	return &chatView{
		api:    api,
		chatID: chatID,
		marks:  make(map[string]service.OptionStatus),
	}
}

func (v *chatView) RenderQuestion(prompt string, options []string) {
	if v.messageID != 0 && v.advance {
		edit := tgbotapi.NewEditMessageReplyMarkup(v.chatID, v.messageID, v.keyboard(false))
		v.retired = &edit
	}

	v.prompt = prompt
	v.options = options
	v.marks = make(map[string]service.OptionStatus)
	v.disabled = false
	v.advance = false
	v.fresh = true
	v.dirty = true
}

func (v *chatView) MarkOption(option string, status service.OptionStatus) {
	v.marks[option] = status
	v.dirty = true
}

func (v *chatView) DisableOptions() {
	v.disabled = true
	v.dirty = true
}

func (v *chatView) ShowAdvanceControl() {
	v.advance = true
	v.dirty = true
}

func (v *chatView) ShowResults(score, total int, message string) {
	v.advance = false
	v.results = &results{score: score, total: total, message: message}
}

func (v *chatView) ResetToQuestionView() {
	v.results = nil
	v.retired = nil
	if v.messageID != 0 {
		// Restarted mid-quiz: leave the old question visible but inert.
		v.disabled = true
		edit := tgbotapi.NewEditMessageReplyMarkup(v.chatID, v.messageID, v.keyboard(false))
		v.retired = &edit
	}
	v.messageID = 0
	v.advance = false
}

func (v *chatView) UpdateScoreDisplay(score int) {
	v.score = score
	v.dirty = true
}

// note appends a line to the pending results message.
func (v *chatView) note(text string) {
	if v.results != nil {
		v.results.notes = append(v.results.notes, text)
	}
}

// optionAt maps a callback's option index to the rendered option.
func (v *chatView) optionAt(i int) (string, bool) {
	if i < 0 || i >= len(v.options) {
		return "", false
	}
	return v.options[i], true
}

// current reports whether messageID is the live question message.
func (v *chatView) current(messageID int) bool {
	return v.messageID != 0 && v.messageID == messageID
}

func (v *chatView) flush(header string) {
	if v.retired != nil {
		if _, err := v.api.Request(*v.retired); err != nil {
			log.Printf("Error retiring question keyboard: %v", err)
		}
		v.retired = nil
	}

	if v.dirty && v.prompt != "" {
		text := v.questionText(header)
		if v.fresh || v.messageID == 0 {
			msg := tgbotapi.NewMessage(v.chatID, text)
			msg.ParseMode = tgbotapi.ModeHTML
			msg.ReplyMarkup = v.keyboard(v.advance)
			sent, err := v.api.Send(msg)
			if err != nil {
				log.Printf("Error sending question: %v", err)
			} else {
				v.messageID = sent.MessageID
			}
		} else {
			edit := tgbotapi.NewEditMessageTextAndMarkup(v.chatID, v.messageID, text, v.keyboard(v.advance))
			edit.ParseMode = tgbotapi.ModeHTML
			if _, err := v.api.Request(edit); err != nil {
				log.Printf("Error updating question: %v", err)
			}
		}
	}
	v.fresh = false
	v.dirty = false

	if v.results != nil {
		msg := tgbotapi.NewMessage(v.chatID, v.resultsText())
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🎯 Play again", "restart"),
				tgbotapi.NewInlineKeyboardButtonData("🔙 Menu", "back_to_menu"),
			),
		)
		if _, err := v.api.Send(msg); err != nil {
			log.Printf("Error sending results: %v", err)
		}
		v.results = nil
		v.messageID = 0
		v.prompt = ""
	}
}

func (v *chatView) questionText(header string) string {
	return fmt.Sprintf("❓ <b>%s</b>\n\n%s\n\n🏆 Score: %d",
		html.EscapeString(header), html.EscapeString(v.prompt), v.score)
}

func (v *chatView) resultsText() string {
	r := v.results
	text := fmt.Sprintf("🏁 <b>Quiz finished!</b>\n\n📊 Result: %d/%d\n\n%s",
		r.score, r.total, html.EscapeString(r.message))
	for _, n := range r.notes {
		text += "\n\n" + n
	}
	return text
}

func (v *chatView) keyboard(withAdvance bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, option := range v.options {
		label := option
		switch v.marks[option] {
		case service.StatusCorrect:
			label = "✅ " + option
		case service.StatusIncorrect:
			label = "❌ " + option
		}

		data := fmt.Sprintf("opt_%d", i)
		if v.disabled {
			data = "noop"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, data),
		))
	}

	if withAdvance {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➡️ Next", "next"),
		))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
