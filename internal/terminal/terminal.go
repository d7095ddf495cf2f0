// Package terminal plays the quiz over a line-oriented text stream.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PoluyanbIch/GoQuiz/internal/eventloop"
	"github.com/PoluyanbIch/GoQuiz/internal/service"
)

const help = "Type 1-4 to answer, n for the next question, r to restart, q to quit."

// View writes every render call as plain text.
type View struct {
	w        io.Writer
	options  []string
	disabled bool
}

var _ service.ViewSurface = (*View)(nil)

func NewView(w io.Writer) *View {
	return &View{w: w}
}

func (v *View) RenderQuestion(prompt string, options []string) {
	v.options = options
	v.disabled = false

	fmt.Fprintf(v.w, "\n%s\n", prompt)
	for i, o := range options {
		fmt.Fprintf(v.w, "  %d) %s\n", i+1, o)
	}
}

func (v *View) MarkOption(option string, status service.OptionStatus) {
	mark := "✔"
	if status == service.StatusIncorrect {
		mark = "✘"
	}
	fmt.Fprintf(v.w, "  %s %s (%s)\n", mark, option, status)
}

func (v *View) DisableOptions() {
	v.disabled = true
}

func (v *View) ShowAdvanceControl() {
	fmt.Fprintln(v.w, "Press n for the next question.")
}

func (v *View) ShowResults(score, total int, message string) {
	fmt.Fprintf(v.w, "\nYou scored %d out of %d.\n%s\nPress r to play again or q to quit.\n", score, total, message)
}

func (v *View) ResetToQuestionView() {
	v.options = nil
	v.disabled = false
	fmt.Fprintln(v.w, help)
}

func (v *View) UpdateScoreDisplay(score int) {
	fmt.Fprintf(v.w, "Score: %d\n", score)
}

// option maps a 1-based choice typed by the player to the rendered option.
func (v *View) option(choice int) (string, bool) {
	if v.disabled || choice < 1 || choice > len(v.options) {
		return "", false
	}
	return v.options[choice-1], true
}

// Run plays quizzes read from in until the player quits, in is exhausted or
// ctx is done. It returns the result of the last finished quiz, or nil, and
// any error reading in.
func Run(ctx context.Context, in io.Reader, out io.Writer, questions []service.QuizQuestion, resultsDelay time.Duration) (*service.Result, error) {
	loop := eventloop.New(16)
	view := NewView(out)

	var (
		last     *service.Result
		inputErr error
	)
	engine, err := service.NewEngine(questions, view, loop,
		service.WithResultsDelay(resultsDelay),
		service.WithFinishHook(func(r service.Result) { last = &r }),
	)
	if err != nil {
		return nil, err
	}

	loop.Post(engine.Start)

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !loop.Post(func() { handleLine(loop, engine, view, line) }) {
				return
			}
		}
		err := scanner.Err()
		loop.Post(func() {
			if err != nil {
				inputErr = fmt.Errorf("read input: %w", err)
			}
			loop.StopWhenIdle()
		})
	}()

	if err := loop.Run(ctx); err != nil {
		return last, err
	}
	return last, inputErr
}

func handleLine(loop *eventloop.Loop, engine *service.QuizEngine, view *View, line string) {
	var err error
	switch strings.ToLower(line) {
	case "":
		return
	case "q":
		loop.Stop()
		return
	case "r":
		engine.Start()
		return
	case "n":
		err = engine.Advance()
	default:
		choice, convErr := strconv.Atoi(line)
		if convErr != nil {
			fmt.Fprintln(view.w, help)
			return
		}
		option, ok := view.option(choice)
		if !ok {
			return
		}
		err = engine.SelectAnswer(option)
	}

	if err != nil && !errors.Is(err, service.ErrInvalidTransition) {
		fmt.Fprintf(view.w, "error: %v\n", err)
	}
}
