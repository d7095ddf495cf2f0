package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultResultsDelay is how long the feedback for the last answer stays
// visible before the results are shown.
const DefaultResultsDelay = 1000 * time.Millisecond

type OptionStatus string

const (
	StatusCorrect   OptionStatus = "correct"
	StatusIncorrect OptionStatus = "incorrect"
)

// ViewSurface is the presentation layer the engine renders to.
type ViewSurface interface {
	RenderQuestion(prompt string, options []string)
	MarkOption(option string, status OptionStatus)
	DisableOptions()
	ShowAdvanceControl()
	ShowResults(score, total int, message string)
	ResetToQuestionView()
	UpdateScoreDisplay(score int)
}

// Scheduler runs f once after d, on the same goroutine that delivers the
// engine's other events.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseQuestion
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseQuestion:
		return "question"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Result summarises a finished session.
type Result struct {
	SessionID string
	Score     int
	Total     int
	Tier      Tier
}

type Option func(*QuizEngine)

// WithResultsDelay overrides DefaultResultsDelay.
func WithResultsDelay(d time.Duration) Option {
	return func(e *QuizEngine) {
		e.resultsDelay = d
	}
}

// WithFinishHook registers a func called after the results are shown.
func WithFinishHook(hook func(Result)) Option {
	return func(e *QuizEngine) {
		e.onFinish = hook
	}
}

// WithSessionIDs replaces the uuid generator used for session IDs.
func WithSessionIDs(next func() string) Option {
	return func(e *QuizEngine) {
		e.newID = next
	}
}

// QuizEngine drives one quiz over a fixed question list. It is not safe for
// concurrent use: all calls, including scheduled callbacks, must come from a
// single goroutine.
type QuizEngine struct {
	view         ViewSurface
	scheduler    Scheduler
	resultsDelay time.Duration
	onFinish     func(Result)
	newID        func() string

	phase   Phase
	session QuizSession
	// generation is bumped by Start so a results callback left over from an
	// earlier session does nothing.
	generation uint64
}

func NewEngine(questions []QuizQuestion, view ViewSurface, scheduler Scheduler, opts ...Option) (*QuizEngine, error) {
	if err := ValidateQuestions(questions); err != nil {
		return nil, err
	}

	qs := copyQuestions(questions)

	e := &QuizEngine{
		view:         view,
		scheduler:    scheduler,
		resultsDelay: DefaultResultsDelay,
		newID:        uuid.NewString,
		session:      QuizSession{Questions: qs},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *QuizEngine) Phase() Phase { return e.phase }

func (e *QuizEngine) Total() int { return len(e.session.Questions) }

// Session returns a copy of the current session state. The question list
// is copied too, so callers cannot change what the engine scores against.
func (e *QuizEngine) Session() QuizSession {
	s := e.session
	s.Questions = copyQuestions(e.session.Questions)
	return s
}

// Start begins a new session from the first question, whatever state the
// engine was in.
func (e *QuizEngine) Start() {
	e.generation++
	e.session = QuizSession{
		ID:        e.newID(),
		Questions: e.session.Questions,
	}
	e.phase = PhaseQuestion

	e.view.ResetToQuestionView()
	e.view.UpdateScoreDisplay(0)
	e.renderCurrent()
}

// SelectAnswer locks the current question with option and scores it.
func (e *QuizEngine) SelectAnswer(option string) error {
	if e.phase != PhaseQuestion {
		return fmt.Errorf("select answer in phase %s: %w", e.phase, ErrInvalidTransition)
	}
	if e.session.Answered {
		return fmt.Errorf("question %d already answered: %w", e.session.CurrentIndex+1, ErrInvalidTransition)
	}

	q := e.session.Questions[e.session.CurrentIndex]
	if !q.HasOption(option) {
		return fmt.Errorf("unknown option %q: %w", option, ErrInvalidTransition)
	}

	e.session.Answered = true
	if option == q.Answer {
		e.session.Score++
		e.view.UpdateScoreDisplay(e.session.Score)
		e.view.MarkOption(option, StatusCorrect)
	} else {
		e.view.MarkOption(option, StatusIncorrect)
		e.view.MarkOption(q.Answer, StatusCorrect)
	}
	e.view.DisableOptions()

	if e.onLastQuestion() {
		gen := e.generation
		e.scheduler.AfterFunc(e.resultsDelay, func() { e.finish(gen) })
		return nil
	}

	e.view.ShowAdvanceControl()
	return nil
}

// Advance moves to the next question once the current one is answered.
func (e *QuizEngine) Advance() error {
	if e.phase != PhaseQuestion {
		return fmt.Errorf("advance in phase %s: %w", e.phase, ErrInvalidTransition)
	}
	if !e.session.Answered {
		return fmt.Errorf("question %d not answered yet: %w", e.session.CurrentIndex+1, ErrInvalidTransition)
	}
	if e.onLastQuestion() {
		return fmt.Errorf("no question after %d: %w", e.session.CurrentIndex+1, ErrInvalidTransition)
	}

	e.session.CurrentIndex++
	e.session.Answered = false
	e.renderCurrent()
	return nil
}

func (e *QuizEngine) finish(gen uint64) {
	if gen != e.generation || e.phase != PhaseQuestion || !e.session.Answered || !e.onLastQuestion() {
		return
	}

	e.session.CurrentIndex = len(e.session.Questions)
	e.session.Answered = false
	e.phase = PhaseFinished

	total := len(e.session.Questions)
	tier := ComputeResultMessage(e.session.Score, total)
	e.view.ShowResults(e.session.Score, total, tier.Message())

	if e.onFinish != nil {
		e.onFinish(Result{
			SessionID: e.session.ID,
			Score:     e.session.Score,
			Total:     total,
			Tier:      tier,
		})
	}
}

func (e *QuizEngine) onLastQuestion() bool {
	return e.session.CurrentIndex == len(e.session.Questions)-1
}

func (e *QuizEngine) renderCurrent() {
	q := e.session.Questions[e.session.CurrentIndex]
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	e.view.RenderQuestion(q.Prompt, options)
}

func copyQuestions(questions []QuizQuestion) []QuizQuestion {
	qs := make([]QuizQuestion, len(questions))
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		qs[i] = q
	}
	return qs
}
