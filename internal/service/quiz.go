package service

import (
	"errors"
	"fmt"
)

// OptionsPerQuestion is the fixed number of choices every question offers.
const OptionsPerQuestion = 4

var (
	// ErrConfiguration marks a malformed question set. It is fatal at load.
	ErrConfiguration = errors.New("invalid quiz configuration")
	// ErrInvalidTransition is returned when an event does not apply to the
	// current state. Surfaces treat it as a silent no-op.
	ErrInvalidTransition = errors.New("invalid quiz transition")
)

type QuizQuestion struct {
	Prompt  string   `yaml:"prompt"`
	Options []string `yaml:"options"`
	Answer  string   `yaml:"answer"`
}

// HasOption reports whether option is one of the question's choices.
func (q QuizQuestion) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

type QuizSession struct {
	ID           string
	Questions    []QuizQuestion
	CurrentIndex int
	Score        int
	Answered     bool
}

// AnsweredCount is the number of questions locked so far in the session.
func (s QuizSession) AnsweredCount() int {
	if s.Answered {
		return s.CurrentIndex + 1
	}
	return s.CurrentIndex
}

// Finished reports whether every question has been played out.
func (s QuizSession) Finished() bool {
	return len(s.Questions) > 0 && s.CurrentIndex == len(s.Questions)
}

// ConfigError describes the first problem found in a question set.
// Index is -1 when the problem concerns the set as a whole.
type ConfigError struct {
	Index  int
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s", ErrConfiguration, e.Reason)
	}
	return fmt.Sprintf("%v: question %d: %s", ErrConfiguration, e.Index+1, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// ValidateQuestions checks a question set before any session is built on it.
func ValidateQuestions(questions []QuizQuestion) error {
	if len(questions) == 0 {
		return &ConfigError{Index: -1, Reason: "no questions"}
	}

	for i, q := range questions {
		if q.Prompt == "" {
			return &ConfigError{Index: i, Reason: "empty prompt"}
		}
		if len(q.Options) != OptionsPerQuestion {
			return &ConfigError{Index: i, Reason: fmt.Sprintf("want %d options, got %d", OptionsPerQuestion, len(q.Options))}
		}

		seen := make(map[string]struct{}, len(q.Options))
		for _, o := range q.Options {
			if o == "" {
				return &ConfigError{Index: i, Reason: "empty option"}
			}
			if _, dup := seen[o]; dup {
				return &ConfigError{Index: i, Reason: fmt.Sprintf("duplicate option %q", o)}
			}
			seen[o] = struct{}{}
		}

		if !q.HasOption(q.Answer) {
			return &ConfigError{Index: i, Reason: fmt.Sprintf("answer %q is not among the options", q.Answer)}
		}
	}

	return nil
}
