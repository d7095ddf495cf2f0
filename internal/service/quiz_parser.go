package service

import (
	"errors"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type questionFile struct {
	Questions []QuizQuestion `yaml:"questions"`
}

// ParseQuizQuestions reads a YAML question set and validates it.
func ParseQuizQuestions(filename string) ([]QuizQuestion, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return DecodeQuizQuestions(data)
}

// DecodeQuizQuestions parses YAML of the form:
//
//	questions:
//	  - prompt: What is the capital city of Japan?
//	    options: [Beijing, Seoul, Tokyo, Bangkok]
//	    answer: Tokyo
func DecodeQuizQuestions(data []byte) ([]QuizQuestion, error) {
	var f questionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: yaml unmarshal: %v", ErrConfiguration, err)
	}
	if err := ValidateQuestions(f.Questions); err != nil {
		return nil, err
	}
	return f.Questions, nil
}

// LoadQuizQuestions loads the question set from filename. When filename is
// empty or does not exist the default set is used; any other failure is
// returned.
func LoadQuizQuestions(filename string) ([]QuizQuestion, error) {
	if filename == "" {
		log.Println("No questions file configured, using default questions")
		return DefaultQuizQuestions(), nil
	}

	questions, err := ParseQuizQuestions(filename)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("Questions file %s not found, using default questions", filename)
		return DefaultQuizQuestions(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}

	log.Printf("Successfully loaded %d questions from %s", len(questions), filename)
	return questions, nil
}

func DefaultQuizQuestions() []QuizQuestion {
	return []QuizQuestion{
		{
			Prompt:  "What is the capital city of Japan?",
			Options: []string{"Beijing", "Seoul", "Tokyo", "Bangkok"},
			Answer:  "Tokyo",
		},
		{
			Prompt:  "Which element's chemical symbol is 'O'?",
			Options: []string{"Gold", "Oxygen", "Osmium", "Oganesson"},
			Answer:  "Oxygen",
		},
		{
			Prompt:  "Which planet is known as the Red Planet?",
			Options: []string{"Earth", "Mars", "Jupiter", "Venus"},
			Answer:  "Mars",
		},
		{
			Prompt:  "Who wrote the play 'Romeo and Juliet'?",
			Options: []string{"Charles Dickens", "William Shakespeare", "Jane Austen", "Mark Twain"},
			Answer:  "William Shakespeare",
		},
		{
			Prompt:  "What is the largest mammal in the world?",
			Options: []string{"Elephant", "Giraffe", "Blue Whale", "Great White Shark"},
			Answer:  "Blue Whale",
		},
	}
}
