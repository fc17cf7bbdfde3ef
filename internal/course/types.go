// Package course orchestrates the learning workflows: course outlines,
// lessons, quizzes and the smaller study helpers. Each workflow tries the
// on-device model first and falls back to the backend, then to simulated
// content when the engine is not initialized.
package course

import (
	"time"

	"github.com/mentora-ai/mentora/internal/errors"
)

// Lesson is one entry of a course outline.
type Lesson struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Topics      []string `json:"topics,omitempty"`
	Detail      string   `json:"detail,omitempty"`
	Module      string   `json:"module,omitempty"`
}

// Course is a generated course outline.
type Course struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Lessons     []Lesson      `json:"lessons"`
	Source      errors.Source `json:"source,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// CourseInput describes what to build a course from. At most one of URL,
// FilePath and ExtractedText is normally set.
type CourseInput struct {
	Title         string `json:"title"`
	Difficulty    string `json:"difficulty"`
	Audience      string `json:"audience"`
	Prerequisites string `json:"prerequisites"`
	Prompt        string `json:"prompt"`
	URL           string `json:"url"`
	FilePath      string `json:"filePath"`
	ExtractedText string `json:"extractedText"`
}

// LessonInput asks for the body of a lesson.
type LessonInput struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	CourseContext string   `json:"courseContext"`
	ContextChunks []string `json:"contextChunks"`
	CourseID      string   `json:"courseId"`
}

// TextResult is generated text and where it came from.
type TextResult struct {
	Text   string        `json:"text"`
	Source errors.Source `json:"source"`
}

// Question is one multiple-choice question.
type Question struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Quiz is a generated quiz.
type Quiz struct {
	Title     string        `json:"title"`
	Questions []Question    `json:"questions"`
	Source    errors.Source `json:"source,omitempty"`
}

// QuizInput asks for a quiz.
type QuizInput struct {
	Content      string `json:"content"`
	Topic        string `json:"topic"`
	NumQuestions int    `json:"numQuestions"`
	Difficulty   string `json:"difficulty"`
}

// Flashcard is one study card.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// FlashcardSet is a generated deck.
type FlashcardSet struct {
	Cards  []Flashcard   `json:"cards"`
	Source errors.Source `json:"source,omitempty"`
}
