package course

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/mentora-ai/mentora/internal/errors"
	"github.com/mentora-ai/mentora/internal/prompt"
)

const (
	minParagraphRunes = 50
	maxTitleRunes     = 60
)

// ExtractJSON returns the text between the first '{' and the last '}'.
func ExtractJSON(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

type wireLesson struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Summary     string   `json:"summary"`
	Detail      string   `json:"detail"`
	Content     string   `json:"content"`
	Topics      []string `json:"topics"`
}

type wireCourse struct {
	Title       string       `json:"title"`
	Course      string       `json:"course"`
	Description string       `json:"description"`
	Lessons     []wireLesson `json:"lessons"`
	Modules     []struct {
		Title   string       `json:"title"`
		Lessons []wireLesson `json:"lessons"`
	} `json:"modules"`
}

func (l wireLesson) lesson(module string) Lesson {
	desc := l.Description
	if desc == "" {
		desc = l.Summary
	}
	detail := l.Detail
	if detail == "" {
		detail = l.Content
	}
	return Lesson{
		Title:       strings.TrimSpace(l.Title),
		Description: strings.TrimSpace(desc),
		Topics:      l.Topics,
		Detail:      detail,
		Module:      module,
	}
}

// ParseCourse reads a course outline from model output. JSON embedded in
// surrounding prose is accepted, with either a flat lesson list or modules
// of lessons. When no usable JSON is found, paragraphs longer than 50
// characters become lessons.
func ParseCourse(raw string) (*Course, error) {
	if c, ok := parseCourseJSON(raw); ok {
		return c, nil
	}

	lessons := paragraphLessons(raw)
	if len(lessons) == 0 {
		return nil, errors.NewBuilder(errors.CodeModelInvalidOutput, "could not read a course outline from the model output").
			Permanent().
			WithContext("length", len(raw)).
			Build()
	}
	return &Course{Title: "Generated Course", Lessons: lessons}, nil
}

func parseCourseJSON(raw string) (*Course, bool) {
	body, ok := ExtractJSON(raw)
	if !ok {
		return nil, false
	}
	var w wireCourse
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return nil, false
	}

	c := &Course{
		Title:       strings.TrimSpace(w.Title),
		Description: strings.TrimSpace(w.Description),
	}
	if c.Title == "" {
		c.Title = strings.TrimSpace(w.Course)
	}
	for _, l := range w.Lessons {
		if les := l.lesson(""); les.Title != "" {
			c.Lessons = append(c.Lessons, les)
		}
	}
	for _, m := range w.Modules {
		for _, l := range m.Lessons {
			if les := l.lesson(m.Title); les.Title != "" {
				c.Lessons = append(c.Lessons, les)
			}
		}
	}
	if len(c.Lessons) == 0 {
		return nil, false
	}
	if c.Title == "" {
		c.Title = "Generated Course"
	}
	return c, true
}

// paragraphLessons splits on blank lines, or on lines when there is only
// one paragraph, and keeps the substantial pieces.
func paragraphLessons(raw string) []Lesson {
	text := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	parts := strings.Split(text, "\n\n")
	if len(parts) < 2 {
		parts = strings.Split(text, "\n")
	}

	var lessons []Lesson
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) <= minParagraphRunes {
			continue
		}
		lessons = append(lessons, Lesson{
			Title:       paragraphTitle(p),
			Description: p,
		})
	}
	return lessons
}

func paragraphTitle(p string) string {
	line := p
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(strings.TrimLeft(line, "#*-0123456789. "))
	if i := strings.Index(line, ". "); i >= 0 {
		line = line[:i]
	}
	if utf8.RuneCountInString(line) > maxTitleRunes {
		line = strings.TrimSpace(prompt.Truncate(line, maxTitleRunes)) + "..."
	}
	return line
}

// ParseQuiz reads a quiz object from model output.
func ParseQuiz(raw string) (*Quiz, error) {
	body, ok := ExtractJSON(raw)
	if !ok {
		return nil, errors.New(errors.CodeModelInvalidOutput, "quiz output contained no JSON object", errors.CategoryPermanent)
	}
	var q Quiz
	if err := json.Unmarshal([]byte(body), &q); err != nil {
		return nil, errors.Wrap(err, errors.CodeModelInvalidOutput, "quiz output is not valid JSON", errors.CategoryPermanent)
	}
	if len(q.Questions) == 0 {
		return nil, errors.New(errors.CodeModelInvalidOutput, "quiz has no questions", errors.CategoryPermanent)
	}
	for i := range q.Questions {
		if q.Questions[i].ID == 0 {
			q.Questions[i].ID = i + 1
		}
	}
	return &q, nil
}

// ParseFlashcards reads a flashcard deck from model output.
func ParseFlashcards(raw string) (*FlashcardSet, error) {
	body, ok := ExtractJSON(raw)
	if !ok {
		return nil, errors.New(errors.CodeModelInvalidOutput, "flashcard output contained no JSON object", errors.CategoryPermanent)
	}
	var set FlashcardSet
	if err := json.Unmarshal([]byte(body), &set); err != nil {
		return nil, errors.Wrap(err, errors.CodeModelInvalidOutput, "flashcard output is not valid JSON", errors.CategoryPermanent)
	}
	cards := set.Cards[:0]
	for _, c := range set.Cards {
		if strings.TrimSpace(c.Front) != "" && strings.TrimSpace(c.Back) != "" {
			cards = append(cards, c)
		}
	}
	if len(cards) == 0 {
		return nil, errors.New(errors.CodeModelInvalidOutput, "no complete flashcards in output", errors.CategoryPermanent)
	}
	set.Cards = cards
	return &set, nil
}
