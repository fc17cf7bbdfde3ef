// Package prompt builds the generation prompts for course workflows.
package prompt

import (
	"fmt"
	"strings"
)

// DefaultContentBudget is the number of source characters kept in a prompt.
const DefaultContentBudget = 3000

// Builder renders prompts, truncating source content to ContentBudget runes.
type Builder struct {
	ContentBudget int
}

func NewBuilder(budget int) *Builder {
	if budget <= 0 {
		budget = DefaultContentBudget
	}
	return &Builder{ContentBudget: budget}
}

// CourseSpec describes the course to outline.
type CourseSpec struct {
	Title         string
	Difficulty    string
	Audience      string
	Prerequisites string
	Request       string // free-form user instructions
	Content       string // extracted source material
}

// Turn is one chat exchange.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const courseSchema = `{
  "title": "Course Title",
  "description": "One paragraph overview",
  "lessons": [
    {
      "title": "Lesson Title",
      "description": "What the lesson covers",
      "topics": ["Topic 1", "Topic 2", "Topic 3"]
    }
  ]
}`

// CourseOutline asks for a JSON course outline. The "Course Title:" line is
// what the offline simulator keys on.
func (b *Builder) CourseOutline(c CourseSpec) string {
	var sections []string
	sections = append(sections, "You are an expert course designer. Create a course outline in JSON format.")

	var meta strings.Builder
	fmt.Fprintf(&meta, "Course Title: %s\n", nonEmpty(c.Title, "Untitled Course"))
	fmt.Fprintf(&meta, "Difficulty: %s\n", nonEmpty(c.Difficulty, "beginner"))
	fmt.Fprintf(&meta, "Target Audience: %s\n", nonEmpty(c.Audience, "general learners"))
	fmt.Fprintf(&meta, "Prerequisites: %s", nonEmpty(c.Prerequisites, "none"))
	sections = append(sections, meta.String())

	if strings.TrimSpace(c.Request) != "" {
		sections = append(sections, "User Request: "+strings.TrimSpace(c.Request))
	}
	if content := b.content(c.Content); content != "" {
		sections = append(sections, "Source Content:\n"+content)
	}

	sections = append(sections, "Rules:\n"+
		"1. Output valid JSON only, with no markdown and no text outside the JSON.\n"+
		"2. Include between 4 and 8 lessons ordered from basic to advanced.\n"+
		"3. Follow this exact schema:\n"+courseSchema)
	return strings.Join(sections, "\n\n")
}

// Lesson asks for the body of one lesson.
func (b *Builder) Lesson(title, summary string, contextChunks []string) string {
	var sections []string
	sections = append(sections, "Write the lesson content for the lesson below.")
	sections = append(sections, fmt.Sprintf("Lesson Title: %s\nSummary: %s", title, nonEmpty(summary, "n/a")))
	if ctx := b.content(strings.Join(contextChunks, "\n\n")); ctx != "" {
		sections = append(sections, "Context:\n"+ctx)
	}
	sections = append(sections, "Write a detailed lesson (500-800 words) in Markdown that includes:\n"+
		"- Clear introduction\n"+
		"- Key concepts and definitions\n"+
		"- Real-world examples\n"+
		"- Practical applications\n"+
		"- Common misconceptions\n"+
		"- Key takeaways\n\n"+
		"Write in an engaging, educational tone.")
	return strings.Join(sections, "\n\n")
}

// Translate asks for a translation into target.
func (b *Builder) Translate(text, target string) string {
	return fmt.Sprintf("Translate the following text to %s:\n%s\n\nReturn only the translated text, no explanations.",
		target, b.content(text))
}

// Summarize asks for a summary of at most maxWords words.
func (b *Builder) Summarize(content string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = 200
	}
	return fmt.Sprintf("Summarize the following content in %d words or less:\n%s\n\nReturn only the summary.",
		maxWords, b.content(content))
}

const quizSchema = `{
  "title": "Quiz Title",
  "questions": [
    {
      "id": 1,
      "question": "Question text",
      "options": ["Option 1", "Option 2", "Option 3", "Option 4"],
      "correctAnswer": 0,
      "explanation": "Explanation text"
    }
  ]
}`

// Quiz asks for a multiple-choice quiz as JSON.
func (b *Builder) Quiz(content, topic string, numQuestions int, difficulty string) string {
	if numQuestions <= 0 {
		numQuestions = 5
	}
	return fmt.Sprintf("Generate a %s quiz with %d questions about: %s\n\nContent:\n%s\n\nReturn JSON in this format:\n%s\n\nReturn only valid JSON.",
		nonEmpty(difficulty, "medium"), numQuestions, topic, b.content(content), quizSchema)
}

// Chat answers a learner question, optionally grounded in context.
func (b *Builder) Chat(question, context string, history []Turn) string {
	var sections []string
	sections = append(sections, "You are a patient tutor. Answer the learner's question clearly and concisely.")
	if c := b.content(context); c != "" {
		sections = append(sections, "Course Context:\n"+c)
	}
	if len(history) > 0 {
		var h strings.Builder
		h.WriteString("Conversation so far:\n")
		for _, t := range history {
			fmt.Fprintf(&h, "%s: %s\n", roleLabel(t.Role), t.Content)
		}
		sections = append(sections, strings.TrimRight(h.String(), "\n"))
	}
	sections = append(sections, "Learner: "+question+"\nTutor:")
	return strings.Join(sections, "\n\n")
}

// Flashcards asks for question/answer cards as JSON.
func (b *Builder) Flashcards(content string, numCards int) string {
	if numCards <= 0 {
		numCards = 10
	}
	return fmt.Sprintf("Create %d flashcards from the content below.\n\nContent:\n%s\n\n"+
		"Return JSON in this format:\n{\n  \"cards\": [\n    {\"front\": \"Question or term\", \"back\": \"Answer or definition\"}\n  ]\n}\n\nReturn only valid JSON.",
		numCards, b.content(content))
}

// Simplify asks for an explanation suited to a reader of targetAge.
func (b *Builder) Simplify(concept string, targetAge int) string {
	if targetAge <= 0 {
		targetAge = 12
	}
	return fmt.Sprintf("Explain the following concept so that a %d-year-old can understand it. Use a simple analogy and short sentences.\n\nConcept:\n%s",
		targetAge, b.content(concept))
}

// StudyNotes asks for notes in the given format (outline, cornell, bullets).
func (b *Builder) StudyNotes(content, format string) string {
	format = nonEmpty(format, "bullets")
	return fmt.Sprintf("Create study notes in %s format from the content below. Highlight key terms in bold and end with a short review section.\n\nContent:\n%s",
		format, b.content(content))
}

func (b *Builder) content(s string) string {
	return Truncate(strings.TrimSpace(s), b.ContentBudget)
}

// Truncate returns s cut to at most n runes. n <= 0 means no limit.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func roleLabel(role string) string {
	switch strings.ToLower(role) {
	case "assistant", "tutor", "ai":
		return "Tutor"
	default:
		return "Learner"
	}
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
