package course

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentora-ai/mentora/internal/errors"
)

func TestExtractJSON(t *testing.T) {
	body, ok := ExtractJSON("Here you go:\n```json\n{\"a\":{\"b\":1}}\n```")
	require.True(t, ok)
	assert.Equal(t, `{"a":{"b":1}}`, body)

	_, ok = ExtractJSON("no braces")
	assert.False(t, ok)
	_, ok = ExtractJSON("} backwards {")
	assert.False(t, ok)
}

func TestParseCourseFlatLessons(t *testing.T) {
	c, err := ParseCourse(`{"title":" Go ","description":"d","lessons":[
		{"title":"Intro","summary":"from summary","content":"body"},
		{"title":"","description":"dropped"}
	]}`)
	require.NoError(t, err)
	assert.Equal(t, "Go", c.Title)
	require.Len(t, c.Lessons, 1)
	assert.Equal(t, "from summary", c.Lessons[0].Description)
	assert.Equal(t, "body", c.Lessons[0].Detail)
}

func TestParseCourseModules(t *testing.T) {
	c, err := ParseCourse(`{"course":"Biology","modules":[
		{"title":"Cells","lessons":[{"title":"Membranes"},{"title":"Organelles"}]},
		{"title":"Genetics","lessons":[{"title":"DNA"}]}
	]}`)
	require.NoError(t, err)
	assert.Equal(t, "Biology", c.Title)
	require.Len(t, c.Lessons, 3)
	assert.Equal(t, "Cells", c.Lessons[0].Module)
	assert.Equal(t, "Genetics", c.Lessons[2].Module)
}

func TestParseCourseParagraphFallback(t *testing.T) {
	raw := "1. Variables and types. Every value in Go has a static type known at compile time.\n\n" +
		"short\n\n" +
		"Control flow covers if statements, for loops and switch statements in depth."
	c, err := ParseCourse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Generated Course", c.Title)
	require.Len(t, c.Lessons, 2)
	assert.Equal(t, "Variables and types", c.Lessons[0].Title)
	assert.True(t, strings.HasPrefix(c.Lessons[1].Title, "Control flow"))
}

func TestParseCourseLongTitleTruncated(t *testing.T) {
	line := strings.Repeat("word ", 20)
	c, err := ParseCourse(line + "\nsecond line that is long enough to count as a lesson on its own right")
	require.NoError(t, err)
	require.NotEmpty(t, c.Lessons)
	assert.True(t, strings.HasSuffix(c.Lessons[0].Title, "..."))
	assert.LessOrEqual(t, len([]rune(c.Lessons[0].Title)), maxTitleRunes+3)
}

func TestParseCourseNothingUsable(t *testing.T) {
	_, err := ParseCourse("too short")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeModelInvalidOutput))
}

func TestParseQuiz(t *testing.T) {
	q, err := ParseQuiz(`{"title":"T","questions":[{"question":"a","options":["x","y"],"correctAnswer":1},{"id":9,"question":"b"}]}`)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Questions[0].ID)
	assert.Equal(t, 9, q.Questions[1].ID)

	_, err = ParseQuiz(`{"questions":[]}`)
	assert.True(t, errors.HasCode(err, errors.CodeModelInvalidOutput))
	_, err = ParseQuiz(`{"questions":`)
	assert.Error(t, err)
}

func TestParseFlashcards(t *testing.T) {
	set, err := ParseFlashcards(`{"cards":[{"front":"a","back":"b"},{"front":" ","back":"c"}]}`)
	require.NoError(t, err)
	assert.Equal(t, []Flashcard{{Front: "a", Back: "b"}}, set.Cards)

	_, err = ParseFlashcards(`{"cards":[{"front":"a"}]}`)
	assert.True(t, errors.HasCode(err, errors.CodeModelInvalidOutput))
}
