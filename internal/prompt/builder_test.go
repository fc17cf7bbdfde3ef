package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"日本語テキスト", 3, "日本語"},
		{"anything", 0, "anything"},
		{"", 4, ""},
	}
	for _, tt := range tests {
		got := Truncate(tt.in, tt.n)
		assert.Equal(t, tt.want, got, "Truncate(%q, %d)", tt.in, tt.n)
		assert.True(t, utf8.ValidString(got))
	}
}

func TestCourseOutlineCarriesMarkersAndBudget(t *testing.T) {
	b := NewBuilder(100)
	p := b.CourseOutline(CourseSpec{
		Title:      "Rust Basics",
		Difficulty: "intermediate",
		Content:    strings.Repeat("x", 500),
	})

	assert.Contains(t, p, "Course Title: Rust Basics\n")
	assert.Contains(t, p, "course outline")
	assert.Contains(t, p, "Difficulty: intermediate")
	assert.Contains(t, p, "Prerequisites: none")
	assert.Contains(t, p, strings.Repeat("x", 100))
	assert.NotContains(t, p, strings.Repeat("x", 101))
	assert.NotContains(t, p, "User Request:")
}

func TestLessonCarriesTitleMarker(t *testing.T) {
	p := NewBuilder(0).Lesson("Closures", "functions capturing scope", []string{"a", "b"})
	assert.Contains(t, p, "lesson content")
	assert.Contains(t, p, "Lesson Title: Closures\n")
	assert.Contains(t, p, "Context:\na\n\nb")
}

func TestOtherBuilders(t *testing.T) {
	b := NewBuilder(0)
	assert.Equal(t, DefaultContentBudget, b.ContentBudget)

	assert.Contains(t, b.Translate("hola", "English"), "Translate the following text to English:\nhola")
	assert.Contains(t, b.Summarize("text", 0), "in 200 words or less")
	assert.Contains(t, b.Quiz("c", "Go", 3, ""), "medium quiz with 3 questions about: Go")
	assert.Contains(t, b.Flashcards("c", 0), "Create 10 flashcards")
	assert.Contains(t, b.Simplify("entropy", 8), "8-year-old")
	assert.Contains(t, b.StudyNotes("c", ""), "in bullets format")

	chat := b.Chat("why?", "ctx", []Turn{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}})
	assert.Contains(t, chat, "Learner: hi\nTutor: hello")
	assert.True(t, strings.HasSuffix(chat, "Learner: why?\nTutor:"))
}
