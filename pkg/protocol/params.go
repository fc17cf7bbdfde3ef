package protocol

import "encoding/json"

// ToastParams for showToast.
type ToastParams struct {
	Message string `json:"message"`
}

// StringPrefParams for saveString and getString.
type StringPrefParams struct {
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Default string `json:"defaultValue,omitempty"`
}

// BoolPrefParams for saveBoolean and getBoolean.
type BoolPrefParams struct {
	Key     string `json:"key"`
	Value   bool   `json:"value,omitempty"`
	Default bool   `json:"defaultValue,omitempty"`
}

// IntPrefParams for saveInt and getInt.
type IntPrefParams struct {
	Key     string `json:"key"`
	Value   int    `json:"value,omitempty"`
	Default int    `json:"defaultValue,omitempty"`
}

// KeyParams for removePreference.
type KeyParams struct {
	Key string `json:"key"`
}

// ModelParams for downloadModel and loadModel.
type ModelParams struct {
	ModelID string `json:"modelId"`
}

// PromptParams for generateText and generateTextStream.
type PromptParams struct {
	Prompt string `json:"prompt"`
}

// ChatParams for chat.
type ChatParams struct {
	Message string `json:"message"`
}

// URLParams for extractWebsiteContent.
type URLParams struct {
	URL string `json:"url"`
}

// FileParams for extractFileContent.
type FileParams struct {
	FileURI string `json:"fileUri"`
}

// CourseParams for generateCourseContent.
type CourseParams struct {
	URL           string `json:"url"`
	ExtractedText string `json:"extractedText"`
	CourseTitle   string `json:"courseTitle"`
	Difficulty    string `json:"difficulty"`
	Audience      string `json:"audience"`
	Prerequisites string `json:"prerequisites"`
}

// LessonParams for generateLessonContent.
type LessonParams struct {
	LessonTitle       string `json:"lessonTitle"`
	LessonDescription string `json:"lessonDescription"`
	CourseContext     string `json:"courseContext"`
}

// TranslateParams for translateText.
type TranslateParams struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
}

// SummarizeParams for summarizeText. MaxLength is in words.
type SummarizeParams struct {
	Text      string `json:"text"`
	MaxLength int    `json:"maxLength"`
}

// QuizParams for generateQuiz.
type QuizParams struct {
	LessonContent string `json:"lessonContent"`
	NumQuestions  int    `json:"numQuestions"`
	Difficulty    string `json:"difficulty"`
}

// ChatWithAIParams for chatWithAI. ConversationHistory is a JSON array of
// {role, content} objects encoded as a string.
type ChatWithAIParams struct {
	Question            string `json:"question"`
	Context             string `json:"context"`
	ConversationHistory string `json:"conversationHistory"`
}

// FlashcardParams for generateFlashcards.
type FlashcardParams struct {
	LessonContent string `json:"lessonContent"`
	NumCards      int    `json:"numCards"`
}

// SimplifyParams for simplifyExplanation.
type SimplifyParams struct {
	Concept   string `json:"concept"`
	TargetAge int    `json:"targetAge"`
}

// StudyNotesParams for generateStudyNotes.
type StudyNotesParams struct {
	LessonContent string `json:"lessonContent"`
	Format        string `json:"format"`
}

// SpeechParams for textToSpeech.
type SpeechParams struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// SearchParams for searchContent.
type SearchParams struct {
	Query    string `json:"query"`
	NResults int    `json:"nResults"`
}

// ExportParams for exportCourse. CourseData is the course JSON.
type ExportParams struct {
	CourseData json.RawMessage `json:"courseData"`
	Format     string          `json:"format"`
}

// UploadParams for uploadContent. Set FileURI for a document or URL for a
// web page.
type UploadParams struct {
	FileURI string `json:"fileUri"`
	URL     string `json:"url"`
	Prompt  string `json:"prompt"`
}

// CourseIDParams for getCourse.
type CourseIDParams struct {
	CourseID string `json:"courseId"`
}
