// Package protocol provides the wire types shared by the Mentora bridge and
// the embedded web app. These types can be imported by external shells that
// host the web app and speak the bridge protocol.
package protocol

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Method names a bridge operation.
type Method string

// Synchronous methods.
const (
	MethodShowToast              Method = "showToast"
	MethodGetDeviceInfo          Method = "getDeviceInfo"
	MethodIsAndroid              Method = "isAndroid"
	MethodCheckNetworkConnection Method = "checkNetworkConnection"
	MethodSaveString             Method = "saveString"
	MethodGetString              Method = "getString"
	MethodSaveBoolean            Method = "saveBoolean"
	MethodGetBoolean             Method = "getBoolean"
	MethodSaveInt                Method = "saveInt"
	MethodGetInt                 Method = "getInt"
	MethodRemovePreference       Method = "removePreference"
	MethodClearPreferences       Method = "clearPreferences"
	MethodGetAIStatus            Method = "getRunAnywhereAIStatus"
)

// Asynchronous methods.
const (
	MethodGetAvailableModels    Method = "getAvailableModels"
	MethodDownloadModel         Method = "downloadModel"
	MethodLoadModel             Method = "loadModel"
	MethodUnloadModel           Method = "unloadModel"
	MethodGenerateText          Method = "generateText"
	MethodGenerateTextStream    Method = "generateTextStream"
	MethodChat                  Method = "chat"
	MethodIsModelLoaded         Method = "isModelLoaded"
	MethodGetCurrentModel       Method = "getCurrentModel"
	MethodExtractWebsiteContent Method = "extractWebsiteContent"
	MethodExtractFileContent    Method = "extractFileContent"
	MethodGenerateCourseContent Method = "generateCourseContent"
	MethodGenerateLessonContent Method = "generateLessonContent"
	MethodTranslateText         Method = "translateText"
	MethodSummarizeText         Method = "summarizeText"
	MethodGenerateQuiz          Method = "generateQuiz"
	MethodChatWithAI            Method = "chatWithAI"
	MethodGenerateFlashcards    Method = "generateFlashcards"
	MethodSimplifyExplanation   Method = "simplifyExplanation"
	MethodGenerateStudyNotes    Method = "generateStudyNotes"
	MethodTextToSpeech          Method = "textToSpeech"
	MethodSearchContent         Method = "searchContent"
	MethodExportCourse          Method = "exportCourse"
	MethodUploadContent         Method = "uploadContent"
	MethodGetCourse             Method = "getCourse"
)

var syncMethods = map[Method]bool{
	MethodShowToast:              true,
	MethodGetDeviceInfo:          true,
	MethodIsAndroid:              true,
	MethodCheckNetworkConnection: true,
	MethodSaveString:             true,
	MethodGetString:              true,
	MethodSaveBoolean:            true,
	MethodGetBoolean:             true,
	MethodSaveInt:                true,
	MethodGetInt:                 true,
	MethodRemovePreference:       true,
	MethodClearPreferences:       true,
	MethodGetAIStatus:            true,
}

var asyncMethods = map[Method]bool{
	MethodGetAvailableModels:    true,
	MethodDownloadModel:         true,
	MethodLoadModel:             true,
	MethodUnloadModel:           true,
	MethodGenerateText:          true,
	MethodGenerateTextStream:    true,
	MethodChat:                  true,
	MethodIsModelLoaded:         true,
	MethodGetCurrentModel:       true,
	MethodExtractWebsiteContent: true,
	MethodExtractFileContent:    true,
	MethodGenerateCourseContent: true,
	MethodGenerateLessonContent: true,
	MethodTranslateText:         true,
	MethodSummarizeText:         true,
	MethodGenerateQuiz:          true,
	MethodChatWithAI:            true,
	MethodGenerateFlashcards:    true,
	MethodSimplifyExplanation:   true,
	MethodGenerateStudyNotes:    true,
	MethodTextToSpeech:          true,
	MethodSearchContent:         true,
	MethodExportCourse:          true,
	MethodUploadContent:         true,
	MethodGetCourse:             true,
}

// Known reports whether m is a bridge method.
func (m Method) Known() bool { return syncMethods[m] || asyncMethods[m] }

// Async reports whether m runs in the background and answers later.
func (m Method) Async() bool { return asyncMethods[m] }

// Methods lists every bridge method.
func Methods() []Method {
	out := make([]Method, 0, len(syncMethods)+len(asyncMethods))
	for m := range syncMethods {
		out = append(out, m)
	}
	for m := range asyncMethods {
		out = append(out, m)
	}
	return out
}

// Request is one bridge call.
type Request struct {
	ID     string          `json:"id"`
	Method Method          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`

	// Callback receives result, complete and error events.
	Callback string `json:"callback,omitempty"`
	// ProgressCallback receives progress and token events.
	ProgressCallback string `json:"progressCallback,omitempty"`
}

// NewRequest builds a request with a fresh id and params encoded as JSON.
func NewRequest(method Method, params any) (*Request, error) {
	req := &Request{ID: NewID(), Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		req.Params = raw
	}
	return req, nil
}

// NewID returns a request id.
func NewID() string { return uuid.NewString() }

// DecodeParams decodes req.Params into T. Missing params decode to the
// zero value.
func DecodeParams[T any](req *Request) (T, error) {
	var p T
	if len(req.Params) == 0 || string(req.Params) == "null" {
		return p, nil
	}
	err := json.Unmarshal(req.Params, &p)
	return p, err
}

// EventKind classifies events.
type EventKind string

const (
	KindResult   EventKind = "result"
	KindProgress EventKind = "progress"
	KindToken    EventKind = "token"
	KindComplete EventKind = "complete"
	KindError    EventKind = "error"
)

// Final reports whether no more events follow for the request.
func (k EventKind) Final() bool {
	return k == KindResult || k == KindComplete || k == KindError
}

// Event is a message from the host to the web app.
type Event struct {
	ID       string    `json:"id"`
	Kind     EventKind `json:"kind"`
	Callback string    `json:"callback,omitempty"`
	Payload  any       `json:"payload"`
}

// Failure is the payload of an operation that failed.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// DeviceInfo describes the host device.
type DeviceInfo struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Version      string `json:"version"`
	SDKInt       int    `json:"sdkInt"`
}
