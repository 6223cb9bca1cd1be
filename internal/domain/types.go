package domain

import "time"

// SessionState models the push-to-talk lifecycle.
type SessionState string

const (
	SessionStateIdle       SessionState = "idle"
	SessionStateRecording  SessionState = "recording"
	SessionStateProcessing SessionState = "processing"
	SessionStateError      SessionState = "error"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonReady               SessionStateReason = "ready"
	SessionReasonRecordingStarted    SessionStateReason = "recording_started"
	SessionReasonTranscribing        SessionStateReason = "transcribing"
	SessionReasonTextInserted        SessionStateReason = "text_inserted"
	SessionReasonInsertFailed        SessionStateReason = "insert_failed"
	SessionReasonRecordingDiscarded  SessionStateReason = "recording_discarded"
	SessionReasonAudioTooQuiet       SessionStateReason = "audio_too_quiet"
	SessionReasonNoTranscript        SessionStateReason = "no_transcript"
	SessionReasonTranscriptionFailed SessionStateReason = "transcription_failed"
	SessionReasonTransformFailed     SessionStateReason = "transform_failed"
	SessionReasonCaptureFailed       SessionStateReason = "capture_failed"
	SessionReasonBindingsReloaded    SessionStateReason = "bindings_reloaded"
)

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeCaptureStart  ErrorCode = "capture_start"
	ErrorCodeCaptureStop   ErrorCode = "capture_stop"
	ErrorCodeTranscription ErrorCode = "transcription"
	ErrorCodeTransform     ErrorCode = "transform"
	ErrorCodeInsertion     ErrorCode = "insertion"
	ErrorCodeHotkey        ErrorCode = "hotkey"
	ErrorCodeHistory       ErrorCode = "history"
)

// ActionKind identifies what happens with the captured speech once the
// hotkey that triggered a session is released.
type ActionKind string

const (
	ActionDictate   ActionKind = "dictate"
	ActionTranslate ActionKind = "translate"
	ActionFix       ActionKind = "fix"
	ActionCustom    ActionKind = "custom"
)

// ActionConfig is one configured hotkey action. Custom actions carry an
// instruction prompt forwarded to the text transformer verbatim.
type ActionConfig struct {
	ID     string     `json:"id" yaml:"id"`
	Kind   ActionKind `json:"kind" yaml:"kind"`
	Name   string     `json:"name" yaml:"name"`
	Hotkey string     `json:"hotkey" yaml:"hotkey"`
	Prompt string     `json:"prompt,omitempty" yaml:"prompt,omitempty"`
}

// TranscriptKind identifies whether a stream event is partial or final text.
type TranscriptKind string

const (
	TranscriptKindPartial TranscriptKind = "partial"
	TranscriptKindFinal   TranscriptKind = "final"
)

// TranscriptEvent represents incremental transcription output from a provider.
type TranscriptEvent struct {
	Kind TranscriptKind `json:"kind"`
	Text string         `json:"text"`
}

// Transcript is the result of a non-streaming transcription call.
type Transcript struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// TextEdit is one reconciliation step against the focused text cursor:
// delete DeleteCount characters before the cursor, then insert Insert.
type TextEdit struct {
	DeleteCount int    `json:"deleteCount"`
	Insert      string `json:"insert"`
}

// HistoryEntry is one completed dictation.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Language  string    `json:"language"`
	Duration  float64   `json:"duration"`
	CreatedAt time.Time `json:"createdAt"`
}

// Device describes an audio input device.
type Device struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Channels int    `json:"channels"`
}

// Status summarizes the current runtime status.
type Status struct {
	State   SessionState `json:"state"`
	Active  bool         `json:"active"`
	Action  ActionKind   `json:"action,omitempty"`
	Message string       `json:"message,omitempty"`
}
