package ports

import (
	"context"

	"whisperkey/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate int
	Channels   int
	DeviceID   string
}

// AudioCapture owns the shared microphone handle. Start begins buffering
// PCM samples; onChunk, when non-nil, receives raw s16le chunks as they
// arrive (streaming mode). Stop returns everything captured since Start.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig, onChunk func([]byte)) error
	Stop() ([]int16, error)
	Devices(ctx context.Context) ([]domain.Device, error)
}

// Transcriber converts a complete recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []int16, sampleRate int) (domain.Transcript, error)
}

// StreamingConfig describes provider-agnostic streaming settings.
type StreamingConfig struct {
	SampleRate int
	Channels   int
	Language   string
}

// StreamingSession is an active streaming transcription session. Events
// delivers evolving partial hypotheses followed by the final transcript.
type StreamingSession interface {
	SendAudio(chunk []byte) error
	CloseSend() error
	Events() <-chan domain.TranscriptEvent
	Wait() error
	Close() error
}

// StreamingTranscriber starts streaming transcription sessions.
type StreamingTranscriber interface {
	StartStreaming(ctx context.Context, cfg StreamingConfig) (StreamingSession, error)
}

// TextTransformer rewrites text according to an instruction prompt
// (translation, cleanup, user-defined actions).
type TextTransformer interface {
	Transform(ctx context.Context, text string, instruction string) (string, error)
}

// TextInserter types text into whatever control currently has focus.
// Both operations are best-effort; the engine only inspects the boolean.
type TextInserter interface {
	Insert(text string) bool
	DeleteBackward(count int) bool
}

// FillerFilter removes filler words and tidies up transcribed text.
type FillerFilter interface {
	Apply(text string) (string, error)
}

// HistoryStore persists completed dictations.
type HistoryStore interface {
	Add(entry domain.HistoryEntry) error
	Recent(n int) ([]domain.HistoryEntry, error)
	Clear() error
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	StatusChanged(state domain.SessionState, reason domain.SessionStateReason)
	PartialTranscript(text string)
	FinalTranscript(text string)
	Alert(title string, message string)
	SessionError(code domain.ErrorCode, detail string)
}
