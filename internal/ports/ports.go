package ports

import (
	"context"

	"souschef/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioCapture records one utterance at a time. StopRecording and
// CancelRecording must be safe to call in any state; CancelRecording is
// idempotent and discards anything buffered.
type AudioCapture interface {
	RequestPermission(ctx context.Context) error
	StartRecording(ctx context.Context, cfg AudioConfig) error
	StopRecording() (domain.Recording, error)
	CancelRecording()
}

// Transcriber turns a finished recording into text. Available reports whether
// the backend is configured at all; when false the engine fails fast without
// touching the microphone.
type Transcriber interface {
	Available() bool
	Transcribe(ctx context.Context, rec domain.Recording) (string, error)
}

// Synthesizer renders text into playable PCM audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Player plays raw PCM and blocks until done or cancelled. Stop is safe to
// call when nothing is playing.
type Player interface {
	Play(ctx context.Context, pcm []byte) error
	Stop()
}

// PhraseCache answers whether a phrase has pre-rendered audio. Lookups are
// read-only; population happens outside the engine.
type PhraseCache interface {
	IsCached(text string) bool
	Audio(text string) ([]byte, bool)
}

// Speaker speaks one response, hiding synthesis latency behind a filler
// phrase when the text is not cached. Speak blocks until playback finishes.
type Speaker interface {
	Speak(ctx context.Context, text string, skipCache bool) error
	Stop()
}

// HostHooks are the three callbacks the engine may invoke while handling a
// command. The engine holds them but never owns the state behind them.
type HostHooks struct {
	OnStepChange func(index int)
	OnTimerStart func(seconds int)
	OnTimerStop  func()
}

// EventSink emits engine state and events to the host UI.
type EventSink interface {
	SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason)
	TranscriptReady(utteranceID string, text string)
	ResponseSpoken(utteranceID string, text string)
	SessionError(code domain.ErrorCode, detail string)
}
