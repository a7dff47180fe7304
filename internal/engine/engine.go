// Package engine orchestrates one voice utterance at a time: capture,
// transcription, intent dispatch, and spoken response, under a single
// mutex-guarded session state. At most one of recording, transcribing, and
// speaking is active at any instant; the adapters never enforce this
// themselves.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"souschef/internal/command"
	"souschef/internal/domain"
	"souschef/internal/intent"
	"souschef/internal/ports"
)

var (
	ErrDisabled      = errors.New("voice control is disabled")
	ErrNotConfigured = errors.New("speech recognition is not configured")
	ErrBusy          = errors.New("engine is busy")
)

// Config controls the engine's fixed timings.
type Config struct {
	// ListenTimeout is the auto-stop ceiling measured from entry into
	// Listening.
	ListenTimeout time.Duration
	// ErrorRevert is how long the Error state lingers before reverting to
	// Idle on its own.
	ErrorRevert time.Duration
	// HandsFreeDelay is the pause before re-entering Listening after a
	// spoken response when hands-free mode is on.
	HandsFreeDelay time.Duration
	// MinTranscript is the minimum rune count for a transcript to be worth
	// dispatching; anything shorter returns silently to Idle.
	MinTranscript int
	Audio         ports.AudioConfig
}

func (c *Config) applyDefaults() {
	if c.ListenTimeout <= 0 {
		c.ListenTimeout = 5 * time.Second
	}
	if c.ErrorRevert <= 0 {
		c.ErrorRevert = 1500 * time.Millisecond
	}
	if c.HandsFreeDelay <= 0 {
		c.HandsFreeDelay = 600 * time.Millisecond
	}
	if c.MinTranscript <= 0 {
		c.MinTranscript = 2
	}
}

// RecipeSource exposes the host-owned recipe and current-step pointer. Both
// are re-read at dispatch time, never captured when the utterance began.
type RecipeSource struct {
	Recipe      func() *domain.Recipe
	CurrentStep func() int
}

// Engine is the voice interaction state machine.
type Engine struct {
	capture     ports.AudioCapture
	transcriber ports.Transcriber
	speaker     ports.Speaker
	dispatcher  *command.Dispatcher
	events      ports.EventSink
	source      RecipeSource
	logger      *slog.Logger
	cfg         Config

	mu                sync.Mutex
	state             domain.SessionState
	generation        uint64
	inFlight          bool
	enabled           bool
	handsFree         bool
	permissionGranted bool
	lastTranscript    string
	lastError         string
	utteranceID       string
	listenTimer       *time.Timer
	errorTimer        *time.Timer
	handsFreeTimer    *time.Timer
}

func New(
	capture ports.AudioCapture,
	transcriber ports.Transcriber,
	speaker ports.Speaker,
	dispatcher *command.Dispatcher,
	events ports.EventSink,
	source RecipeSource,
	logger *slog.Logger,
	cfg Config,
) *Engine {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		capture:     capture,
		transcriber: transcriber,
		speaker:     speaker,
		dispatcher:  dispatcher,
		events:      events,
		source:      source,
		logger:      logger,
		cfg:         cfg,
		state:       domain.SessionStateIdle,
		enabled:     true,
	}
}

// Status snapshots the observable surface for the host.
func (e *Engine) Status() domain.VoiceStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.VoiceStatus{
		State:             e.state,
		Enabled:           e.enabled,
		HandsFree:         e.handsFree,
		Available:         e.transcriber.Available(),
		PermissionGranted: e.permissionGranted,
		LastTranscript:    e.lastTranscript,
		LastError:         e.lastError,
	}
}

// SetHandsFree toggles the auto-listen loop.
func (e *Engine) SetHandsFree(on bool) {
	e.mu.Lock()
	e.handsFree = on
	if !on {
		stopTimer(&e.handsFreeTimer)
	}
	e.mu.Unlock()
}

// SetEnabled enables or disables voice mode. Disabling behaves like a
// backgrounding signal: everything in flight is cancelled.
func (e *Engine) SetEnabled(on bool) {
	e.mu.Lock()
	e.enabled = on
	e.mu.Unlock()
	if !on {
		e.Backgrounded()
	}
}

// RequestPermission asks the capture adapter for microphone access and
// records the result. Idempotent.
func (e *Engine) RequestPermission(ctx context.Context) error {
	if err := e.capture.RequestPermission(ctx); err != nil {
		e.mu.Lock()
		e.permissionGranted = false
		e.lastError = "Microphone permission denied."
		e.mu.Unlock()
		e.events.SessionError(domain.ErrorCodePermission, err.Error())
		return fmt.Errorf("microphone permission: %w", err)
	}
	e.mu.Lock()
	e.permissionGranted = true
	e.mu.Unlock()
	return nil
}

// ToggleListening is the single control surface for the host: stop if
// Listening, cancel playback if Speaking, otherwise try to start Listening.
func (e *Engine) ToggleListening(ctx context.Context) error {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	switch state {
	case domain.SessionStateListening:
		e.StopListening()
		return nil
	case domain.SessionStateSpeaking:
		e.StopSpeaking()
		return nil
	default:
		return e.StartListening(ctx)
	}
}

// StartListening transitions Idle into Listening. Configuration and
// permission failures fail fast with a descriptive error and no recording
// attempt, without an Error-state round-trip.
func (e *Engine) StartListening(ctx context.Context) error {
	e.mu.Lock()
	if !e.enabled {
		e.lastError = "Voice control is turned off."
		e.mu.Unlock()
		return ErrDisabled
	}
	if e.state != domain.SessionStateIdle {
		e.mu.Unlock()
		return ErrBusy
	}
	if !e.transcriber.Available() {
		e.lastError = "Speech recognition is not configured."
		e.mu.Unlock()
		e.events.SessionError(domain.ErrorCodeConfiguration, "transcription backend is not configured")
		return ErrNotConfigured
	}
	needPermission := !e.permissionGranted
	e.mu.Unlock()

	if needPermission {
		if err := e.RequestPermission(ctx); err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != domain.SessionStateIdle || !e.enabled {
		return ErrBusy
	}

	if err := e.capture.StartRecording(ctx, e.cfg.Audio); err != nil {
		e.failLocked(e.generation, domain.ErrorCodeCapture, err)
		return fmt.Errorf("start recording: %w", err)
	}

	e.generation++
	gen := e.generation
	e.utteranceID = uuid.NewString()
	e.lastTranscript = ""
	e.lastError = ""
	e.inFlight = false
	stopTimer(&e.handsFreeTimer)
	e.setStateLocked(domain.SessionStateListening, domain.SessionReasonListeningStarted)
	e.listenTimer = time.AfterFunc(e.cfg.ListenTimeout, func() {
		e.finishListening(gen, true)
	})
	return nil
}

// StopListening manually ends the Listening window and starts processing.
func (e *Engine) StopListening() {
	e.mu.Lock()
	gen := e.generation
	e.mu.Unlock()
	e.finishListening(gen, false)
}

// finishListening moves Listening into Processing exactly once per utterance.
// The in-flight guard makes a manual stop racing the auto-stop timer a no-op
// for whichever arrives second.
func (e *Engine) finishListening(gen uint64, timedOut bool) {
	e.mu.Lock()
	if e.state != domain.SessionStateListening || gen != e.generation || e.inFlight {
		e.mu.Unlock()
		return
	}
	e.inFlight = true
	stopTimer(&e.listenTimer)
	reason := domain.SessionReasonListeningStopped
	if timedOut {
		reason = domain.SessionReasonListeningTimedOut
	}
	e.setStateLocked(domain.SessionStateProcessing, reason)
	utteranceID := e.utteranceID
	e.mu.Unlock()

	rec, err := e.capture.StopRecording()
	if err != nil {
		e.fail(gen, domain.ErrorCodeCapture, err)
		return
	}

	go e.processUtterance(gen, utteranceID, rec)
}

// StopSpeaking cancels in-progress playback (barge-in). Safe to call when
// nothing is playing.
func (e *Engine) StopSpeaking() {
	e.mu.Lock()
	if e.state == domain.SessionStateSpeaking {
		e.generation++
		e.inFlight = false
		stopTimer(&e.handsFreeTimer)
		e.setStateLocked(domain.SessionStateIdle, domain.SessionReasonSpeakingCancelled)
	}
	e.mu.Unlock()
	e.speaker.Stop()
}

// Backgrounded is the host lifecycle signal: it forcibly cancels any
// in-flight recording and playback and forces Idle. Results that resolve
// afterwards are recognized as stale by their generation and discarded.
func (e *Engine) Backgrounded() {
	e.mu.Lock()
	e.generation++
	e.inFlight = false
	stopTimer(&e.listenTimer)
	stopTimer(&e.errorTimer)
	stopTimer(&e.handsFreeTimer)
	if e.state != domain.SessionStateIdle {
		e.setStateLocked(domain.SessionStateIdle, domain.SessionReasonBackgrounded)
	}
	e.mu.Unlock()

	e.capture.CancelRecording()
	e.speaker.Stop()
}

// processUtterance runs the Processing and Speaking phases for one utterance.
// Every await is followed by a staleness check so that nothing resolved after
// a cancellation invokes callbacks or changes state.
func (e *Engine) processUtterance(gen uint64, utteranceID string, rec domain.Recording) {
	ctx := context.Background()

	text, err := e.transcriber.Transcribe(ctx, rec)
	if e.stale(gen) {
		return
	}
	if err != nil {
		e.fail(gen, domain.ErrorCodeTranscription, err)
		return
	}

	text = strings.TrimSpace(text)
	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return
	}
	e.lastTranscript = text
	e.mu.Unlock()

	if len([]rune(text)) < e.cfg.MinTranscript {
		e.toIdle(gen, domain.SessionReasonNoTranscript)
		return
	}
	e.events.TranscriptReady(utteranceID, text)

	result := intent.Detect(text)
	e.logger.Debug("intent detected", "utterance", utteranceID, "intent", result.Intent)

	if result.Intent == domain.IntentPause {
		e.SetHandsFree(false)
	}

	// The dispatcher reads the live step pointer and may invoke host hooks,
	// so a stale utterance must bail out before this point.
	if e.stale(gen) {
		return
	}
	response := e.dispatcher.Handle(result, e.source.Recipe(), e.source.CurrentStep())

	if response.Text == "" {
		e.toIdle(gen, domain.SessionReasonNothingToSay)
		return
	}

	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return
	}
	e.setStateLocked(domain.SessionStateSpeaking, domain.SessionReasonSpeakingStarted)
	e.mu.Unlock()

	err = e.speaker.Speak(ctx, response.Text, false)
	if e.stale(gen) {
		return
	}
	if err != nil {
		e.fail(gen, domain.ErrorCodePlayback, err)
		return
	}
	e.events.ResponseSpoken(utteranceID, response.Text)
	e.finishSpeaking(gen)
}

// finishSpeaking returns to Idle, then re-enters Listening after a short
// delay when hands-free mode is on and the engine is still enabled.
func (e *Engine) finishSpeaking(gen uint64) {
	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return
	}
	e.inFlight = false
	e.setStateLocked(domain.SessionStateIdle, domain.SessionReasonSpeakingFinished)
	restart := e.handsFree && e.enabled
	if restart {
		e.handsFreeTimer = time.AfterFunc(e.cfg.HandsFreeDelay, func() {
			e.mu.Lock()
			ok := e.handsFree && e.enabled && e.state == domain.SessionStateIdle
			e.mu.Unlock()
			if !ok {
				return
			}
			e.events.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonHandsFreeRestart)
			if err := e.StartListening(context.Background()); err != nil {
				e.logger.Warn("hands-free restart failed", "error", err)
			}
		})
	}
	e.mu.Unlock()
}

// SpeakText speaks arbitrary text through the same filler/cache policy,
// unless skipCache opts out for short latency-sensitive confirmations.
// Only allowed from Idle.
func (e *Engine) SpeakText(ctx context.Context, text string, skipCache bool) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	e.mu.Lock()
	if e.state != domain.SessionStateIdle {
		e.mu.Unlock()
		return ErrBusy
	}
	e.generation++
	gen := e.generation
	e.utteranceID = uuid.NewString()
	e.setStateLocked(domain.SessionStateSpeaking, domain.SessionReasonSpeakingStarted)
	e.mu.Unlock()

	go func() {
		err := e.speaker.Speak(ctx, text, skipCache)
		if e.stale(gen) {
			return
		}
		if err != nil {
			e.fail(gen, domain.ErrorCodePlayback, err)
			return
		}
		e.toIdle(gen, domain.SessionReasonSpeakingFinished)
	}()
	return nil
}

// SpeakCurrentStep reads the host's current step aloud.
func (e *Engine) SpeakCurrentStep(ctx context.Context) error {
	response := e.dispatcher.Handle(
		domain.IntentResult{Intent: domain.IntentRepeatStep},
		e.source.Recipe(), e.source.CurrentStep(),
	)
	return e.SpeakText(ctx, response.Text, false)
}

// SpeakIngredients reads the full ingredient list aloud.
func (e *Engine) SpeakIngredients(ctx context.Context) error {
	response := e.dispatcher.Handle(
		domain.IntentResult{Intent: domain.IntentReadIngredients},
		e.source.Recipe(), e.source.CurrentStep(),
	)
	return e.SpeakText(ctx, response.Text, false)
}

func (e *Engine) stale(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen != e.generation
}

func (e *Engine) toIdle(gen uint64, reason domain.SessionStateReason) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		return
	}
	e.inFlight = false
	e.setStateLocked(domain.SessionStateIdle, reason)
}

func (e *Engine) fail(gen uint64, code domain.ErrorCode, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		return
	}
	e.failLocked(gen, code, err)
}

// failLocked enters the transient Error state and schedules the automatic
// revert to Idle. Every caught failure lands in lastError; none propagate
// past the engine boundary.
func (e *Engine) failLocked(gen uint64, code domain.ErrorCode, err error) {
	e.inFlight = false
	stopTimer(&e.listenTimer)
	stopTimer(&e.handsFreeTimer)
	e.lastError = errorMessage(code)
	e.logger.Error("adapter failure", "code", code, "error", err)
	e.events.SessionError(code, err.Error())
	e.setStateLocked(domain.SessionStateError, domain.SessionReasonAdapterFailed)
	e.errorTimer = time.AfterFunc(e.cfg.ErrorRevert, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if gen != e.generation || e.state != domain.SessionStateError {
			return
		}
		e.setStateLocked(domain.SessionStateIdle, domain.SessionReasonErrorCleared)
	})
}

func (e *Engine) setStateLocked(state domain.SessionState, reason domain.SessionStateReason) {
	e.state = state
	e.events.SessionStateChanged(state, reason)
}

func errorMessage(code domain.ErrorCode) string {
	switch code {
	case domain.ErrorCodeConfiguration:
		return "Speech recognition is not configured."
	case domain.ErrorCodePermission:
		return "Microphone permission denied."
	case domain.ErrorCodeCapture:
		return "Could not record audio."
	case domain.ErrorCodeTranscription:
		return "Could not understand the recording."
	case domain.ErrorCodePlayback:
		return "Could not play the response."
	default:
		return "Something went wrong."
	}
}

func stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
