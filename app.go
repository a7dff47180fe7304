package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"souschef/internal/bootstrap"
	"souschef/internal/config"
	"souschef/internal/domain"
	"souschef/internal/engine"
	"souschef/internal/ports"
)

const (
	eventState      = "souschef:state"
	eventTranscript = "souschef:transcript"
	eventResponse   = "souschef:response"
	eventError      = "souschef:error"
	eventStep       = "souschef:step"
	eventTimer      = "souschef:timer"
)

// App is the Wails application root. It is the engine's host: it owns the
// active recipe and the current-step pointer, forwards engine events to the
// frontend, and applies the engine's step/timer callbacks.
type App struct {
	ctx context.Context

	engine  *engine.Engine
	cfg     config.Config
	logger  *slog.Logger
	bootErr error

	mu          sync.Mutex
	recipe      *domain.Recipe
	currentStep int
}

func NewApp() *App {
	return &App{
		logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	hooks := ports.HostHooks{
		OnStepChange: a.applyStepChange,
		OnTimerStart: a.startTimer,
		OnTimerStop:  a.stopTimer,
	}
	source := engine.RecipeSource{
		Recipe:      a.activeRecipe,
		CurrentStep: a.CurrentStep,
	}

	services, err := bootstrap.Build(a, hooks, source, a.logger)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.engine = services.Engine
	a.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonEngineReady)
}

func (a *App) shutdown(_ context.Context) {
	if a.engine != nil {
		a.engine.Backgrounded()
	}
}

// SetRecipe installs the recipe the voice engine reads. The engine only ever
// sees it through the live accessor.
func (a *App) SetRecipe(recipe domain.Recipe) {
	a.mu.Lock()
	a.recipe = &recipe
	a.currentStep = 0
	a.mu.Unlock()
}

// ClearRecipe removes the active recipe; every voice command then answers
// with the no-active-recipe response.
func (a *App) ClearRecipe() {
	a.mu.Lock()
	a.recipe = nil
	a.currentStep = 0
	a.mu.Unlock()
}

// SetCurrentStep lets the frontend move the step pointer directly, e.g. when
// the user taps a step.
func (a *App) SetCurrentStep(index int) {
	a.mu.Lock()
	a.currentStep = a.clampStepLocked(index)
	a.mu.Unlock()
}

// CurrentStep reports the host-owned step pointer.
func (a *App) CurrentStep() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentStep
}

func (a *App) activeRecipe() *domain.Recipe {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recipe
}

func (a *App) clampStepLocked(index int) int {
	if a.recipe == nil || index < 0 {
		return 0
	}
	if last := len(a.recipe.Instructions) - 1; last >= 0 && index > last {
		return last
	}
	return index
}

// ToggleListening is the single voice control surface: stop while listening,
// barge in while speaking, otherwise start listening.
func (a *App) ToggleListening() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.engine.ToggleListening(a.ctx)
}

func (a *App) StartListening() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.engine.StartListening(a.ctx)
}

func (a *App) StopListening() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.engine.StopListening()
	return nil
}

func (a *App) StopSpeaking() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.engine.StopSpeaking()
	return nil
}

// SpeakText speaks arbitrary text; skipCache bypasses the phrase cache and
// the filler for short confirmations.
func (a *App) SpeakText(text string, skipCache bool) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.engine.SpeakText(a.ctx, text, skipCache)
}

func (a *App) SpeakCurrentStep() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.engine.SpeakCurrentStep(a.ctx)
}

func (a *App) SpeakIngredients() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.engine.SpeakIngredients(a.ctx)
}

func (a *App) RequestMicPermission() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.engine.RequestPermission(a.ctx)
}

func (a *App) SetHandsFree(on bool) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.engine.SetHandsFree(on)
	return nil
}

func (a *App) SetVoiceEnabled(on bool) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.engine.SetEnabled(on)
	return nil
}

// Backgrounded is called by the frontend when the window loses visibility;
// it cancels any in-flight recording and playback.
func (a *App) Backgrounded() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.engine.Backgrounded()
	return nil
}

// GetVoiceStatus returns the engine's observable surface.
func (a *App) GetVoiceStatus() domain.VoiceStatus {
	if a.engine == nil {
		status := domain.VoiceStatus{State: domain.SessionStateIdle}
		if a.bootErr != nil {
			status.State = domain.SessionStateError
			status.LastError = a.bootErr.Error()
		}
		return status
	}
	return a.engine.Status()
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.engine == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// applyStepChange is the engine's step callback: the host applies the change
// and tells the frontend.
func (a *App) applyStepChange(index int) {
	a.mu.Lock()
	a.currentStep = a.clampStepLocked(index)
	index = a.currentStep
	a.mu.Unlock()

	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventStep, map[string]int{"index": index})
}

func (a *App) startTimer(seconds int) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTimer, map[string]any{"running": true, "seconds": seconds})
}

func (a *App) stopTimer() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTimer, map[string]any{"running": false})
}

// SessionStateChanged emits session lifecycle updates to the frontend.
func (a *App) SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventState, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": sessionReasonMessage(reason),
	})
}

// TranscriptReady emits the recognized utterance text.
func (a *App) TranscriptReady(utteranceID string, text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, map[string]string{
		"utteranceId": utteranceID,
		"text":        text,
	})
}

// ResponseSpoken emits the response text after its playback completed.
func (a *App) ResponseSpoken(utteranceID string, text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventResponse, map[string]string{
		"utteranceId": utteranceID,
		"text":        text,
	})
}

// SessionError emits engine errors to the frontend.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func sessionReasonMessage(reason domain.SessionStateReason) string {
	switch reason {
	case domain.SessionReasonEngineReady:
		return "Voice control ready"
	case domain.SessionReasonListeningStarted:
		return "Listening..."
	case domain.SessionReasonListeningStopped:
		return "Got it. Working on it..."
	case domain.SessionReasonListeningTimedOut:
		return "Working on it..."
	case domain.SessionReasonSpeakingStarted:
		return "Speaking"
	case domain.SessionReasonSpeakingFinished:
		return "Done"
	case domain.SessionReasonSpeakingCancelled:
		return "Stopped"
	case domain.SessionReasonNoTranscript:
		return "Didn't hear anything"
	case domain.SessionReasonNothingToSay:
		return ""
	case domain.SessionReasonHandsFreeRestart:
		return "Still listening"
	case domain.SessionReasonBackgrounded:
		return "Voice control paused"
	case domain.SessionReasonAdapterFailed:
		return "Something went wrong"
	case domain.SessionReasonErrorCleared:
		return "Ready"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeConfiguration:
		return "Speech recognition is not configured"
	case domain.ErrorCodePermission:
		return "Microphone permission denied"
	case domain.ErrorCodeCapture:
		return "Could not record audio"
	case domain.ErrorCodeTranscription:
		return "Transcription error"
	case domain.ErrorCodePlayback:
		return "Playback error"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
