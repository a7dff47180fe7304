package domain

// SessionState models the voice interaction lifecycle. Exactly one state is
// active per engine at any instant.
type SessionState string

const (
	SessionStateIdle       SessionState = "idle"
	SessionStateListening  SessionState = "listening"
	SessionStateProcessing SessionState = "processing"
	SessionStateSpeaking   SessionState = "speaking"
	SessionStateError      SessionState = "error"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonEngineReady       SessionStateReason = "engine_ready"
	SessionReasonListeningStarted  SessionStateReason = "listening_started"
	SessionReasonListeningStopped  SessionStateReason = "listening_stopped"
	SessionReasonListeningTimedOut SessionStateReason = "listening_timed_out"
	SessionReasonSpeakingStarted   SessionStateReason = "speaking_started"
	SessionReasonSpeakingFinished  SessionStateReason = "speaking_finished"
	SessionReasonSpeakingCancelled SessionStateReason = "speaking_cancelled"
	SessionReasonNoTranscript      SessionStateReason = "no_transcript"
	SessionReasonNothingToSay      SessionStateReason = "nothing_to_say"
	SessionReasonHandsFreeRestart  SessionStateReason = "hands_free_restart"
	SessionReasonBackgrounded      SessionStateReason = "backgrounded"
	SessionReasonAdapterFailed     SessionStateReason = "adapter_failed"
	SessionReasonErrorCleared      SessionStateReason = "error_cleared"
)

// ErrorCode identifies engine failure categories.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeConfiguration ErrorCode = "configuration"
	ErrorCodePermission    ErrorCode = "permission"
	ErrorCodeCapture       ErrorCode = "capture"
	ErrorCodeTranscription ErrorCode = "transcription"
	ErrorCodePlayback      ErrorCode = "playback"
)

// Intent enumerates every voice command the extractor can recognize.
type Intent string

const (
	IntentNextStep        Intent = "next_step"
	IntentPreviousStep    Intent = "previous_step"
	IntentRepeatStep      Intent = "repeat_step"
	IntentRestart         Intent = "restart"
	IntentWhatStep        Intent = "what_step"
	IntentReadIngredients Intent = "read_ingredients"
	IntentIngredientQuery Intent = "ingredient_query"
	IntentTemperature     Intent = "temperature_query"
	IntentSetTimer        Intent = "set_timer"
	IntentStopTimer       Intent = "stop_timer"
	IntentStopSpeaking    Intent = "stop_speaking"
	IntentPause           Intent = "pause"
	IntentHelp            Intent = "help"
	IntentUnknown         Intent = "unknown"
)

// Slots carries the parameters extracted alongside an intent.
type Slots struct {
	Ingredient   string `json:"ingredient,omitempty"`
	TimerMinutes int    `json:"timerMinutes,omitempty"`
	TimerSeconds int    `json:"timerSeconds,omitempty"`
}

// IntentResult is the output of intent extraction over a transcript.
type IntentResult struct {
	Intent Intent `json:"intent"`
	Slots  Slots  `json:"slots"`
}

// Action tags the host side effect a command response requests.
type Action string

const (
	ActionNone       Action = ""
	ActionSetStep    Action = "set_step"
	ActionStartTimer Action = "start_timer"
	ActionStopTimer  Action = "stop_timer"
)

// CommandResponse is what the dispatcher produces for one utterance.
// An empty Text means "say nothing".
type CommandResponse struct {
	Text         string `json:"text"`
	Action       Action `json:"action,omitempty"`
	StepIndex    int    `json:"stepIndex,omitempty"`
	TimerSeconds int    `json:"timerSeconds,omitempty"`
}

// Ingredient is one recipe ingredient line.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Step is one recipe instruction.
type Step struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Recipe is the read-only recipe context owned by the host. The engine never
// mutates it.
type Recipe struct {
	Title        string       `json:"title"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []Step       `json:"instructions"`
}

// Recording is the audio captured for one utterance.
type Recording struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// VoiceStatus summarizes the engine's observable surface for the host.
type VoiceStatus struct {
	State             SessionState `json:"state"`
	Enabled           bool         `json:"enabled"`
	HandsFree         bool         `json:"handsFree"`
	Available         bool         `json:"available"`
	PermissionGranted bool         `json:"permissionGranted"`
	LastTranscript    string       `json:"lastTranscript"`
	LastError         string       `json:"lastError"`
}
