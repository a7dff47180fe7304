package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration for the voice engine.
type Config struct {
	Deepgram DeepgramConfig
	Audio    AudioConfig
	Playback PlaybackConfig
	Phrases  PhrasesConfig
	Engine   EngineConfig
}

type DeepgramConfig struct {
	APIKey      string
	APIBaseURL  string
	ListenModel string
	SpeakModel  string
	Language    string
	SmartFormat bool
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type PlaybackConfig struct {
	SampleRate int
	Channels   int
}

type PhrasesConfig struct {
	ManifestPath string
}

type EngineConfig struct {
	ListenTimeout  time.Duration
	ErrorRevert    time.Duration
	HandsFreeDelay time.Duration
	MinTranscript  int
}

// Load resolves configuration from environment variables and sensible
// defaults.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	manifest := strings.TrimSpace(os.Getenv("SOUSCHEF_PHRASE_MANIFEST"))
	if manifest == "" {
		manifest = filepath.Join(home, ".config", "souschef", "phrases", "manifest.yaml")
	}

	cfg := Config{
		Deepgram: DeepgramConfig{
			APIKey:      strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL:  envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			ListenModel: envOrDefault("DEEPGRAM_LISTEN_MODEL", "nova-2"),
			SpeakModel:  envOrDefault("DEEPGRAM_SPEAK_MODEL", "aura-2-thalia-en"),
			Language:    strings.TrimSpace(os.Getenv("DEEPGRAM_LANGUAGE")),
			SmartFormat: envOrDefaultBool("DEEPGRAM_SMART_FORMAT", true),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("SOUSCHEF_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("SOUSCHEF_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("SOUSCHEF_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("SOUSCHEF_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("SOUSCHEF_CHANNELS", 1),
		},
		Playback: PlaybackConfig{
			SampleRate: envOrDefaultInt("SOUSCHEF_PLAYBACK_SAMPLE_RATE", 48000),
			Channels:   envOrDefaultInt("SOUSCHEF_PLAYBACK_CHANNELS", 1),
		},
		Phrases: PhrasesConfig{
			ManifestPath: manifest,
		},
		Engine: EngineConfig{
			ListenTimeout:  durationMs("SOUSCHEF_LISTEN_TIMEOUT_MS", 5000),
			ErrorRevert:    durationMs("SOUSCHEF_ERROR_REVERT_MS", 1500),
			HandsFreeDelay: durationMs("SOUSCHEF_HANDS_FREE_DELAY_MS", 600),
			MinTranscript:  envOrDefaultInt("SOUSCHEF_MIN_TRANSCRIPT", 2),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Playback.SampleRate <= 0 {
		cfg.Playback.SampleRate = 48000
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func durationMs(key string, fallback int) time.Duration {
	ms := envOrDefaultInt(key, fallback)
	if ms < 0 {
		ms = fallback
	}
	return time.Duration(ms) * time.Millisecond
}
