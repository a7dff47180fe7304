package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"DEEPGRAM_API_KEY", "DEEPGRAM_API_BASE", "DEEPGRAM_LISTEN_MODEL",
		"DEEPGRAM_SPEAK_MODEL", "DEEPGRAM_LANGUAGE", "DEEPGRAM_SMART_FORMAT",
		"SOUSCHEF_FFMPEG_COMMAND", "SOUSCHEF_AUDIO_INPUT_FORMAT",
		"SOUSCHEF_AUDIO_INPUT_DEVICE", "SOUSCHEF_SAMPLE_RATE", "SOUSCHEF_CHANNELS",
		"SOUSCHEF_PLAYBACK_SAMPLE_RATE", "SOUSCHEF_PLAYBACK_CHANNELS",
		"SOUSCHEF_PHRASE_MANIFEST", "SOUSCHEF_LISTEN_TIMEOUT_MS",
		"SOUSCHEF_ERROR_REVERT_MS", "SOUSCHEF_HANDS_FREE_DELAY_MS",
		"SOUSCHEF_MIN_TRANSCRIPT",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Deepgram.APIKey != "" {
		t.Fatalf("api key should default to empty, got %q", cfg.Deepgram.APIKey)
	}
	if cfg.Deepgram.APIBaseURL != "https://api.deepgram.com/v1" {
		t.Fatalf("api base = %q", cfg.Deepgram.APIBaseURL)
	}
	if cfg.Deepgram.ListenModel != "nova-2" || cfg.Deepgram.SpeakModel != "aura-2-thalia-en" {
		t.Fatalf("models = %q / %q", cfg.Deepgram.ListenModel, cfg.Deepgram.SpeakModel)
	}
	if !cfg.Deepgram.SmartFormat {
		t.Fatalf("smart format should default on")
	}
	if cfg.Audio.RecorderCommand != "ffmpeg" || cfg.Audio.InputFormat != "pulse" {
		t.Fatalf("audio = %+v", cfg.Audio)
	}
	if cfg.Audio.SampleRate != 16000 || cfg.Audio.Channels != 1 {
		t.Fatalf("audio rates = %+v", cfg.Audio)
	}
	if cfg.Playback.SampleRate != 48000 {
		t.Fatalf("playback rate = %d", cfg.Playback.SampleRate)
	}
	if !strings.HasSuffix(cfg.Phrases.ManifestPath, "manifest.yaml") {
		t.Fatalf("manifest path = %q", cfg.Phrases.ManifestPath)
	}
	if cfg.Engine.ListenTimeout != 5*time.Second {
		t.Fatalf("listen timeout = %v", cfg.Engine.ListenTimeout)
	}
	if cfg.Engine.ErrorRevert != 1500*time.Millisecond {
		t.Fatalf("error revert = %v", cfg.Engine.ErrorRevert)
	}
	if cfg.Engine.HandsFreeDelay != 600*time.Millisecond {
		t.Fatalf("hands-free delay = %v", cfg.Engine.HandsFreeDelay)
	}
	if cfg.Engine.MinTranscript != 2 {
		t.Fatalf("min transcript = %d", cfg.Engine.MinTranscript)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEEPGRAM_API_KEY", "  key-123  ")
	t.Setenv("DEEPGRAM_LISTEN_MODEL", "nova-3")
	t.Setenv("DEEPGRAM_SMART_FORMAT", "off")
	t.Setenv("SOUSCHEF_SAMPLE_RATE", "44100")
	t.Setenv("SOUSCHEF_PHRASE_MANIFEST", "/tmp/phrases.yaml")
	t.Setenv("SOUSCHEF_LISTEN_TIMEOUT_MS", "7000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Deepgram.APIKey != "key-123" {
		t.Fatalf("api key = %q, want trimmed value", cfg.Deepgram.APIKey)
	}
	if cfg.Deepgram.ListenModel != "nova-3" {
		t.Fatalf("listen model = %q", cfg.Deepgram.ListenModel)
	}
	if cfg.Deepgram.SmartFormat {
		t.Fatalf("smart format should be off")
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Fatalf("sample rate = %d", cfg.Audio.SampleRate)
	}
	if cfg.Phrases.ManifestPath != "/tmp/phrases.yaml" {
		t.Fatalf("manifest path = %q", cfg.Phrases.ManifestPath)
	}
	if cfg.Engine.ListenTimeout != 7*time.Second {
		t.Fatalf("listen timeout = %v", cfg.Engine.ListenTimeout)
	}
}

func TestLoadIgnoresGarbageNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("SOUSCHEF_SAMPLE_RATE", "not-a-number")
	t.Setenv("SOUSCHEF_LISTEN_TIMEOUT_MS", "-250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("sample rate = %d, want default", cfg.Audio.SampleRate)
	}
	if cfg.Engine.ListenTimeout != 5*time.Second {
		t.Fatalf("listen timeout = %v, want default", cfg.Engine.ListenTimeout)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	cases := []struct {
		value    string
		fallback bool
		want     bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"yes", false, true},
		{"ON", false, true},
		{"false", true, false},
		{"0", true, false},
		{"no", true, false},
		{"garbage", true, true},
		{"", false, false},
	}
	for _, tc := range cases {
		t.Setenv("SOUSCHEF_TEST_BOOL", tc.value)
		if got := envOrDefaultBool("SOUSCHEF_TEST_BOOL", tc.fallback); got != tc.want {
			t.Errorf("envOrDefaultBool(%q, %v) = %v, want %v", tc.value, tc.fallback, got, tc.want)
		}
	}
}
