// Package deepgram adapts Deepgram's speech APIs: prerecorded transcription
// over HTTP and speech synthesis over a websocket.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"souschef/internal/domain"
)

// Config controls both Deepgram adapters.
type Config struct {
	APIKey      string
	APIBaseURL  string
	ListenModel string
	SpeakModel  string
	Language    string
	SmartFormat bool
	// SpeakSampleRate is the PCM rate requested from the speak endpoint.
	SpeakSampleRate int
}

func (c *Config) applyDefaults() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = "https://api.deepgram.com/v1"
	}
	if c.ListenModel == "" {
		c.ListenModel = "nova-2"
	}
	if c.SpeakModel == "" {
		c.SpeakModel = "aura-2-thalia-en"
	}
	if c.SpeakSampleRate <= 0 {
		c.SpeakSampleRate = 48000
	}
}

// Transcriber uploads a finished recording to the prerecorded /listen
// endpoint and returns the transcript.
type Transcriber struct {
	cfg    Config
	client *http.Client
}

func NewTranscriber(cfg Config) *Transcriber {
	cfg.applyDefaults()
	return &Transcriber{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Available reports whether an API key is configured.
func (t *Transcriber) Available() bool {
	return strings.TrimSpace(t.cfg.APIKey) != ""
}

type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (t *Transcriber) Transcribe(ctx context.Context, rec domain.Recording) (string, error) {
	if !t.Available() {
		return "", errors.New("DEEPGRAM_API_KEY is not configured")
	}
	if len(rec.PCM) == 0 {
		return "", nil
	}

	endpoint, err := buildListenURL(t.cfg, rec)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(rec.PCM))
	if err != nil {
		return "", fmt.Errorf("create transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+t.cfg.APIKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("deepgram listen returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed listenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return parsed.Results.Channels[0].Alternatives[0].Transcript, nil
}

func buildListenURL(cfg Config, rec domain.Recording) (string, error) {
	u, err := url.Parse(cfg.APIBaseURL + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram base URL: %w", err)
	}
	q := u.Query()
	q.Set("model", cfg.ListenModel)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(rec.SampleRate))
	q.Set("channels", strconv.Itoa(rec.Channels))
	if cfg.Language != "" {
		q.Set("language", cfg.Language)
	}
	if cfg.SmartFormat {
		q.Set("smart_format", "true")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
