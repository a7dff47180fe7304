package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const speakReadLimit = 30 * time.Second

// Synthesizer renders text to linear16 PCM over the /speak websocket. One
// connection per request: the engine speaks short phrases and never overlaps
// playback, so keeping a connection warm buys nothing here.
type Synthesizer struct {
	cfg Config
}

func NewSynthesizer(cfg Config) *Synthesizer {
	cfg.applyDefaults()
	return &Synthesizer{cfg: cfg}
}

type speakControl struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type speakEvent struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Message     string `json:"message,omitempty"`
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return nil, errors.New("DEEPGRAM_API_KEY is not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	wsURL, err := buildSpeakURL(s.cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+s.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("connect to Deepgram speak websocket: %w", err)
	}
	defer conn.Close()

	// Unblock reads if the caller cancels mid-synthesis.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-watchDone:
		}
	}()

	for _, msg := range []speakControl{
		{Type: "Speak", Text: text},
		{Type: "Flush"},
	} {
		if err := conn.WriteJSON(msg); err != nil {
			return nil, fmt.Errorf("send %s: %w", msg.Type, err)
		}
	}

	_ = conn.SetReadDeadline(time.Now().Add(speakReadLimit))

	var pcm []byte
	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return pcm, nil
			}
			return nil, fmt.Errorf("read synthesis stream: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			pcm = append(pcm, payload...)
		case websocket.TextMessage:
			var event speakEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				continue
			}
			switch event.Type {
			case "Flushed":
				_ = conn.WriteJSON(speakControl{Type: "Close"})
				return pcm, nil
			case "Error":
				detail := event.Description
				if detail == "" {
					detail = event.Message
				}
				return nil, fmt.Errorf("deepgram speak error: %s", detail)
			}
		}
	}
}

func buildSpeakURL(cfg Config) (string, error) {
	u, err := url.Parse(cfg.APIBaseURL + "/speak")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("model", cfg.SpeakModel)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(cfg.SpeakSampleRate))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
