package deepgram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{}

// speakServer runs a minimal /speak endpoint: it waits for Speak and Flush,
// streams the given chunks as binary frames, then reports Flushed.
func speakServer(t *testing.T, chunks [][]byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token dg-key" {
			t.Errorf("authorization = %q", got)
		}
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		sawFlush := false
		for !sawFlush {
			var msg speakControl
			if err := conn.ReadJSON(&msg); err != nil {
				t.Errorf("read control: %v", err)
				return
			}
			switch msg.Type {
			case "Speak":
				if msg.Text == "" {
					t.Errorf("Speak with empty text")
				}
			case "Flush":
				sawFlush = true
			}
		}
		for _, chunk := range chunks {
			if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				return
			}
		}
		_ = conn.WriteJSON(speakEvent{Type: "Flushed"})
		// Wait for the client's Close control message.
		_, _, _ = conn.ReadMessage()
	}))
}

func TestSynthesize(t *testing.T) {
	t.Parallel()

	server := speakServer(t, [][]byte{{1, 2}, {3, 4, 5}})
	defer server.Close()

	synth := NewSynthesizer(Config{APIKey: "dg-key", APIBaseURL: server.URL})
	pcm, err := synth.Synthesize(context.Background(), "Step 1. Preheat the oven.")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if want := []byte{1, 2, 3, 4, 5}; string(pcm) != string(want) {
		t.Fatalf("pcm = %v, want %v", pcm, want)
	}
}

func TestSynthesizeServerReportedError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for i := 0; i < 2; i++ {
			var msg speakControl
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
		}
		_ = conn.WriteJSON(speakEvent{Type: "Error", Description: "model not found"})
	}))
	defer server.Close()

	synth := NewSynthesizer(Config{APIKey: "dg-key", APIBaseURL: server.URL})
	_, err := synth.Synthesize(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("expected the server error, got %v", err)
	}
}

func TestSynthesizeWithoutKey(t *testing.T) {
	t.Parallel()

	if _, err := NewSynthesizer(Config{}).Synthesize(context.Background(), "hello"); err == nil {
		t.Fatalf("expected an error without an API key")
	}
}

func TestSynthesizeBlankText(t *testing.T) {
	t.Parallel()

	pcm, err := NewSynthesizer(Config{APIKey: "dg-key"}).Synthesize(context.Background(), "  ")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if pcm != nil {
		t.Fatalf("blank text should produce no audio")
	}
}

func TestSynthesizeCancelled(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	defer close(block)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		<-block
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	synth := NewSynthesizer(Config{APIKey: "dg-key", APIBaseURL: server.URL})
	if _, err := synth.Synthesize(ctx, "hello"); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestBuildSpeakURL(t *testing.T) {
	t.Parallel()

	endpoint, err := buildSpeakURL(Config{
		APIBaseURL:      "https://api.deepgram.com/v1",
		SpeakModel:      "aura-2-thalia-en",
		SpeakSampleRate: 48000,
	})
	if err != nil {
		t.Fatalf("build url: %v", err)
	}
	if !strings.HasPrefix(endpoint, "wss://api.deepgram.com/v1/speak?") {
		t.Fatalf("url = %q", endpoint)
	}
	for _, want := range []string{"model=aura-2-thalia-en", "encoding=linear16", "sample_rate=48000"} {
		if !strings.Contains(endpoint, want) {
			t.Fatalf("url %q missing %q", endpoint, want)
		}
	}

	endpoint, err = buildSpeakURL(Config{APIBaseURL: "http://127.0.0.1:9999/v1", SpeakModel: "m", SpeakSampleRate: 8000})
	if err != nil {
		t.Fatalf("build url: %v", err)
	}
	if !strings.HasPrefix(endpoint, "ws://") {
		t.Fatalf("plain http base must map to ws, got %q", endpoint)
	}
}
