package deepgram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"souschef/internal/domain"
)

func testRecording() domain.Recording {
	return domain.Recording{PCM: []byte{1, 2, 3, 4}, SampleRate: 16000, Channels: 1}
}

func TestAvailable(t *testing.T) {
	t.Parallel()

	if NewTranscriber(Config{}).Available() {
		t.Fatalf("no key must mean unavailable")
	}
	if NewTranscriber(Config{APIKey: "   "}).Available() {
		t.Fatalf("blank key must mean unavailable")
	}
	if !NewTranscriber(Config{APIKey: "dg-key"}).Available() {
		t.Fatalf("key set must mean available")
	}
}

func TestTranscribe(t *testing.T) {
	t.Parallel()

	var gotAuth, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		if r.URL.Path != "/listen" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":"next step"}]}]}}`))
	}))
	defer server.Close()

	tr := NewTranscriber(Config{APIKey: "dg-key", APIBaseURL: server.URL, SmartFormat: true})
	text, err := tr.Transcribe(context.Background(), testRecording())
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "next step" {
		t.Fatalf("transcript = %q", text)
	}
	if gotAuth != "Token dg-key" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	for _, want := range []string{"model=nova-2", "encoding=linear16", "sample_rate=16000", "channels=1", "smart_format=true"} {
		if !strings.Contains(gotQuery, want) {
			t.Fatalf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestTranscribeEmptyRecording(t *testing.T) {
	t.Parallel()

	tr := NewTranscriber(Config{APIKey: "dg-key"})
	text, err := tr.Transcribe(context.Background(), domain.Recording{})
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "" {
		t.Fatalf("empty recording should yield empty transcript, got %q", text)
	}
}

func TestTranscribeWithoutKey(t *testing.T) {
	t.Parallel()

	if _, err := NewTranscriber(Config{}).Transcribe(context.Background(), testRecording()); err == nil {
		t.Fatalf("expected an error without an API key")
	}
}

func TestTranscribeServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer server.Close()

	tr := NewTranscriber(Config{APIKey: "dg-key", APIBaseURL: server.URL})
	_, err := tr.Transcribe(context.Background(), testRecording())
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected a status error, got %v", err)
	}
}

func TestTranscribeNoAlternatives(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"channels":[]}}`))
	}))
	defer server.Close()

	tr := NewTranscriber(Config{APIKey: "dg-key", APIBaseURL: server.URL})
	text, err := tr.Transcribe(context.Background(), testRecording())
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty transcript, got %q", text)
	}
}

func TestBuildListenURLLanguage(t *testing.T) {
	t.Parallel()

	cfg := Config{APIBaseURL: "https://api.deepgram.com/v1", ListenModel: "nova-2", Language: "es"}
	endpoint, err := buildListenURL(cfg, testRecording())
	if err != nil {
		t.Fatalf("build url: %v", err)
	}
	if !strings.Contains(endpoint, "language=es") {
		t.Fatalf("url %q missing language", endpoint)
	}
	if strings.Contains(endpoint, "smart_format") {
		t.Fatalf("url %q should not request smart_format", endpoint)
	}
}
