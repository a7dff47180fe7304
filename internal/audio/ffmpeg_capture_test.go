package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"souschef/internal/ports"
)

// stubRecorder writes a shell script that emits the given payload on stdout
// and then idles until signalled, standing in for the capture binary.
func stubRecorder(t *testing.T, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recorder")
	script := "#!/bin/sh\nprintf '" + payload + "'\nexec sleep 60\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func waitForBuffer(t *testing.T, c *FFmpegCapture, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		got := c.buf.Len()
		c.mu.Unlock()
		if got >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("buffer never reached %d bytes", n)
}

func TestStartStopReturnsBufferedAudio(t *testing.T) {
	t.Parallel()

	c := NewFFmpegCapture(stubRecorder(t, "pcm-data"))
	cfg := ports.AudioConfig{SampleRate: 16000, Channels: 1}
	if err := c.StartRecording(context.Background(), cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForBuffer(t, c, len("pcm-data"))

	rec, err := c.StopRecording()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if string(rec.PCM) != "pcm-data" {
		t.Fatalf("pcm = %q", rec.PCM)
	}
	if rec.SampleRate != 16000 || rec.Channels != 1 {
		t.Fatalf("recording = %+v", rec)
	}
}

func TestStartTwiceFails(t *testing.T) {
	t.Parallel()

	c := NewFFmpegCapture(stubRecorder(t, "x"))
	if err := c.StartRecording(context.Background(), ports.AudioConfig{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.CancelRecording()

	if err := c.StartRecording(context.Background(), ports.AudioConfig{}); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("expected ErrAlreadyRecording, got %v", err)
	}
}

func TestStopWithoutStart(t *testing.T) {
	t.Parallel()

	c := NewFFmpegCapture("ffmpeg")
	rec, err := c.StopRecording()
	if err != nil {
		t.Fatalf("stop without start: %v", err)
	}
	if len(rec.PCM) != 0 {
		t.Fatalf("unexpected audio: %v", rec.PCM)
	}
}

func TestCancelDiscardsBuffer(t *testing.T) {
	t.Parallel()

	c := NewFFmpegCapture(stubRecorder(t, "discard-me"))
	if err := c.StartRecording(context.Background(), ports.AudioConfig{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForBuffer(t, c, len("discard-me"))

	c.CancelRecording()
	c.CancelRecording() // idempotent

	if rec, err := c.StopRecording(); err != nil || len(rec.PCM) != 0 {
		t.Fatalf("after cancel: rec=%v err=%v", rec, err)
	}
}

func TestStopWithNoAudioCaptured(t *testing.T) {
	t.Parallel()

	c := NewFFmpegCapture(stubRecorder(t, ""))
	if err := c.StartRecording(context.Background(), ports.AudioConfig{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if _, err := c.StopRecording(); err == nil {
		t.Fatalf("expected an error for an empty capture")
	}
}

func TestRequestPermission(t *testing.T) {
	t.Parallel()

	if err := NewFFmpegCapture("sh").RequestPermission(context.Background()); err != nil {
		t.Fatalf("sh should always be on PATH: %v", err)
	}
	if err := NewFFmpegCapture("definitely-not-a-real-binary").RequestPermission(context.Background()); err == nil {
		t.Fatalf("missing binary must fail")
	}
}
