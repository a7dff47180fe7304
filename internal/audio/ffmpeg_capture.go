// Package audio captures microphone PCM with an ffmpeg subprocess, buffering
// one utterance at a time.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"souschef/internal/domain"
	"souschef/internal/ports"
)

var ErrAlreadyRecording = errors.New("a recording is already in progress")

const stopGrace = 2 * time.Second

// FFmpegCapture records one utterance into memory. Start spawns ffmpeg
// writing s16le PCM to stdout; Stop tears it down and hands back whatever
// was buffered; Cancel tears it down and discards the buffer.
type FFmpegCapture struct {
	command string

	mu     sync.Mutex
	cmd    *exec.Cmd
	cancel context.CancelFunc
	buf    bytes.Buffer
	done   chan struct{}
	cfg    ports.AudioConfig
}

func NewFFmpegCapture(command string) *FFmpegCapture {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFmpegCapture{command: command}
}

// RequestPermission verifies the capture binary is present. On a desktop the
// OS prompts for microphone access when ffmpeg first opens the device, so a
// missing binary is the only failure detectable up front.
func (c *FFmpegCapture) RequestPermission(_ context.Context) error {
	if _, err := exec.LookPath(c.command); err != nil {
		return fmt.Errorf("capture command %q not found: %w", c.command, err)
	}
	return nil
}

func (c *FFmpegCapture) StartRecording(ctx context.Context, cfg ports.AudioConfig) error {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd != nil {
		return ErrAlreadyRecording
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}

	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, c.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("open capture pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start %s: %w", c.command, err)
	}

	c.cmd = cmd
	c.cancel = cancel
	c.cfg = cfg
	c.buf.Reset()
	done := make(chan struct{})
	c.done = done

	go func() {
		defer close(done)
		chunk := make([]byte, 4096)
		for {
			n, readErr := stdout.Read(chunk)
			if n > 0 {
				c.mu.Lock()
				c.buf.Write(chunk[:n])
				c.mu.Unlock()
			}
			if readErr != nil {
				return
			}
		}
	}()
	return nil
}

func (c *FFmpegCapture) StopRecording() (domain.Recording, error) {
	c.mu.Lock()
	cmd := c.cmd
	cancel := c.cancel
	done := c.done
	cfg := c.cfg
	c.mu.Unlock()

	if cmd == nil {
		return domain.Recording{}, nil
	}

	// Interrupt lets ffmpeg flush its last buffered frames before exiting.
	_ = cmd.Process.Signal(os.Interrupt)
	select {
	case <-done:
	case <-time.After(stopGrace):
		cancel()
		<-done
	}
	_ = cmd.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	pcm := make([]byte, c.buf.Len())
	copy(pcm, c.buf.Bytes())
	c.reset()

	if len(pcm) == 0 {
		return domain.Recording{}, errors.New("no audio captured")
	}
	return domain.Recording{PCM: pcm, SampleRate: cfg.SampleRate, Channels: cfg.Channels}, nil
}

// CancelRecording tears down any in-flight capture and discards the buffer.
// Idempotent and callable from any state.
func (c *FFmpegCapture) CancelRecording() {
	c.mu.Lock()
	cmd := c.cmd
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if cmd == nil {
		return
	}
	cancel()
	<-done
	_ = cmd.Wait()

	c.mu.Lock()
	c.reset()
	c.mu.Unlock()
}

func (c *FFmpegCapture) reset() {
	c.cmd = nil
	c.cancel = nil
	c.done = nil
	c.buf.Reset()
}
