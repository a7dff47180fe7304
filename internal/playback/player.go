// Package playback plays linear16 PCM through the default output device
// using malgo.
package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// drainDelay gives the device buffer time to empty after the last sample is
// handed to the callback.
const drainDelay = 60 * time.Millisecond

// Player opens a playback device per utterance and blocks until the PCM has
// been consumed or the call is cancelled.
type Player struct {
	sampleRate int
	channels   int

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewPlayer(sampleRate, channels int) *Player {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	if channels <= 0 {
		channels = 1
	}
	return &Player{sampleRate: sampleRate, channels: channels}
}

func (p *Player) Play(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		if p.cancel != nil {
			p.cancel = nil
		}
		p.mu.Unlock()
		cancel()
	}()

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(p.channels)
	deviceConfig.SampleRate = uint32(p.sampleRate)

	var (
		offset   int
		offsetMu sync.Mutex
		doneOnce sync.Once
	)
	done := make(chan struct{})

	onSamples := func(out, _ []byte, _ uint32) {
		offsetMu.Lock()
		n := copy(out, pcm[offset:])
		offset += n
		finished := offset >= len(pcm)
		offsetMu.Unlock()
		for i := n; i < len(out); i++ {
			out[i] = 0
		}
		if finished {
			doneOnce.Do(func() { close(done) })
		}
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		return fmt.Errorf("init playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("start playback device: %w", err)
	}

	select {
	case <-done:
		time.Sleep(drainDelay)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels any in-progress playback. Safe to call when nothing is
// playing.
func (p *Player) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
