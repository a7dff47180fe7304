// Package speech plays responses while hiding synthesis latency. When a
// response is not pre-rendered, a short always-cached filler phrase is played
// first so the user hears something immediately; the filler strictly precedes
// the response and the two are never interleaved.
package speech

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"souschef/internal/ports"
)

// FillerPhrase is spoken before any response that needs live synthesis.
const FillerPhrase = "Let me check."

const defaultFillerPause = 300 * time.Millisecond

// Speaker sequences cache lookup, filler, synthesis, and playback for one
// response at a time.
type Speaker struct {
	synth  ports.Synthesizer
	player ports.Player
	cache  ports.PhraseCache
	pause  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	seq    int
}

func NewSpeaker(synth ports.Synthesizer, player ports.Player, cache ports.PhraseCache) *Speaker {
	return &Speaker{synth: synth, player: player, cache: cache, pause: defaultFillerPause}
}

// Speak blocks until the response has fully played, was cancelled, or failed.
// skipCache bypasses both the cache lookup and the filler; it exists for very
// short latency-sensitive confirmations.
func (s *Speaker) Speak(ctx context.Context, text string, skipCache bool) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.seq == seq {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	if skipCache {
		return s.synthesizeAndPlay(ctx, text)
	}

	if pcm, ok := s.cache.Audio(text); ok {
		return s.player.Play(ctx, pcm)
	}

	if err := s.playFiller(ctx); err != nil {
		return err
	}
	select {
	case <-time.After(s.pause):
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.synthesizeAndPlay(ctx, text)
}

// Stop cancels whatever is playing. Safe to call when idle.
func (s *Speaker) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.player.Stop()
}

// playFiller prefers the pre-rendered filler audio; if the manifest somehow
// lacks it, the filler is synthesized live so it still precedes the response.
func (s *Speaker) playFiller(ctx context.Context) error {
	if pcm, ok := s.cache.Audio(FillerPhrase); ok {
		return s.player.Play(ctx, pcm)
	}
	return s.synthesizeAndPlay(ctx, FillerPhrase)
}

func (s *Speaker) synthesizeAndPlay(ctx context.Context, text string) error {
	pcm, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synthesize %q: %w", text, err)
	}
	return s.player.Play(ctx, pcm)
}

