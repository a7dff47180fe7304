package bootstrap

import (
	"log/slog"

	"souschef/internal/audio"
	"souschef/internal/command"
	"souschef/internal/config"
	"souschef/internal/engine"
	"souschef/internal/phrasecache"
	"souschef/internal/playback"
	"souschef/internal/ports"
	"souschef/internal/providers/deepgram"
	"souschef/internal/speech"
)

// Services is the assembled runtime graph.
type Services struct {
	Engine *engine.Engine
	Config config.Config
}

// Build wires all backend dependencies for the current runtime.
func Build(events ports.EventSink, hooks ports.HostHooks, source engine.RecipeSource, logger *slog.Logger) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	cache, err := phrasecache.Load(cfg.Phrases.ManifestPath)
	if err != nil {
		return Services{}, err
	}

	dgCfg := deepgram.Config{
		APIKey:          cfg.Deepgram.APIKey,
		APIBaseURL:      cfg.Deepgram.APIBaseURL,
		ListenModel:     cfg.Deepgram.ListenModel,
		SpeakModel:      cfg.Deepgram.SpeakModel,
		Language:        cfg.Deepgram.Language,
		SmartFormat:     cfg.Deepgram.SmartFormat,
		SpeakSampleRate: cfg.Playback.SampleRate,
	}

	speaker := speech.NewSpeaker(
		deepgram.NewSynthesizer(dgCfg),
		playback.NewPlayer(cfg.Playback.SampleRate, cfg.Playback.Channels),
		cache,
	)

	eng := engine.New(
		audio.NewFFmpegCapture(cfg.Audio.RecorderCommand),
		deepgram.NewTranscriber(dgCfg),
		speaker,
		command.NewDispatcher(hooks),
		events,
		source,
		logger,
		engine.Config{
			ListenTimeout:  cfg.Engine.ListenTimeout,
			ErrorRevert:    cfg.Engine.ErrorRevert,
			HandsFreeDelay: cfg.Engine.HandsFreeDelay,
			MinTranscript:  cfg.Engine.MinTranscript,
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
		},
	)

	return Services{Engine: eng, Config: cfg}, nil
}
