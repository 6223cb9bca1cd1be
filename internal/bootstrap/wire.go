package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"whisperkey/internal/audio"
	"whisperkey/internal/config"
	"whisperkey/internal/fillers"
	"whisperkey/internal/history"
	"whisperkey/internal/hook"
	"whisperkey/internal/hotkey"
	"whisperkey/internal/insert"
	"whisperkey/internal/ports"
	"whisperkey/internal/providers/openai"
	"whisperkey/internal/providers/whisperd"
	"whisperkey/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Arbiter      *usecase.Arbiter
	Dispatcher   *hotkey.Dispatcher
	Resolver     *hotkey.Resolver
	Audio        *audio.Recorder
	History      *history.Store
	Settings     config.Settings
	SettingsPath string
}

// Build wires all backend dependencies for the current runtime.
func Build(ctx context.Context, eventSink ports.EventSink, log *slog.Logger) (Services, error) {
	if log == nil {
		log = slog.Default()
	}

	settingsPath, err := config.DefaultPath()
	if err != nil {
		return Services{}, err
	}
	settings, err := config.Load(settingsPath)
	if err != nil {
		log.Warn("config unreadable, running with defaults", "error", err)
		settings = config.Default()
	}

	filterEngine := fillers.NewEngine()
	if settings.FillerRulesFile != "" {
		if err := filterEngine.LoadUserRules(settings.FillerRulesFile); err != nil {
			log.Warn("user filler rules not loaded", "error", err)
		}
	}

	dataDir := filepath.Dir(settingsPath)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return Services{}, fmt.Errorf("create data dir: %w", err)
	}
	historyStore, err := history.Open(filepath.Join(dataDir, "history.db"), settings.HistorySize)
	if err != nil {
		return Services{}, fmt.Errorf("open history: %w", err)
	}

	whisper := whisperd.NewClient(whisperd.Config{
		BaseURL:  settings.WhisperdURL,
		Language: languageOrEmpty(settings.Language),
	})

	recorder := audio.NewRecorder("ffmpeg")
	resolver := hotkey.NewResolver()
	dispatcher := hotkey.NewDispatcher(hook.NewSource(), log)

	arbiter := usecase.NewArbiter(ctx, usecase.Deps{
		Dispatcher:  dispatcher,
		Resolver:    resolver,
		Audio:       recorder,
		Transcriber: whisper,
		Streamer:    whisper,
		Transformer: openai.NewTransformer(openai.Config{APIKey: settings.OpenAIAPIKey}),
		Inserter:    insert.New(settings.InsertionMethod, log),
		Fillers:     filterEngine,
		History:     historyStore,
		Events:      eventSink,
		Log:         log,
	}, usecase.Config{
		Audio: ports.AudioConfig{
			SampleRate: settings.SampleRate,
			Channels:   1,
			DeviceID:   settings.Microphone,
		},
		Language:  languageOrEmpty(settings.Language),
		Streaming: settings.ShowRealtimeText,
		Fillers:   settings.FilterFillers,
	})

	return Services{
		Arbiter:      arbiter,
		Dispatcher:   dispatcher,
		Resolver:     resolver,
		Audio:        recorder,
		History:      historyStore,
		Settings:     settings,
		SettingsPath: settingsPath,
	}, nil
}

// languageOrEmpty maps the "auto" sentinel to no language hint.
func languageOrEmpty(language string) string {
	if language == "auto" {
		return ""
	}
	return language
}
