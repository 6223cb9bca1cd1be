package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"whisperkey/internal/bootstrap"
	"whisperkey/internal/config"
	"whisperkey/internal/domain"
	"whisperkey/internal/history"
	"whisperkey/internal/hotkey"
	"whisperkey/internal/usecase"
)

const (
	eventStatus  = "whisperkey:status"
	eventPartial = "whisperkey:partial"
	eventFinal   = "whisperkey:final"
	eventAlert   = "whisperkey:alert"
	eventError   = "whisperkey:error"
)

// App is the Wails application root. It implements ports.EventSink by
// forwarding backend events to the frontend event bus.
type App struct {
	ctx context.Context
	log *slog.Logger

	arbiter      *usecase.Arbiter
	historyStore *history.Store
	resolver     *hotkey.Resolver
	services     bootstrap.Services
	watcher      *config.Watcher
	bootErr      error
}

func NewApp() *App {
	return &App{
		log: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(ctx, a, a.log)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.services = services
	a.arbiter = services.Arbiter
	a.historyStore = services.History
	a.resolver = services.Resolver

	a.arbiter.Rebuild(services.Settings.Actions())

	watcher, err := config.Watch(services.SettingsPath, a.log, a.reloadSettings)
	if err != nil {
		a.log.Warn("config watcher unavailable", "error", err)
	} else {
		a.watcher = watcher
	}

	a.StatusChanged(domain.SessionStateIdle, domain.SessionReasonReady)
}

func (a *App) shutdown(_ context.Context) {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	if a.arbiter != nil {
		a.arbiter.Shutdown()
	}
	if a.historyStore != nil {
		_ = a.historyStore.Close()
	}
}

// reloadSettings reregisters hotkey actions after the config file
// changed on disk. Audio and provider settings need a restart.
func (a *App) reloadSettings() {
	settings, err := config.Load(a.services.SettingsPath)
	if err != nil {
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}
	a.services.Settings = settings
	a.arbiter.Rebuild(settings.Actions())
	a.StatusChanged(domain.SessionStateIdle, domain.SessionReasonBindingsReloaded)
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.arbiter == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.SessionStateError, Message: a.bootErr.Error()}
		}
		return domain.Status{State: domain.SessionStateIdle}
	}
	return a.arbiter.Status()
}

// GetSettings returns the active settings for the UI.
func (a *App) GetSettings() (config.Settings, error) {
	if err := a.requireReady(); err != nil {
		return config.Settings{}, err
	}
	return a.services.Settings, nil
}

// SaveSettings persists new settings and reregisters hotkeys.
func (a *App) SaveSettings(settings config.Settings) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := config.Save(a.services.SettingsPath, settings); err != nil {
		return err
	}
	a.services.Settings = settings
	a.arbiter.Rebuild(settings.Actions())
	return nil
}

// GetDevices lists available audio input devices.
func (a *App) GetDevices() ([]domain.Device, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.services.Audio.Devices(a.ctx)
}

// RecentHistory returns the latest dictations, newest first.
func (a *App) RecentHistory(n int) ([]domain.HistoryEntry, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.historyStore.Recent(n)
}

// ClearHistory deletes all stored dictations.
func (a *App) ClearHistory() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.historyStore.Clear()
}

// HotkeyLabels maps action ids to display strings like "⌘⇧D".
func (a *App) HotkeyLabels() map[string]string {
	labels := make(map[string]string)
	if a.resolver == nil {
		return labels
	}
	for _, action := range a.services.Settings.Actions() {
		spec, err := a.resolver.ParseSpec(action.Hotkey)
		if err != nil {
			continue
		}
		labels[action.ID] = spec.DisplayString()
	}
	return labels
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.arbiter == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// StatusChanged emits session lifecycle updates to the frontend.
func (a *App) StatusChanged(state domain.SessionState, reason domain.SessionStateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventStatus, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": statusMessage(reason),
	})
}

// PartialTranscript emits live partial transcript text.
func (a *App) PartialTranscript(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventPartial, map[string]string{"text": text})
}

// FinalTranscript emits the completed transcript.
func (a *App) FinalTranscript(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventFinal, map[string]string{"text": text})
}

// Alert emits a user-facing notification.
func (a *App) Alert(title string, message string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventAlert, map[string]string{
		"title":   title,
		"message": message,
	})
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func statusMessage(reason domain.SessionStateReason) string {
	switch reason {
	case domain.SessionReasonReady:
		return "Ready"
	case domain.SessionReasonRecordingStarted:
		return "Recording..."
	case domain.SessionReasonTranscribing:
		return "Transcribing..."
	case domain.SessionReasonTextInserted:
		return "Text inserted"
	case domain.SessionReasonInsertFailed:
		return "Could not insert text"
	case domain.SessionReasonRecordingDiscarded:
		return "Recording discarded"
	case domain.SessionReasonAudioTooQuiet:
		return "Too quiet, nothing transcribed"
	case domain.SessionReasonNoTranscript:
		return "No speech detected"
	case domain.SessionReasonTranscriptionFailed:
		return "Transcription failed"
	case domain.SessionReasonTransformFailed:
		return "Action failed"
	case domain.SessionReasonCaptureFailed:
		return "Microphone unavailable"
	case domain.SessionReasonBindingsReloaded:
		return "Hotkeys reloaded"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeCaptureStart:
		return "Could not start recording"
	case domain.ErrorCodeCaptureStop:
		return "Could not stop recording"
	case domain.ErrorCodeTranscription:
		return "Transcription failed"
	case domain.ErrorCodeTransform:
		return "Text action failed"
	case domain.ErrorCodeInsertion:
		return "Could not insert text"
	case domain.ErrorCodeHotkey:
		return "Hotkey registration failed"
	case domain.ErrorCodeHistory:
		return "History unavailable"
	default:
		if detail != "" {
			return detail
		}
		return "Unknown error"
	}
}
