package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"whisperkey/internal/domain"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, "<cmd>+<shift>+d", s.Hotkey)
	require.Equal(t, "<cmd>+<shift>+t", s.TranslateHotkey)
	require.Equal(t, 16000, s.SampleRate)
	require.Equal(t, 20, s.HistorySize)
	require.Equal(t, "auto", s.Language)
	require.True(t, s.FilterFillers)
	require.NotEmpty(t, s.TranslationPrompt)
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "hotkey: <cmd>+<alt>+space\nhistory_size: 5\nlanguage: ru\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "<cmd>+<alt>+space", s.Hotkey)
	require.Equal(t, 5, s.HistorySize)
	require.Equal(t, "ru", s.Language)
	// Untouched keys keep their defaults.
	require.Equal(t, "<cmd>+<shift>+t", s.TranslateHotkey)
	require.Equal(t, 16000, s.SampleRate)
}

func TestLoadAPIKeyFallsBackToEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, "sk-from-env", s.OpenAIAPIKey)
}

func TestLoadFileKeyWinsOverEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("openai_api_key: sk-from-file\n"), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sk-from-file", s.OpenAIAPIKey)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hotkey: [unclosed\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s := Default()
	s.Hotkey = "<ctrl>+<alt>+d"
	s.CustomActions = []CustomAction{{ID: "sum", Name: "Summarize", Hotkey: "<cmd>+<shift>+s", Prompt: "Summarize."}}
	require.NoError(t, Save(path, s))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, s.Hotkey, loaded.Hotkey)
	require.Len(t, loaded.CustomActions, 1)
	require.Equal(t, "Summarize", loaded.CustomActions[0].Name)
}

func TestActionsAssemblesConfiguredHotkeys(t *testing.T) {
	s := Default()
	s.FixHotkey = "<cmd>+<shift>+f"
	s.CustomActions = []CustomAction{
		{Name: "Summarize", Hotkey: "<cmd>+<shift>+s", Prompt: "Summarize."},
		{Name: "No hotkey", Prompt: "ignored"},
	}

	actions := s.Actions()
	require.Len(t, actions, 4)

	require.Equal(t, domain.ActionDictate, actions[0].Kind)
	require.Empty(t, actions[0].Prompt)

	require.Equal(t, domain.ActionTranslate, actions[1].Kind)
	require.Equal(t, s.TranslationPrompt, actions[1].Prompt)

	require.Equal(t, domain.ActionFix, actions[2].Kind)
	require.Equal(t, s.FixPrompt, actions[2].Prompt)

	require.Equal(t, domain.ActionCustom, actions[3].Kind)
	require.NotEmpty(t, actions[3].ID)
	require.Equal(t, "Summarize.", actions[3].Prompt)
}

func TestActionsOmitsEmptyHotkeys(t *testing.T) {
	s := Default()
	s.TranslateHotkey = ""

	actions := s.Actions()
	require.Len(t, actions, 1)
	require.Equal(t, domain.ActionDictate, actions[0].Kind)
}

func TestWatcherFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("language: en\n"), 0o600))

	var fired atomic.Int32
	w, err := Watch(path, nil, func() { fired.Add(1) })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("language: ru\n"), 0o600))

	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	var fired atomic.Int32
	w, err := Watch(path, nil, func() { fired.Add(1) })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600))

	time.Sleep(2 * reloadDebounce)
	require.Zero(t, fired.Load())
}
