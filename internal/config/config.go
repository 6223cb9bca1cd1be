// Package config loads and persists user settings as YAML, with
// environment variables filling in secrets left out of the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"whisperkey/internal/domain"
)

const (
	defaultHotkey          = "<cmd>+<shift>+d"
	defaultTranslateHotkey = "<cmd>+<shift>+t"

	defaultTranslationPrompt = "Переведи этот текст на английский язык. " +
		"Исправь ошибки и напиши простыми словами. Верни ТОЛЬКО перевод, без пояснений."
	defaultFixPrompt = "Исправь грамматические и орфографические ошибки в этом тексте. " +
		"Сохрани смысл и стиль. Верни ТОЛЬКО исправленный текст, без пояснений."
)

// CustomAction is a user-defined hotkey with its own prompt.
type CustomAction struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Hotkey string `yaml:"hotkey"`
	Prompt string `yaml:"prompt"`
}

// Settings is everything the user can tune.
type Settings struct {
	Hotkey          string `yaml:"hotkey"`
	TranslateHotkey string `yaml:"translate_hotkey"`
	FixHotkey       string `yaml:"fix_hotkey"`

	Microphone string `yaml:"microphone"`
	Language   string `yaml:"language"`
	SampleRate int    `yaml:"sample_rate"`

	FilterFillers   bool   `yaml:"filter_fillers"`
	FillerRulesFile string `yaml:"filler_rules_file"`

	HistorySize      int    `yaml:"history_size"`
	ShowRealtimeText bool   `yaml:"show_realtime_text"`
	InsertionMethod  string `yaml:"insertion_method"`

	OpenAIAPIKey      string `yaml:"openai_api_key"`
	TranslationPrompt string `yaml:"translation_prompt"`
	FixPrompt         string `yaml:"fix_prompt"`

	WhisperdURL string `yaml:"whisperd_url"`

	CustomActions []CustomAction `yaml:"custom_actions"`
}

func Default() Settings {
	return Settings{
		Hotkey:            defaultHotkey,
		TranslateHotkey:   defaultTranslateHotkey,
		Language:          "auto",
		SampleRate:        16000,
		FilterFillers:     true,
		HistorySize:       20,
		InsertionMethod:   "keystroke",
		TranslationPrompt: defaultTranslationPrompt,
		FixPrompt:         defaultFixPrompt,
		WhisperdURL:       "http://127.0.0.1:8765",
	}
}

// DefaultPath is ~/.config/whisperkey/config.yaml (or the platform
// equivalent of the user config dir).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "whisperkey", "config.yaml"), nil
}

// Load reads settings from path, layering the file over defaults. A
// missing file is not an error; defaults are returned. Secrets absent
// from the file fall back to the environment.
func Load(path string) (Settings, error) {
	s := Default()

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return s, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(raw, &s); err != nil {
			return Default(), fmt.Errorf("parse config: %w", err)
		}
	}

	if s.OpenAIAPIKey == "" {
		s.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if url := strings.TrimSpace(os.Getenv("WHISPERD_URL")); url != "" {
		s.WhisperdURL = url
	}

	s.normalize()
	return s, nil
}

// Save writes settings to path, creating parent directories as needed.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	raw, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (s *Settings) normalize() {
	if s.SampleRate <= 0 {
		s.SampleRate = 16000
	}
	if s.HistorySize <= 0 {
		s.HistorySize = 20
	}
	if s.Language == "" {
		s.Language = "auto"
	}
	if s.InsertionMethod != "clipboard" {
		s.InsertionMethod = "keystroke"
	}
	if s.TranslationPrompt == "" {
		s.TranslationPrompt = defaultTranslationPrompt
	}
	if s.FixPrompt == "" {
		s.FixPrompt = defaultFixPrompt
	}
	if s.WhisperdURL == "" {
		s.WhisperdURL = "http://127.0.0.1:8765"
	}
}

// Actions assembles the hotkey action set. Builtin actions with an
// empty hotkey are omitted; custom actions get an id when missing.
func (s Settings) Actions() []domain.ActionConfig {
	var actions []domain.ActionConfig

	if strings.TrimSpace(s.Hotkey) != "" {
		actions = append(actions, domain.ActionConfig{
			ID:     "dictate",
			Kind:   domain.ActionDictate,
			Name:   "Dictate",
			Hotkey: s.Hotkey,
		})
	}
	if strings.TrimSpace(s.TranslateHotkey) != "" {
		actions = append(actions, domain.ActionConfig{
			ID:     "translate",
			Kind:   domain.ActionTranslate,
			Name:   "Translate",
			Hotkey: s.TranslateHotkey,
			Prompt: s.TranslationPrompt,
		})
	}
	if strings.TrimSpace(s.FixHotkey) != "" {
		actions = append(actions, domain.ActionConfig{
			ID:     "fix",
			Kind:   domain.ActionFix,
			Name:   "Fix",
			Hotkey: s.FixHotkey,
			Prompt: s.FixPrompt,
		})
	}

	for _, custom := range s.CustomActions {
		if strings.TrimSpace(custom.Hotkey) == "" {
			continue
		}
		id := custom.ID
		if id == "" {
			id = uuid.NewString()
		}
		actions = append(actions, domain.ActionConfig{
			ID:     id,
			Kind:   domain.ActionCustom,
			Name:   custom.Name,
			Hotkey: custom.Hotkey,
			Prompt: custom.Prompt,
		})
	}

	return actions
}
