package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidHotkey reports a hotkey description that does not contain
// exactly one main key.
var ErrInvalidHotkey = errors.New("invalid hotkey syntax")

// Spec is a parsed hotkey: a required modifier set plus one main key.
type Spec struct {
	Modifiers Modifier
	Key       LogicalKey
}

var specSynonyms = strings.NewReplacer(
	"command", "cmd",
	"control", "ctrl",
	"option", "alt",
)

// ParseSpec parses descriptions like "<cmd>+<shift>+d". Angle brackets
// are optional; modifier synonyms (command, control, option) are
// normalized first. An empty modifier set is allowed but not useful.
func (r *Resolver) ParseSpec(text string) (Spec, error) {
	normalized := specSynonyms.Replace(strings.ToLower(strings.TrimSpace(text)))
	normalized = strings.NewReplacer("<", "", ">", "").Replace(normalized)
	if normalized == "" {
		return Spec{}, fmt.Errorf("%w: empty description", ErrInvalidHotkey)
	}

	var spec Spec
	for _, token := range strings.Split(normalized, "+") {
		token = strings.TrimSpace(token)
		if token == "" {
			return Spec{}, fmt.Errorf("%w: empty token in %q", ErrInvalidHotkey, text)
		}

		if mod, ok := modifierKeys[LogicalKey(token)]; ok {
			spec.Modifiers |= mod
			continue
		}

		key := r.resolveName(token)
		if key == KeyUnknown {
			return Spec{}, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidHotkey, token, text)
		}
		if spec.Key != KeyUnknown {
			return Spec{}, fmt.Errorf("%w: more than one main key in %q", ErrInvalidHotkey, text)
		}
		spec.Key = key
	}

	if spec.Key == KeyUnknown {
		return Spec{}, fmt.Errorf("%w: no main key in %q", ErrInvalidHotkey, text)
	}
	return spec, nil
}

var displayGlyphs = []struct {
	mod   Modifier
	glyph string
}{
	{ModCmd, "⌘"},
	{ModShift, "⇧"},
	{ModCtrl, "⌃"},
	{ModAlt, "⌥"},
}

var displayNames = map[LogicalKey]string{
	"space":     "Space",
	"enter":     "Enter",
	"tab":       "Tab",
	"esc":       "Esc",
	"backspace": "Backspace",
	"delete":    "Delete",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
}

// DisplayString renders the hotkey for UI feedback, e.g. "⌘⇧D".
func (s Spec) DisplayString() string {
	var b strings.Builder
	for _, entry := range displayGlyphs {
		if s.Modifiers.Has(entry.mod) {
			b.WriteString(entry.glyph)
		}
	}
	if name, ok := displayNames[s.Key]; ok {
		b.WriteString(name)
	} else {
		b.WriteString(strings.ToUpper(string(s.Key)))
	}
	return b.String()
}
