package hotkey

import (
	"errors"
	"strings"
	"testing"
)

func TestParseSpecRoundTrip(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	spec, err := r.ParseSpec("<cmd>+<shift>+d")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if spec.Key != "d" {
		t.Fatalf("unexpected main key: %q", spec.Key)
	}
	if !spec.Modifiers.Has(ModCmd | ModShift) {
		t.Fatalf("expected cmd+shift, got %b", spec.Modifiers)
	}

	display := spec.DisplayString()
	for _, want := range []string{"⌘", "⇧", "D"} {
		if !strings.Contains(display, want) {
			t.Fatalf("display %q missing %q", display, want)
		}
	}
}

func TestParseSpecSynonyms(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	spec, err := r.ParseSpec("command+option+space")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if spec.Key != "space" {
		t.Fatalf("unexpected main key: %q", spec.Key)
	}
	if !spec.Modifiers.Has(ModCmd|ModAlt) || spec.Modifiers.Has(ModShift) {
		t.Fatalf("unexpected modifiers: %b", spec.Modifiers)
	}
}

func TestParseSpecNoModifiersAllowed(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	spec, err := r.ParseSpec("f5")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if spec.Key != "f5" || spec.Modifiers != 0 {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestParseSpecErrors(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	for _, text := range []string{
		"",
		"<cmd>+<shift>",
		"<cmd>++d",
		"a+b",
		"<cmd>+nosuchkey",
	} {
		if _, err := r.ParseSpec(text); !errors.Is(err, ErrInvalidHotkey) {
			t.Fatalf("ParseSpec(%q) = %v, want ErrInvalidHotkey", text, err)
		}
	}
}
