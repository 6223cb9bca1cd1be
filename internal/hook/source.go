package hook

import (
	gohook "github.com/robotn/gohook"

	"whisperkey/internal/hotkey"
)

// Source adapts the gohook global keyboard hook to hotkey.Source.
// The underlying hook is started at most once per process and is never
// stopped; tearing it down and reinstalling it is not reliable on
// macOS, so Run blocks until the event channel closes at process exit.
type Source struct{}

func NewSource() *Source {
	return &Source{}
}

func (s *Source) Run(emit func(ev hotkey.KeyEvent, pressed bool)) error {
	events := gohook.Start()
	for ev := range events {
		switch ev.Kind {
		case gohook.KeyDown, gohook.KeyHold:
			emit(classify(ev), true)
		case gohook.KeyUp:
			emit(classify(ev), false)
		}
	}
	return nil
}

// classify picks the most reliable representation the event exposes.
// Some layouts deliver events whose character field is garbage or
// absent entirely; anything unusable collapses to Unresolved, which
// matches nothing downstream.
func classify(ev gohook.Event) hotkey.KeyEvent {
	if ev.Rawcode != 0 {
		return hotkey.PhysicalCode(uint32(ev.Rawcode))
	}
	if ev.Keychar != 0 && ev.Keychar != gohook.CharUndefined {
		return hotkey.Character(ev.Keychar)
	}
	return hotkey.Unresolved()
}
