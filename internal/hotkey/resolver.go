package hotkey

import "unicode"

// LogicalKey is a layout-independent identity for a keyboard key. The
// zero value KeyUnknown matches nothing.
type LogicalKey string

const KeyUnknown LogicalKey = ""

// Resolver maps raw key events to logical keys. Resolution never
// panics; events it cannot classify yield KeyUnknown.
//
// Priority is strict: a physical-code table hit always wins over a
// character-based guess, because physical position is layout-invariant
// and the produced character is not.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve maps a raw event to its logical key.
func (r *Resolver) Resolve(ev KeyEvent) LogicalKey {
	switch ev.Kind {
	case EventPhysicalCode:
		if key, ok := physicalKeys[ev.Code]; ok {
			return key
		}
		return KeyUnknown
	case EventNamedKey:
		return r.resolveName(ev.Name)
	case EventCharacter:
		return r.resolveChar(ev.Char)
	default:
		return KeyUnknown
	}
}

// ModifierOf reports whether key is a logical modifier.
func (r *Resolver) ModifierOf(key LogicalKey) (Modifier, bool) {
	mod, ok := modifierKeys[key]
	return mod, ok
}

func (r *Resolver) resolveName(name string) LogicalKey {
	lowered := lowerASCII(name)
	if canonical, ok := namedKeys[lowered]; ok {
		return canonical
	}
	if len(lowered) == 1 {
		return r.resolveChar(rune(lowered[0]))
	}
	return KeyUnknown
}

func (r *Resolver) resolveChar(char rune) LogicalKey {
	if char == 0 {
		return KeyUnknown
	}
	char = unicode.ToLower(char)
	if corrected, ok := layoutCorrections[char]; ok {
		char = corrected
	}
	if char == ' ' {
		return "space"
	}
	if char > unicode.MaxASCII || !unicode.IsPrint(char) {
		return KeyUnknown
	}
	return LogicalKey(string(char))
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

var modifierKeys = map[LogicalKey]Modifier{
	"cmd":   ModCmd,
	"shift": ModShift,
	"ctrl":  ModCtrl,
	"alt":   ModAlt,
}

// macOS virtual-key codes (ANSI layout positions).
var physicalKeys = map[uint32]LogicalKey{
	0x00: "a", 0x01: "s", 0x02: "d", 0x03: "f", 0x04: "h", 0x05: "g",
	0x06: "z", 0x07: "x", 0x08: "c", 0x09: "v", 0x0B: "b", 0x0C: "q",
	0x0D: "w", 0x0E: "e", 0x0F: "r", 0x10: "y", 0x11: "t",
	0x12: "1", 0x13: "2", 0x14: "3", 0x15: "4", 0x16: "6", 0x17: "5",
	0x18: "=", 0x19: "9", 0x1A: "7", 0x1B: "-", 0x1C: "8", 0x1D: "0",
	0x1E: "]", 0x1F: "o", 0x20: "u", 0x21: "[", 0x22: "i", 0x23: "p",
	0x25: "l", 0x26: "j", 0x27: "'", 0x28: "k", 0x29: ";", 0x2A: "\\",
	0x2B: ",", 0x2C: "/", 0x2D: "n", 0x2E: "m", 0x2F: ".", 0x32: "`",

	0x24: "enter", 0x30: "tab", 0x31: "space", 0x33: "backspace",
	0x35: "esc", 0x75: "delete",
	0x7B: "left", 0x7C: "right", 0x7D: "down", 0x7E: "up",

	0x7A: "f1", 0x78: "f2", 0x63: "f3", 0x76: "f4", 0x60: "f5",
	0x61: "f6", 0x62: "f7", 0x64: "f8", 0x65: "f9", 0x6D: "f10",
	0x67: "f11", 0x6F: "f12",

	0x37: "cmd", 0x36: "cmd",
	0x38: "shift", 0x3C: "shift",
	0x3A: "alt", 0x3D: "alt",
	0x3B: "ctrl", 0x3E: "ctrl",
}

// Symbolic names delivered by hook layers, including left/right
// modifier variants and common synonyms.
var namedKeys = map[string]LogicalKey{
	"cmd": "cmd", "cmd_l": "cmd", "cmd_r": "cmd", "command": "cmd",
	"ctrl": "ctrl", "ctrl_l": "ctrl", "ctrl_r": "ctrl", "control": "ctrl",
	"alt": "alt", "alt_l": "alt", "alt_r": "alt", "alt_gr": "alt", "option": "alt",
	"shift": "shift", "shift_l": "shift", "shift_r": "shift",

	"space": "space", "enter": "enter", "return": "enter", "tab": "tab",
	"esc": "esc", "escape": "esc", "backspace": "backspace", "delete": "delete",
	"up": "up", "down": "down", "left": "left", "right": "right",

	"f1": "f1", "f2": "f2", "f3": "f3", "f4": "f4", "f5": "f5", "f6": "f6",
	"f7": "f7", "f8": "f8", "f9": "f9", "f10": "f10", "f11": "f11", "f12": "f12",
}

// layoutCorrections maps characters produced under non-Latin layouts
// back to the Latin character at the same physical position, so a
// hotkey configured as <cmd>+d still fires while a Cyrillic layout is
// active. Covers Russian and Ukrainian ЙЦУКЕН.
var layoutCorrections = map[rune]rune{
	'й': 'q', 'ц': 'w', 'у': 'e', 'к': 'r', 'е': 't', 'н': 'y',
	'г': 'u', 'ш': 'i', 'щ': 'o', 'з': 'p', 'х': '[', 'ъ': ']',
	'ф': 'a', 'ы': 's', 'в': 'd', 'а': 'f', 'п': 'g', 'р': 'h',
	'о': 'j', 'л': 'k', 'д': 'l', 'ж': ';', 'э': '\'',
	'я': 'z', 'ч': 'x', 'с': 'c', 'м': 'v', 'и': 'b', 'т': 'n',
	'ь': 'm', 'б': ',', 'ю': '.', 'ё': '`',

	// Ukrainian-specific positions.
	'і': 's', 'ї': ']', 'є': '\'', 'ґ': '\\',
}
