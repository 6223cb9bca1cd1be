package hotkey

// EventKind tags which representation a raw OS key event exposed.
// Hook adapters classify platform events into this closed set at the
// boundary so the resolver never probes optional attributes.
type EventKind uint8

const (
	EventUnresolved EventKind = iota
	EventPhysicalCode
	EventNamedKey
	EventCharacter
)

// KeyEvent is a layout-ambiguous raw key event. Exactly one of Code,
// Name or Char is meaningful, selected by Kind.
type KeyEvent struct {
	Kind EventKind
	Code uint32
	Name string
	Char rune
}

// PhysicalCode builds an event from a platform virtual-key code.
func PhysicalCode(code uint32) KeyEvent {
	return KeyEvent{Kind: EventPhysicalCode, Code: code}
}

// NamedKey builds an event from a symbolic key name such as "shift_l".
func NamedKey(name string) KeyEvent {
	return KeyEvent{Kind: EventNamedKey, Name: name}
}

// Character builds an event from the character the key produced under
// the active layout.
func Character(char rune) KeyEvent {
	return KeyEvent{Kind: EventCharacter, Char: char}
}

// Unresolved builds an event that matches nothing.
func Unresolved() KeyEvent {
	return KeyEvent{Kind: EventUnresolved}
}

// Modifier is a bitmask of logical modifier keys. Left/right variants
// normalize to the same bit.
type Modifier uint8

const (
	ModCmd Modifier = 1 << iota
	ModShift
	ModCtrl
	ModAlt
)

// Has reports whether every bit of other is set in m.
func (m Modifier) Has(other Modifier) bool {
	return m&other == other
}
