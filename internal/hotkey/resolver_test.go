package hotkey

import "testing"

func TestResolvePhysicalCodeWinsOverLayout(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	if got := r.Resolve(PhysicalCode(0x02)); got != "d" {
		t.Fatalf("expected d for keycode 0x02, got %q", got)
	}
	if got := r.Resolve(PhysicalCode(0x31)); got != "space" {
		t.Fatalf("expected space for keycode 0x31, got %q", got)
	}
}

func TestResolveCharacterThroughLayoutTable(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	cases := map[rune]LogicalKey{
		'в': "d", // Russian layout, same position as d
		'В': "d",
		'й': "q",
		'і': "s", // Ukrainian
		'd': "d",
		'D': "d",
		' ': "space",
	}
	for char, want := range cases {
		if got := r.Resolve(Character(char)); got != want {
			t.Fatalf("Resolve(%q) = %q, want %q", char, got, want)
		}
	}
}

func TestResolveNamedModifierVariants(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	for _, name := range []string{"cmd", "cmd_l", "cmd_r", "command"} {
		if got := r.Resolve(NamedKey(name)); got != "cmd" {
			t.Fatalf("Resolve(NamedKey(%q)) = %q, want cmd", name, got)
		}
	}

	mod, ok := r.ModifierOf("cmd")
	if !ok || mod != ModCmd {
		t.Fatalf("expected cmd to be a modifier")
	}
	if _, ok := r.ModifierOf("d"); ok {
		t.Fatalf("d must not be a modifier")
	}
}

func TestResolveMalformedEventsYieldUnknown(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	malformed := []KeyEvent{
		Unresolved(),
		{},
		PhysicalCode(0xFFFF),
		NamedKey(""),
		NamedKey("no_such_key"),
		Character(0),
		Character(''),
		Character('語'),
		{Kind: EventKind(250)},
	}
	for _, ev := range malformed {
		if got := r.Resolve(ev); got != KeyUnknown {
			t.Fatalf("Resolve(%+v) = %q, want unknown", ev, got)
		}
	}
}
