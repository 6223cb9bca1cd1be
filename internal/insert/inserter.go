// Package insert types text into the focused application on macOS via
// the clipboard and synthesized keystrokes.
package insert

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Insertion methods.
const (
	MethodClipboard = "clipboard"
	MethodKeystroke = "keystroke"
)

const commandTimeout = 10 * time.Second

// commandRunner abstracts process execution so tests can intercept the
// pbcopy/pbpaste/osascript calls.
type commandRunner interface {
	Run(ctx context.Context, stdin string, name string, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return string(out), nil
}

// Inserter pastes text at the cursor. The clipboard method saves the
// current clipboard, copies the text, sends Cmd-V, then restores what
// was there. The keystroke method types the text directly and is
// slower but leaves the clipboard alone.
type Inserter struct {
	method     string
	run        commandRunner
	log        *slog.Logger
	pasteDelay time.Duration
}

func New(method string, log *slog.Logger) *Inserter {
	if method != MethodKeystroke {
		method = MethodClipboard
	}
	if log == nil {
		log = slog.Default()
	}
	return &Inserter{
		method:     method,
		run:        execRunner{},
		log:        log,
		pasteDelay: 200 * time.Millisecond,
	}
}

func (i *Inserter) Insert(text string) bool {
	if text == "" {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if i.method == MethodKeystroke {
		return i.typeDirect(ctx, text)
	}
	return i.pasteViaClipboard(ctx, text)
}

func (i *Inserter) pasteViaClipboard(ctx context.Context, text string) bool {
	// Best effort; an empty clipboard reads as an error here.
	saved, savedErr := i.run.Run(ctx, "", "/usr/bin/pbpaste")

	if _, err := i.run.Run(ctx, text, "/usr/bin/pbcopy"); err != nil {
		i.log.Warn("pbcopy failed", "error", err)
		return false
	}

	time.Sleep(i.pasteDelay)

	script := `tell application "System Events" to keystroke "v" using command down`
	if _, err := i.run.Run(ctx, "", "/usr/bin/osascript", "-e", script); err != nil {
		i.log.Warn("paste keystroke failed", "error", err)
		return false
	}

	if savedErr == nil {
		time.Sleep(i.pasteDelay)
		if _, err := i.run.Run(ctx, saved, "/usr/bin/pbcopy"); err != nil {
			i.log.Warn("clipboard restore failed", "error", err)
		}
	}
	return true
}

func (i *Inserter) typeDirect(ctx context.Context, text string) bool {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(text)
	script := fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, escaped)
	if _, err := i.run.Run(ctx, "", "/usr/bin/osascript", "-e", script); err != nil {
		i.log.Warn("keystroke insertion failed", "error", err)
		return false
	}
	return true
}

// DeleteBackward presses backspace count times in one osascript call.
func (i *Inserter) DeleteBackward(count int) bool {
	if count <= 0 {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	script := fmt.Sprintf(
		"tell application \"System Events\"\nrepeat %d times\nkey code 51\nend repeat\nend tell",
		count,
	)
	if _, err := i.run.Run(ctx, "", "/usr/bin/osascript", "-e", script); err != nil {
		i.log.Warn("delete backward failed", "count", count, "error", err)
		return false
	}
	return true
}
