// Package fillers removes hesitation words ("uh", "um", "эээ") from
// transcribed text and tidies up the punctuation left behind.
package fillers

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// word builds a pattern matching a standalone word. RE2 has no \b for
// non-ASCII letters, so boundaries are spelled out as non-letter
// context captured and kept by the replacement.
func word(w string) string {
	return `(?i)(^|[^\p{L}])(?:` + w + `)($|[^\p{L}])`
}

// beforeComma matches a word only when a comma follows, the usual
// filler position ("so,", "like,").
func beforeComma(w string) string {
	return `(?i)(^|[^\p{L}])(?:` + w + `)(\s*,)`
}

var builtinRules = []rule{
	// Russian
	{regexp.MustCompile(word(`[эе]+`)), "$1$2"},
	{regexp.MustCompile(word(`[аa]+`)), "$1$2"},
	{regexp.MustCompile(word(`хм+`)), "$1$2"},
	{regexp.MustCompile(word(`мм+`)), "$1$2"},
	{regexp.MustCompile(word(`ну+`)), "$1$2"},
	{regexp.MustCompile(word(`вот`)), "$1$2"},
	{regexp.MustCompile(word(`типа`)), "$1$2"},
	{regexp.MustCompile(word(`как бы`)), "$1$2"},
	{regexp.MustCompile(word(`короче`)), "$1$2"},

	// English
	{regexp.MustCompile(word(`uh+`)), "$1$2"},
	{regexp.MustCompile(word(`um+`)), "$1$2"},
	{regexp.MustCompile(word(`uhm+`)), "$1$2"},
	{regexp.MustCompile(word(`ah+`)), "$1$2"},
	{regexp.MustCompile(word(`er+`)), "$1$2"},
	{regexp.MustCompile(beforeComma(`like`)), "$1$2"},
	{regexp.MustCompile(word(`you know`)), "$1$2"},
	{regexp.MustCompile(word(`i mean`)), "$1$2"},
	{regexp.MustCompile(beforeComma(`so+`)), "$1$2"},

	// German
	{regexp.MustCompile(word(`ähm?`)), "$1$2"},
	{regexp.MustCompile(word(`öhm?`)), "$1$2"},
	{regexp.MustCompile(word(`hm+`)), "$1$2"},

	// Spanish
	{regexp.MustCompile(word(`eh+`)), "$1$2"},
	{regexp.MustCompile(word(`este+`)), "$1$2"},
	{regexp.MustCompile(beforeComma(`bueno`)), "$1$2"},

	// French
	{regexp.MustCompile(word(`euh+`)), "$1$2"},
	{regexp.MustCompile(word(`ben`)), "$1$2"},
	{regexp.MustCompile(word(`genre`)), "$1$2"},
}

var (
	spaceRuns        = regexp.MustCompile(`\s+`)
	spaceBeforePunct = regexp.MustCompile(`\s+([,.!?])`)
	doublePunct      = regexp.MustCompile(`([,.!?])\s*[,.!?]`)
	leadingPunct     = regexp.MustCompile(`^\s*[,.]+\s*`)
)

// Engine applies the builtin filler rules plus any user-supplied ones.
type Engine struct {
	rules []rule
}

func NewEngine() *Engine {
	return &Engine{rules: builtinRules}
}

// LoadUserRules appends rules from a text file, one per line in the
// form "pattern => replacement" (replacement may be empty). Lines
// starting with # are comments.
func (e *Engine) LoadUserRules(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open filler rules: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		pattern, repl, _ := strings.Cut(text, "=>")
		re, err := regexp.Compile(strings.TrimSpace(pattern))
		if err != nil {
			return fmt.Errorf("filler rule at line %d: %w", line, err)
		}
		e.rules = append(e.rules, rule{re: re, repl: strings.TrimSpace(repl)})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read filler rules: %w", err)
	}
	return nil
}

// Apply strips fillers and normalizes whitespace and punctuation. The
// first letter is re-capitalized when stripping left the text starting
// lowercase.
func (e *Engine) Apply(text string) (string, error) {
	if text == "" {
		return "", nil
	}

	result := text
	for _, r := range e.rules {
		// Adjacent fillers share boundary characters, so one pass can
		// leave a straggler behind. Iterate to a fixpoint.
		for {
			next := r.re.ReplaceAllString(result, r.repl)
			if next == result {
				break
			}
			result = next
		}
	}

	result = spaceRuns.ReplaceAllString(result, " ")
	result = spaceBeforePunct.ReplaceAllString(result, "$1")
	result = doublePunct.ReplaceAllString(result, "$1")
	result = leadingPunct.ReplaceAllString(result, "")
	result = strings.TrimSpace(result)

	runes := []rune(result)
	if len(runes) > 0 && unicode.IsLower(runes[0]) {
		runes[0] = unicode.ToUpper(runes[0])
		result = string(runes)
	}
	return result, nil
}
