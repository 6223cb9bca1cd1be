package usecase

import (
	"strings"
	"unicode/utf8"

	"whisperkey/internal/domain"
)

// streamReconciler keeps the on-screen text consistent with a sequence
// of evolving partial hypotheses for the same utterance. Each inserted
// fragment gets one trailing space so later fragments never glue to it.
//
// A hypothesis that revises earlier words triggers a full rewrite of
// the committed text rather than a minimal diff. Revisions are rare
// next to pure extensions, and backspacing a whole utterance is
// visually acceptable at dictation speed.
type streamReconciler struct {
	committed string
}

func newStreamReconciler() *streamReconciler {
	return &streamReconciler{}
}

// Reconcile returns the edit that moves the screen text from the last
// committed hypothesis to text. Delete counts are in runes, matching
// one backspace per character regardless of encoding.
func (r *streamReconciler) Reconcile(text string) domain.TextEdit {
	if text == r.committed {
		return domain.TextEdit{}
	}

	var edit domain.TextEdit
	if strings.HasPrefix(text, r.committed) {
		suffix := strings.TrimLeft(text[len(r.committed):], " \t")
		if suffix == "" {
			return domain.TextEdit{}
		}
		edit = domain.TextEdit{Insert: suffix + " "}
	} else {
		// +1 removes the trailing space appended with the previous commit.
		edit = domain.TextEdit{
			DeleteCount: utf8.RuneCountInString(r.committed) + 1,
			Insert:      text + " ",
		}
	}

	r.committed = text
	return edit
}

// Committed returns the latest reconciled hypothesis; at session end
// this is the canonical transcript.
func (r *streamReconciler) Committed() string {
	return r.committed
}
