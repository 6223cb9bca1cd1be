package usecase

import "testing"

func TestReconcilerFirstHypothesisInsertsEverything(t *testing.T) {
	t.Parallel()

	r := newStreamReconciler()
	edit := r.Reconcile("hello")
	if edit.DeleteCount != 0 {
		t.Fatalf("DeleteCount = %d, want 0", edit.DeleteCount)
	}
	if edit.Insert != "hello " {
		t.Fatalf("Insert = %q, want %q", edit.Insert, "hello ")
	}
}

func TestReconcilerExtendsPrefix(t *testing.T) {
	t.Parallel()

	r := newStreamReconciler()
	r.Reconcile("hello")

	edit := r.Reconcile("hello world")
	if edit.DeleteCount != 0 {
		t.Fatalf("DeleteCount = %d, want 0", edit.DeleteCount)
	}
	if edit.Insert != "world " {
		t.Fatalf("Insert = %q, want %q", edit.Insert, "world ")
	}
	if got := r.Committed(); got != "hello world" {
		t.Fatalf("Committed() = %q, want %q", got, "hello world")
	}
}

func TestReconcilerRewritesOnRevision(t *testing.T) {
	t.Parallel()

	r := newStreamReconciler()
	r.Reconcile("hello")

	edit := r.Reconcile("hi there")
	// "hello" is 5 runes plus the trailing space already typed.
	if edit.DeleteCount != 6 {
		t.Fatalf("DeleteCount = %d, want 6", edit.DeleteCount)
	}
	if edit.Insert != "hi there " {
		t.Fatalf("Insert = %q, want %q", edit.Insert, "hi there ")
	}
}

func TestReconcilerIdenticalHypothesisIsNoop(t *testing.T) {
	t.Parallel()

	r := newStreamReconciler()
	r.Reconcile("same text")

	edit := r.Reconcile("same text")
	if edit.DeleteCount != 0 || edit.Insert != "" {
		t.Fatalf("edit = %+v, want zero edit", edit)
	}
}

func TestReconcilerCountsRunesNotBytes(t *testing.T) {
	t.Parallel()

	r := newStreamReconciler()
	r.Reconcile("привет")

	edit := r.Reconcile("пока")
	// Six Cyrillic runes plus one space, despite twelve UTF-8 bytes.
	if edit.DeleteCount != 7 {
		t.Fatalf("DeleteCount = %d, want 7", edit.DeleteCount)
	}
	if edit.Insert != "пока " {
		t.Fatalf("Insert = %q, want %q", edit.Insert, "пока ")
	}
}
