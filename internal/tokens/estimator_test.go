package tokens

import (
	"strings"
	"testing"
)

// Tests use the fallback estimator (chars/4) so they are deterministic and
// never depend on tiktoken's encoding data being fetchable.

func TestCountFallback(t *testing.T) {
	e := &Estimator{}
	if got := e.Count("12345678"); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}
	if got := e.Count(""); got != 0 {
		t.Errorf("Count(empty) = %d, want 0", got)
	}
}

func TestTruncateFitsUnchanged(t *testing.T) {
	e := &Estimator{}
	text := "short"
	if got := e.Truncate(text, 100); got != text {
		t.Errorf("Truncate changed text that fits: %q", got)
	}
	if got := e.Truncate(text, 0); got != text {
		t.Errorf("zero budget must be a no-op: %q", got)
	}
}

func TestTruncateCutsAtLineBoundary(t *testing.T) {
	e := &Estimator{}
	lines := []string{
		strings.Repeat("a", 40), // ~10 tokens
		strings.Repeat("b", 40),
		strings.Repeat("c", 40),
	}
	text := strings.Join(lines, "\n")

	got := e.Truncate(text, 25)
	if got != lines[0]+"\n"+lines[1] {
		t.Errorf("expected first two lines kept, got %q", got)
	}
}

func TestTruncateSingleOversizedLine(t *testing.T) {
	e := &Estimator{}
	text := strings.Repeat("x", 400) // ~100 tokens

	got := e.Truncate(text, 10)
	if len(got) != 40 {
		t.Errorf("expected character cut to 40, got %d chars", len(got))
	}
}

func TestGetSingleton(t *testing.T) {
	if Get() != Get() {
		t.Error("Get must return the same estimator")
	}
	if Estimate("12345678") < 0 {
		t.Error("Estimate must be non-negative")
	}
}
