package postproc

import "testing"

func TestCleanReplacesMarkerWithSpace(t *testing.T) {
	if got := Clean("Hello<n>world"); got != "Hello world" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}

func TestCleanReplacesEveryMarker(t *testing.T) {
	if got := Clean("a<n>b<n>c"); got != "a b c" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}

func TestCleanLeavesPlainTextUntouched(t *testing.T) {
	const text = "A plain sentence with <not-a-marker> inside."
	if got := Clean(text); got != text {
		t.Fatalf("expected text to pass through unchanged, got %q", got)
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	samples := []string{
		"",
		"Hello<n>world",
		"<n><n><n>",
		"no markers here",
		"trailing<n>",
		"<n>leading",
		"nested <<n>n> stays partial",
	}

	for _, sample := range samples {
		once := Clean(sample)
		twice := Clean(once)
		if once != twice {
			t.Fatalf("Clean is not idempotent for %q: %q vs %q", sample, once, twice)
		}
	}
}
