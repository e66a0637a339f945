package utils

import "testing"

func TestClosestMatch(t *testing.T) {
	names := []string{"Westworld", "West Side Story", "The Wire"}

	match, ok := ClosestMatch("westwrld", names)
	if !ok {
		t.Fatal("expected a suggestion for a near miss")
	}
	if match != "Westworld" {
		t.Errorf("expected Westworld, got %q", match)
	}

	// Case differences should not count against the distance
	match, ok = ClosestMatch("the wire", names)
	if !ok || match != "The Wire" {
		t.Errorf("expected The Wire, got %q (ok=%v)", match, ok)
	}

	if _, ok := ClosestMatch("completely unrelated", names); ok {
		t.Error("expected no suggestion for a distant query")
	}

	if _, ok := ClosestMatch("anything", nil); ok {
		t.Error("expected no suggestion with no candidates")
	}
}
