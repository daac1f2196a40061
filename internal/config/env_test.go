package config

import "testing"

func TestParseStringSkipsCommentsAndBlankLines(t *testing.T) {
	env := ParseString("# a comment\n\nKEY=value\n   # indented comment\nOTHER = spaced \n")

	if v, ok := env.Get("KEY"); !ok || v != "value" {
		t.Fatalf("expected KEY=value, got %q (ok=%v)", v, ok)
	}
	if v, ok := env.Get("OTHER"); !ok || v != "spaced" {
		t.Fatalf("expected OTHER to be trimmed to 'spaced', got %q (ok=%v)", v, ok)
	}
	if _, ok := env.Get("a"); ok {
		t.Fatal("comment line should not have produced a key")
	}
}

func TestParseStringLastKeyWins(t *testing.T) {
	env := ParseString("KEY=first\nKEY=second\n")
	if v, _ := env.Get("KEY"); v != "second" {
		t.Fatalf("expected later key to win, got %q", v)
	}
}

func TestParseStringSkipsLinesWithoutEquals(t *testing.T) {
	env := ParseString("not_a_pair\nKEY=value\n")
	if _, ok := env.Get("not_a_pair"); ok {
		t.Fatal("line without '=' should be skipped")
	}
	if v, _ := env.Get("KEY"); v != "value" {
		t.Fatalf("expected KEY=value, got %q", v)
	}
}

func TestGetOrFallback(t *testing.T) {
	env := ParseString("KEY=value\n")
	if v := env.GetOr("KEY", "fallback"); v != "value" {
		t.Fatalf("expected KEY's own value, got %q", v)
	}
	if v := env.GetOr("MISSING", "fallback"); v != "fallback" {
		t.Fatalf("expected fallback for missing key, got %q", v)
	}
}
