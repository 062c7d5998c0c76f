package env

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("FARMSTORE_TEST_PORT", " 9090 ")
	if got := Get("FARMSTORE_TEST_PORT", "8080"); got != "9090" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	t.Setenv("FARMSTORE_TEST_PORT", "  ")
	if got := Get("FARMSTORE_TEST_PORT", "8080"); got != "8080" {
		t.Fatalf("expected fallback for blank value, got %q", got)
	}
}

func TestFirst(t *testing.T) {
	t.Setenv("FARMSTORE_TEST_A", "")
	t.Setenv("FARMSTORE_TEST_B", "b")
	if got := First("FARMSTORE_TEST_A", "FARMSTORE_TEST_B"); got != "b" {
		t.Fatalf("expected b, got %q", got)
	}
	if got := First("FARMSTORE_TEST_A"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
