package instance

import "testing"

func TestGetIDPrefersDyno(t *testing.T) {
	t.Setenv("DYNO", "web.1")
	t.Setenv("FARMSTORE_INSTANCE_ID", "api-7")
	if got := GetID(); got != "web.1" {
		t.Fatalf("expected dyno id, got %q", got)
	}
}

func TestGetIDFallsBackToInstanceEnv(t *testing.T) {
	t.Setenv("DYNO", "")
	t.Setenv("FARMSTORE_INSTANCE_ID", "api-7")
	if got := GetID(); got != "api-7" {
		t.Fatalf("expected instance env, got %q", got)
	}
}

func TestGetIDNeverEmpty(t *testing.T) {
	t.Setenv("DYNO", "")
	t.Setenv("FARMSTORE_INSTANCE_ID", "")
	if GetID() == "" {
		t.Fatal("expected non-empty id")
	}
}
