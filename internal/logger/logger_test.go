package logger

import "testing"

func TestSanitizeKVs_RedactsSecrets(t *testing.T) {
	in := []interface{}{"player_id", "p1", "token", "abc.def.ghi", "Authorization", "Bearer x"}
	out := sanitizeKVs(in)

	if out[1] != "p1" {
		t.Errorf("expected player_id untouched, got %v", out[1])
	}
	if out[3] != "[REDACTED]" {
		t.Errorf("expected token redacted, got %v", out[3])
	}
	if out[5] != "[REDACTED]" {
		t.Errorf("expected authorization redacted, got %v", out[5])
	}
}

func TestSanitizeKVs_OddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output %v", out)
	}
}

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"development", "production"} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		l.With("component", "test").Debug("hello")
	}
}
