package security_test

import (
	"strings"
	"testing"

	"github.com/Rrens/clinic-assistant/internal/security"
)

func TestIPAnonymizer_Disabled(t *testing.T) {
	a, err := security.NewIPAnonymizer(false, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := a.Anonymize("203.0.113.7"); got != "203.0.113.7" {
		t.Errorf("expected address unchanged, got %q", got)
	}
}

func TestIPAnonymizer_Enabled(t *testing.T) {
	a, err := security.NewIPAnonymizer(true, "pepper")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := a.Anonymize("203.0.113.7")
	second := a.Anonymize("203.0.113.7")
	other := a.Anonymize("203.0.113.8")

	if first == "203.0.113.7" || strings.Contains(first, "203") {
		t.Errorf("address leaked into digest: %q", first)
	}
	if len(first) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(first))
	}
	if first != second {
		t.Error("expected stable digest for the same address")
	}
	if first == other {
		t.Error("expected different digests for different addresses")
	}
}

func TestIPAnonymizer_KeyChangesDigest(t *testing.T) {
	a, _ := security.NewIPAnonymizer(true, "key-a")
	b, _ := security.NewIPAnonymizer(true, "key-b")

	if a.Anonymize("198.51.100.1") == b.Anonymize("198.51.100.1") {
		t.Error("expected keyed digests to differ")
	}
}

func TestIPAnonymizer_RejectsLongKey(t *testing.T) {
	if _, err := security.NewIPAnonymizer(true, strings.Repeat("k", 65)); err == nil {
		t.Error("expected error for key longer than 64 bytes")
	}
}

func TestIPAnonymizer_NilIsPassThrough(t *testing.T) {
	var a *security.IPAnonymizer
	if got := a.Anonymize("192.0.2.1"); got != "192.0.2.1" {
		t.Errorf("expected pass-through, got %q", got)
	}
}
