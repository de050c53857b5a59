package catalog

import (
	"errors"
	"testing"

	"github.com/nusantara-hq/gapura/internal/shared"
)

func TestListStableAndNonEmpty(t *testing.T) {
	first := List()
	second := List()
	if len(first) == 0 {
		t.Fatal("catalog is empty")
	}
	if len(first) != len(second) {
		t.Fatalf("list length changed between calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("ordering not stable at index %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
	seen := make(map[string]struct{}, len(first))
	for _, p := range first {
		if _, dup := seen[p.ID]; dup {
			t.Fatalf("duplicate permission id %s", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
}

func TestResolveModule(t *testing.T) {
	if got := ResolveModule("employee"); got != "hrm" {
		t.Fatalf("employee resolved to %q, want hrm", got)
	}
	if got := ResolveModule("invoice"); got != "sales" {
		t.Fatalf("invoice resolved to %q, want sales", got)
	}
	if got := ResolveModule("hologram"); got != ModuleGeneral {
		t.Fatalf("unknown resource resolved to %q, want %q", got, ModuleGeneral)
	}
}

func TestParse(t *testing.T) {
	action, resource, scope, err := Parse("read:employee:own")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if action != "read" || resource != "employee" || scope != "own" {
		t.Fatalf("unexpected parts %q %q %q", action, resource, scope)
	}

	for _, bad := range []string{"", "read", "read:", ":employee", "read:employee:galaxy", "a:b:c:d"} {
		if _, _, _, err := Parse(bad); !errors.Is(err, shared.ErrMalformedPermission) {
			t.Fatalf("expected malformed error for %q, got %v", bad, err)
		}
	}
}

func TestValidate(t *testing.T) {
	for _, ok := range []string{"read:employee", "manage:*", "*:*", "*:invoice", "approve:leave", "admin:system"} {
		if err := Validate(ok); err != nil {
			t.Fatalf("expected %q to validate, got %v", ok, err)
		}
	}
	if err := Validate("teleport:employee"); !errors.Is(err, shared.ErrUnknownPermission) {
		t.Fatalf("expected unknown permission error, got %v", err)
	}
	if err := Validate("read:warpdrive"); !errors.Is(err, shared.ErrUnknownPermission) {
		t.Fatalf("expected unknown permission error, got %v", err)
	}
}
