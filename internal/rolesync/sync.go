package rolesync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/nusantara-hq/gapura/internal/roles"
)

// RoleStore is the slice of the role repository the syncer needs.
type RoleStore interface {
	List(ctx context.Context) ([]roles.Role, error)
	Create(ctx context.Context, role roles.Role) (*roles.Role, error)
	Update(ctx context.Context, role roles.Role) (*roles.Role, error)
}

// Drift names a role whose persisted state diverges from the catalog.
type Drift struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// Report is the outcome of a diff or sync pass. Extra lists persisted
// system-flagged roles absent from the catalog; a renamed system role shows
// up as one Extra plus one Missing entry, never as a silent merge.
type Report struct {
	Missing   []string `json:"missing"`
	Extra     []string `json:"extra"`
	OutOfSync []Drift  `json:"out_of_sync"`
	Created   []string `json:"created,omitempty"`
	Repaired  []string `json:"repaired,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// Clean reports whether no drift was found and nothing failed.
func (r Report) Clean() bool {
	return len(r.Missing) == 0 && len(r.Extra) == 0 && len(r.OutOfSync) == 0 && len(r.Errors) == 0
}

// Syncer compares and repairs system roles.
type Syncer struct {
	store  RoleStore
	logger *slog.Logger
}

// NewSyncer constructs a Syncer.
func NewSyncer(store RoleStore, logger *slog.Logger) *Syncer {
	return &Syncer{store: store, logger: logger}
}

// Diff compares the expected catalog against persisted roles without
// mutating anything.
func (s *Syncer) Diff(ctx context.Context) (Report, error) {
	persisted, err := s.store.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("rolesync: list roles: %w", err)
	}
	byName := make(map[string]roles.Role, len(persisted))
	for _, role := range persisted {
		byName[role.Name] = role
	}

	var report Report
	expectedNames := make(map[string]struct{})
	for _, want := range Expected() {
		expectedNames[want.Name] = struct{}{}
		have, ok := byName[want.Name]
		if !ok {
			report.Missing = append(report.Missing, want.Name)
			continue
		}
		if fields := driftFields(want, have); len(fields) > 0 {
			report.OutOfSync = append(report.OutOfSync, Drift{Name: want.Name, Fields: fields})
		}
	}
	for _, role := range persisted {
		if !role.IsSystem {
			continue
		}
		if _, ok := expectedNames[role.Name]; !ok {
			report.Extra = append(report.Extra, role.Name)
		}
	}
	sort.Strings(report.Extra)
	return report, nil
}

// AutoSync creates missing system roles and repairs drifted ones, one role
// at a time so a failure partway leaves earlier repairs intact. Extra roles
// are reported, never deleted. Running it twice in a row yields a clean
// second report.
func (s *Syncer) AutoSync(ctx context.Context) (Report, error) {
	report, err := s.Diff(ctx)
	if err != nil {
		return Report{}, err
	}

	expected := make(map[string]SystemRole)
	for _, want := range Expected() {
		expected[want.Name] = want
	}

	for _, name := range report.Missing {
		want := expected[name]
		if _, err := s.store.Create(ctx, materialize(want)); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("create %s: %v", name, err))
			s.warn("create system role", name, err)
			continue
		}
		report.Created = append(report.Created, name)
	}

	if len(report.OutOfSync) > 0 {
		persisted, err := s.store.List(ctx)
		if err != nil {
			return report, fmt.Errorf("rolesync: list roles: %w", err)
		}
		byName := make(map[string]roles.Role, len(persisted))
		for _, role := range persisted {
			byName[role.Name] = role
		}
		for _, drift := range report.OutOfSync {
			want := expected[drift.Name]
			have, ok := byName[drift.Name]
			if !ok {
				continue
			}
			repaired := materialize(want)
			repaired.ID = have.ID
			if _, err := s.store.Update(ctx, repaired); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("repair %s: %v", drift.Name, err))
				s.warn("repair system role", drift.Name, err)
				continue
			}
			report.Repaired = append(report.Repaired, drift.Name)
		}
	}
	return report, nil
}

func (s *Syncer) warn(msg, role string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, slog.String("role", role), slog.Any("error", err))
	}
}

func materialize(want SystemRole) roles.Role {
	return roles.Role{
		Name:            want.Name,
		Description:     want.Description,
		Permissions:     append([]string(nil), want.Permissions...),
		Modules:         append([]string(nil), want.Modules...),
		Level:           want.Level,
		IsSystem:        true,
		BypassAllChecks: want.BypassAllChecks,
		Scope:           want.Scope,
	}
}

func driftFields(want SystemRole, have roles.Role) []string {
	var fields []string
	if !sameSet(want.Permissions, have.Permissions) {
		fields = append(fields, "permissions")
	}
	if !sameSet(want.Modules, have.Modules) {
		fields = append(fields, "modules")
	}
	if want.Level != have.Level {
		fields = append(fields, "level")
	}
	if want.BypassAllChecks != have.BypassAllChecks {
		fields = append(fields, "bypass_all_checks")
	}
	if want.Scope != have.Scope {
		fields = append(fields, "scope")
	}
	if !have.IsSystem {
		fields = append(fields, "is_system")
	}
	return fields
}

// sameSet compares ignoring order and duplicates; duplicates in a stored
// permission set are meaningless.
func sameSet(a, b []string) bool {
	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}
	if len(setA) != len(setB) {
		return false
	}
	for v := range setA {
		if _, ok := setB[v]; !ok {
			return false
		}
	}
	return true
}
