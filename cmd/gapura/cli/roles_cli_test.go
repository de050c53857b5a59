package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nusantara-hq/gapura/internal/roles"
	"github.com/nusantara-hq/gapura/internal/rolesync"
	"github.com/nusantara-hq/gapura/internal/shared"
)

type stubRoleStore struct {
	byID   map[int64]roles.Role
	nextID int64
}

func newStubRoleStore() *stubRoleStore {
	return &stubRoleStore{byID: make(map[int64]roles.Role), nextID: 1}
}

func (s *stubRoleStore) List(ctx context.Context) ([]roles.Role, error) {
	out := make([]roles.Role, 0, len(s.byID))
	for _, role := range s.byID {
		out = append(out, role)
	}
	return out, nil
}

func (s *stubRoleStore) Create(ctx context.Context, role roles.Role) (*roles.Role, error) {
	role.ID = s.nextID
	s.nextID++
	s.byID[role.ID] = role
	return &role, nil
}

func (s *stubRoleStore) Update(ctx context.Context, role roles.Role) (*roles.Role, error) {
	if _, ok := s.byID[role.ID]; !ok {
		return nil, shared.ErrNotFound
	}
	s.byID[role.ID] = role
	return &role, nil
}

func TestDiffCommandReportsDriftExitCode(t *testing.T) {
	rolesCLI := NewRolesCLI(rolesync.NewSyncer(newStubRoleStore(), nil))

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	exitCode := rolesCLI.DiffCommand(context.Background(), RolesOptions{
		JSONOutput: true,
		Stdout:     stdout,
		Stderr:     stderr,
	})
	require.Equal(t, 10, exitCode)
	require.Empty(t, stderr.String())

	var report rolesync.Report
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	require.Len(t, report.Missing, len(rolesync.Expected()))
}

func TestSyncCommandThenDiffIsClean(t *testing.T) {
	store := newStubRoleStore()
	rolesCLI := NewRolesCLI(rolesync.NewSyncer(store, nil))

	stdout := new(bytes.Buffer)
	exitCode := rolesCLI.SyncCommand(context.Background(), RolesOptions{Stdout: stdout, Stderr: new(bytes.Buffer)})
	require.Zero(t, exitCode)
	require.Contains(t, stdout.String(), "created")

	stdout.Reset()
	exitCode = rolesCLI.DiffCommand(context.Background(), RolesOptions{Stdout: stdout, Stderr: new(bytes.Buffer)})
	require.Zero(t, exitCode)
	require.Contains(t, stdout.String(), "system roles in sync")
}
