package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nusantara-hq/gapura/internal/shared"
)

type mockRepo struct {
	byID   map[int64]Role
	nextID int64
	users  map[int64]int64
	audits []shared.AuditLog
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: make(map[int64]Role), nextID: 1, users: make(map[int64]int64)}
}

func (m *mockRepo) List(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(m.byID))
	for _, role := range m.byID {
		out = append(out, role)
	}
	return out, nil
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*Role, error) {
	role, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &role, nil
}

func (m *mockRepo) GetByName(ctx context.Context, name string) (*Role, error) {
	for _, role := range m.byID {
		if role.Name == name {
			return &role, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepo) Create(ctx context.Context, role Role) (*Role, error) {
	for _, existing := range m.byID {
		if existing.Name == role.Name {
			return nil, shared.ErrDuplicateName
		}
	}
	role.ID = m.nextID
	m.nextID++
	m.byID[role.ID] = role
	return &role, nil
}

func (m *mockRepo) Update(ctx context.Context, role Role) (*Role, error) {
	if _, ok := m.byID[role.ID]; !ok {
		return nil, shared.ErrNotFound
	}
	m.byID[role.ID] = role
	return &role, nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *mockRepo) CountUsers(ctx context.Context, id int64) (int64, error) {
	return m.users[id], nil
}

func (m *mockRepo) DeleteIfUnused(ctx context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return shared.ErrNotFound
	}
	if m.users[id] > 0 {
		return shared.ErrRoleInUse
	}
	delete(m.byID, id)
	return nil
}

func (m *mockRepo) Record(ctx context.Context, log shared.AuditLog) error {
	m.audits = append(m.audits, log)
	return nil
}

func seedSystemRole(repo *mockRepo) *Role {
	created, _ := repo.Create(context.Background(), Role{
		Name:        "Administrator",
		Permissions: []string{"manage:*"},
		Level:       9,
		IsSystem:    true,
		Scope:       ScopeAll,
	})
	return created
}

func TestCreateNormalizesAndAudits(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, repo)

	created, err := svc.Create(context.Background(), 7, CreateParams{
		Name:        "  Support Lead ",
		Permissions: []string{"Read:Ticket", "read:ticket", " update:ticket "},
		Modules:     []string{"support"},
		Level:       3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Support Lead", created.Name)
	assert.Equal(t, []string{"read:ticket", "update:ticket"}, created.Permissions)
	assert.Equal(t, ScopeAll, created.Scope)
	require.Len(t, repo.audits, 1)
	assert.Equal(t, "role.create", repo.audits[0].Action)
	assert.Equal(t, int64(7), repo.audits[0].ActorID)
}

func TestCreateRejectsUnknownPermission(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.Create(context.Background(), 1, CreateParams{
		Name:        "Broken",
		Permissions: []string{"launch:rocket"},
	})
	assert.ErrorIs(t, err, shared.ErrUnknownPermission)

	_, err = svc.Create(context.Background(), 1, CreateParams{
		Name:        "Broken",
		Permissions: []string{"no-colon-here"},
	})
	assert.ErrorIs(t, err, shared.ErrMalformedPermission)
}

func TestCreateRejectsUnknownModule(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.Create(context.Background(), 1, CreateParams{
		Name:    "Broken",
		Modules: []string{"timetravel"},
	})
	assert.ErrorIs(t, err, shared.ErrUnknownPermission)
}

func TestCreateDuplicateName(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), 1, CreateParams{Name: "Ops"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), 1, CreateParams{Name: "Ops"})
	assert.ErrorIs(t, err, shared.ErrDuplicateName)
}

func TestUpdateSystemRoleRenameRefused(t *testing.T) {
	repo := newMockRepo()
	system := seedSystemRole(repo)
	svc := NewService(repo, nil)

	name := "Root"
	_, err := svc.Update(context.Background(), 1, system.ID, UpdateParams{Name: &name})
	assert.ErrorIs(t, err, shared.ErrImmutableSystemRole)

	// Same name is not a rename; other fields may still change.
	same := system.Name
	desc := "tier two admin"
	updated, err := svc.Update(context.Background(), 1, system.ID, UpdateParams{Name: &same, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "tier two admin", updated.Description)
}

func TestUpdatePartialLeavesOtherFields(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	created, err := svc.Create(context.Background(), 1, CreateParams{
		Name:        "Analyst",
		Permissions: []string{"read:report"},
		Modules:     []string{"analytics"},
		Level:       2,
	})
	require.NoError(t, err)

	level := 4
	updated, err := svc.Update(context.Background(), 1, created.ID, UpdateParams{Level: &level})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Level)
	assert.Equal(t, []string{"read:report"}, updated.Permissions)
	assert.Equal(t, []string{"analytics"}, updated.Modules)
}

func TestUpdateValidatesPermissions(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	created, err := svc.Create(context.Background(), 1, CreateParams{Name: "Analyst"})
	require.NoError(t, err)

	perms := []string{"levitate:desk"}
	_, err = svc.Update(context.Background(), 1, created.ID, UpdateParams{Permissions: &perms})
	assert.ErrorIs(t, err, shared.ErrUnknownPermission)
}

func TestDeleteSystemRoleRefused(t *testing.T) {
	repo := newMockRepo()
	system := seedSystemRole(repo)
	svc := NewService(repo, nil)

	err := svc.Delete(context.Background(), 1, system.ID)
	assert.ErrorIs(t, err, shared.ErrImmutableSystemRole)
	_, err = svc.Get(context.Background(), system.ID)
	assert.NoError(t, err)
}

func TestDeleteRoleInUse(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	created, err := svc.Create(context.Background(), 1, CreateParams{Name: "Ops"})
	require.NoError(t, err)
	repo.users[created.ID] = 3

	err = svc.Delete(context.Background(), 1, created.ID)
	assert.ErrorIs(t, err, shared.ErrRoleInUse)

	// Once the last user is reassigned the delete goes through.
	repo.users[created.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), 1, created.ID))
	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteUnknownRole(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	err := svc.Delete(context.Background(), 1, 404)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
