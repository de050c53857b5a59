package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nusantara-hq/gapura/internal/shared"
)

type mockRepo struct {
	byID   map[int64]User
	nextID int64
	audits []shared.AuditLog
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: make(map[int64]User), nextID: 1}
}

func (m *mockRepo) List(ctx context.Context, limit, offset int) ([]User, error) {
	var out []User
	for id := int64(1); id < m.nextID; id++ {
		if user, ok := m.byID[id]; ok {
			out = append(out, user)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepo) Count(ctx context.Context) (int, error) {
	return len(m.byID), nil
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &user, nil
}

func (m *mockRepo) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	for _, user := range m.byID {
		if user.Email == identifier || user.Username == identifier || user.Phone == identifier {
			return &user, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepo) Create(ctx context.Context, user User) (*User, error) {
	user.ID = m.nextID
	m.nextID++
	m.byID[user.ID] = user
	return &user, nil
}

func (m *mockRepo) SetRole(ctx context.Context, userID, roleID int64) error {
	user, ok := m.byID[userID]
	if !ok {
		return shared.ErrNotFound
	}
	user.RoleID = roleID
	m.byID[userID] = user
	return nil
}

func (m *mockRepo) SetActive(ctx context.Context, userID int64, active bool) error {
	user, ok := m.byID[userID]
	if !ok {
		return shared.ErrNotFound
	}
	user.IsActive = active
	m.byID[userID] = user
	return nil
}

func (m *mockRepo) Record(ctx context.Context, log shared.AuditLog) error {
	m.audits = append(m.audits, log)
	return nil
}

func TestCreateHashesPasswordAndAudits(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, repo)

	created, err := svc.Create(context.Background(), 1, CreateParams{
		Email:    "Dewi@Example.Com",
		Name:     "Dewi Lestari",
		Password: "rahasia-banget",
		RoleID:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, "dewi@example.com", created.Email)
	assert.True(t, created.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("rahasia-banget")))
	require.Len(t, repo.audits, 1)
	assert.Equal(t, "user.create", repo.audits[0].Action)
}

func TestCreateRequiresAnIdentifier(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.Create(context.Background(), 1, CreateParams{
		Name:     "No Identifier",
		Password: "longenough",
		RoleID:   3,
	})
	assert.Error(t, err)

	// Phone alone is enough.
	_, err = svc.Create(context.Background(), 1, CreateParams{
		Phone:    "+628123456789",
		Name:     "Phone Only",
		Password: "longenough",
		RoleID:   3,
	})
	assert.NoError(t, err)
}

func TestCreateRejectsShortPassword(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.Create(context.Background(), 1, CreateParams{
		Email:    "a@b.co",
		Name:     "Short",
		Password: "short",
		RoleID:   3,
	})
	assert.Error(t, err)
}

func TestListPagination(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	for i := 0; i < 25; i++ {
		_, err := repo.Create(context.Background(), User{Name: "user", RoleID: 1})
		require.NoError(t, err)
	}

	list, meta, err := svc.List(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Len(t, list, 10)
	assert.Equal(t, 25, meta.Total)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, int64(11), list[0].ID)

	// Out-of-range inputs fall back to defaults.
	list, meta, err = svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 20)
	assert.Equal(t, 1, meta.Page)
	assert.Equal(t, 20, meta.PerPage)
}

func TestDeactivateAndActivate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, repo)
	created, err := repo.Create(context.Background(), User{Name: "user", RoleID: 1, IsActive: true})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), 9, created.ID))
	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.NoError(t, svc.Activate(context.Background(), 9, created.ID))
	got, err = svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	assert.ErrorIs(t, svc.AssignRole(context.Background(), 9, 404, 1), shared.ErrNotFound)
}
