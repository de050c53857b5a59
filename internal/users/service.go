package users

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/nusantara-hq/gapura/internal/shared"
)

// AuditRecorder persists an audit trail entry for a user mutation.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user business logic.
type Service struct {
	repo  RepositoryPort
	audit AuditRecorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateParams carries fields for a new user.
type CreateParams struct {
	Email    string
	Phone    string
	Username string
	Name     string
	Password string
	RoleID   int64
}

// List returns a page of users plus pagination metadata.
func (s *Service) List(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	meta := shared.NewPagination(page, perPage, total)
	list, err := s.repo.List(ctx, meta.PerPage, meta.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, meta, nil
}

// Get fetches a user by ID.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// FindByIdentifier fetches a user by email, username or phone.
func (s *Service) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return s.repo.FindByIdentifier(ctx, strings.TrimSpace(identifier))
}

// Create provisions a new user with a bcrypt password hash. At least one
// of email, phone or username is required.
func (s *Service) Create(ctx context.Context, actorID int64, params CreateParams) (*User, error) {
	user := User{
		Email:    strings.TrimSpace(strings.ToLower(params.Email)),
		Phone:    strings.TrimSpace(params.Phone),
		Username: strings.TrimSpace(params.Username),
		Name:     strings.TrimSpace(params.Name),
		RoleID:   params.RoleID,
		IsActive: true,
	}
	if user.Email == "" && user.Phone == "" && user.Username == "" {
		return nil, fmt.Errorf("users: at least one of email/phone/username required")
	}
	if user.Name == "" {
		return nil, fmt.Errorf("users: name required")
	}
	if user.RoleID <= 0 {
		return nil, fmt.Errorf("users: role required")
	}
	if len(params.Password) < 8 {
		return nil, fmt.Errorf("users: password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = string(hash)

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "user.create", created.ID, map[string]any{"name": created.Name})
	return created, nil
}

// AssignRole moves the user to a different role. Takes effect on the next
// authorization check since nothing is cached.
func (s *Service) AssignRole(ctx context.Context, actorID, userID, roleID int64) error {
	if err := s.repo.SetRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "user.assign_role", userID, map[string]any{"role_id": roleID})
	return nil
}

// Deactivate soft-disables the user. All authorization checks fail closed
// for inactive users immediately.
func (s *Service) Deactivate(ctx context.Context, actorID, userID int64) error {
	if err := s.repo.SetActive(ctx, userID, false); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "user.deactivate", userID, nil)
	return nil
}

// Activate re-enables a deactivated user.
func (s *Service) Activate(ctx context.Context, actorID, userID int64) error {
	if err := s.repo.SetActive(ctx, userID, true); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "user.activate", userID, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     meta,
	})
}
