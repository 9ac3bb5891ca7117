// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/auratrack/auratrack-api/internal/auth"
	"github.com/auratrack/auratrack-api/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, role string,
) (*auth.UserInfo, error) {
	user, err := s.CreateUser(ctx, email, passwordHash, role)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateUser persists an already hashed password. Duplicate emails surface
// as core.ErrDuplicateKey from the store's unique constraint.
func (s *Service) CreateUser(
	ctx context.Context,
	email, passwordHash, role string,
) (*User, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf(
			"create user: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	user := &User{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) UpdateRole(
	ctx context.Context,
	id, role string,
) (*User, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf(
			"update role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	return s.repo.UpdateRole(ctx, id, role)
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) CountUsers(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// SeedMasterAdmin makes the account with the given email the one master
// admin, creating it when absent. The flag moves atomically if the
// configured email changed since the last start.
func SeedMasterAdmin(
	ctx context.Context,
	db *sqlx.DB,
	email, password string,
) (*User, error) {
	email = NormalizeEmail(email)

	var master *User
	err := core.InTx(ctx, db, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)

		if err := repo.ClearMasterExcept(ctx, email); err != nil {
			return err
		}

		existing, err := repo.GetByEmail(ctx, email)
		switch {
		case err == nil:
			if err := repo.MarkMaster(ctx, existing.ID); err != nil {
				return err
			}
			existing.IsMaster = true
			existing.Role = RoleAdmin
			master = existing
			return nil
		case !errors.Is(err, core.ErrNotFound):
			return err
		}

		if password == "" {
			return fmt.Errorf(
				"seed master admin: ADMIN_MASTER_PASSWORD is required to create %s",
				email,
			)
		}

		hash, err := core.HashPassword(password)
		if err != nil {
			return fmt.Errorf("seed master admin: %w", err)
		}

		master = &User{
			ID:           uuid.New().String(),
			Email:        email,
			PasswordHash: hash,
			Role:         RoleAdmin,
			IsMaster:     true,
		}
		return repo.Create(ctx, master)
	})
	if err != nil {
		return nil, err
	}

	return master, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
	}
}

var _ auth.UserProvider = (*Service)(nil)
