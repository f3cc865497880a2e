package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"inkwell/internal/errors"
	"inkwell/internal/model"
	"inkwell/internal/repository"
)

// RoleService manages the canonical role table.
type RoleService interface {
	// InsertRoles seeds the canonical roles, upserting by name. Safe to
	// run on every deploy.
	InsertRoles(ctx context.Context) error
	Get(ctx context.Context, id uint) (*model.Role, error)
	List(ctx context.Context) ([]model.Role, error)
}

type roleService struct {
	repo repository.RoleRepository
}

// NewRoleService creates a new role service.
func NewRoleService(repo repository.RoleRepository) RoleService {
	return &roleService{repo: repo}
}

func (s *roleService) InsertRoles(ctx context.Context) error {
	for _, spec := range model.CanonicalRoles {
		role, err := s.repo.FindByName(ctx, spec.Name)
		if err == gorm.ErrRecordNotFound {
			role = &model.Role{Name: spec.Name}
		} else if err != nil {
			return fmt.Errorf("find role %s: %w", spec.Name, err)
		}
		role.Permissions = spec.Permissions
		role.Default = spec.Default
		if err := s.repo.Save(ctx, role); err != nil {
			return fmt.Errorf("save role %s: %w", spec.Name, err)
		}
	}
	return nil
}

func (s *roleService) Get(ctx context.Context, id uint) (*model.Role, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRoleNotFound
		}
		return nil, err
	}
	return role, nil
}

func (s *roleService) List(ctx context.Context) ([]model.Role, error) {
	return s.repo.List(ctx)
}
