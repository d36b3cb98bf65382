package repositories

import (
	"context"

	"device-manager/internal/entities"
	apperrors "device-manager/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoleRepositoryInterface interface {
	GetRoles(ctx context.Context) ([]entities.Role, error)
	FindRole(ctx context.Context, id uint64) (*entities.Role, error)
	FindByName(ctx context.Context, name string) (*entities.Role, error)
}

type RoleRepository struct {
	storage *pgxpool.Pool
}

func NewRoleRepository(storage *pgxpool.Pool) RoleRepositoryInterface {
	return &RoleRepository{storage: storage}
}

func (r *RoleRepository) GetRoles(ctx context.Context) ([]entities.Role, error) {
	rows, err := r.storage.Query(ctx, "SELECT id, name FROM roles ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []entities.Role
	for rows.Next() {
		var role entities.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *RoleRepository) FindRole(ctx context.Context, id uint64) (*entities.Role, error) {
	var role entities.Role
	err := r.storage.QueryRow(ctx, "SELECT id, name FROM roles WHERE id = $1", id).Scan(&role.ID, &role.Name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*entities.Role, error) {
	var role entities.Role
	err := r.storage.QueryRow(ctx, "SELECT id, name FROM roles WHERE name = $1", name).Scan(&role.ID, &role.Name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}
