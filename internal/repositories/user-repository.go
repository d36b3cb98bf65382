package repositories

import (
	"context"
	"fmt"

	"device-manager/internal/entities"
	apperrors "device-manager/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userTable = "users"
const userFields = "u.id, u.email, u.full_name, u.password_hash, u.role_id, COALESCE(r.name, ''), u.created_at"

type UserRepositoryInterface interface {
	FindByID(ctx context.Context, id uint64) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	FindByRoleNames(ctx context.Context, roleNames []string) ([]entities.User, error)
	CreateUser(ctx context.Context, u *entities.User) (uint64, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
}

func NewUserRepository(storage *pgxpool.Pool) UserRepositoryInterface {
	return &UserRepository{storage: storage}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.RoleID, &u.RoleName, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entities.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s u
		LEFT JOIN roles r ON u.role_id = r.id
		WHERE u.id = $1`, userFields, userTable)
	return scanUser(r.storage.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s u
		LEFT JOIN roles r ON u.role_id = r.id
		WHERE LOWER(u.email) = LOWER($1)`, userFields, userTable)
	return scanUser(r.storage.QueryRow(ctx, query, email))
}

// FindByRoleNames — получатели уведомлений по ролям (менеджеры, админы).
func (r *UserRepository) FindByRoleNames(ctx context.Context, roleNames []string) ([]entities.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s u
		JOIN roles r ON u.role_id = r.id
		WHERE r.name = ANY($1)
		ORDER BY u.id`, userFields, userTable)

	rows, err := r.storage.Query(ctx, query, roleNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []entities.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) CreateUser(ctx context.Context, u *entities.User) (uint64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (email, full_name, password_hash, role_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, userTable)

	var id uint64
	err := r.storage.QueryRow(ctx, query, u.Email, u.FullName, u.PasswordHash, u.RoleID).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}
