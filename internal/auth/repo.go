package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuskit/campuskit/internal/rbac"
	"github.com/campuskit/campuskit/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, name, password_hash, role, COALESCE(department_id, ''), college_id, is_active, created_at, updated_at`

// FindByEmail fetches a user record by email, including module permissions.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return r.scanUser(ctx, row)
}

// FindByID fetches a user record by primary key, including module
// permissions.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return r.scanUser(ctx, row)
}

func (r *PGRepository) scanUser(ctx context.Context, row pgx.Row) (*User, error) {
	var user User
	var role string
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&role,
		&user.DepartmentID,
		&user.CollegeID,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	user.Role = rbac.Role(role)

	perms, err := r.loadPermissions(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Permissions = perms
	return &user, nil
}

func (r *PGRepository) loadPermissions(ctx context.Context, userID int64) ([]rbac.ModulePermission, error) {
	rows, err := r.pool.Query(ctx, `SELECT module, can_read, can_write, scope FROM module_permissions WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []rbac.ModulePermission
	for rows.Next() {
		var module, scope string
		var perm rbac.ModulePermission
		if err := rows.Scan(&module, &perm.CanRead, &perm.CanWrite, &scope); err != nil {
			return nil, err
		}
		perm.Module = rbac.Module(module)
		perm.Scope = rbac.Scope(scope)
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
