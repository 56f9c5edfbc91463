package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streetburger/issuedesk/internal/domain"
)

// UserRepository reads and writes dashboard profiles and calls the
// privileged account procedures.
type UserRepository interface {
	List(ctx context.Context) ([]domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	UpdateProfile(ctx context.Context, id, name, avatar string) error
	AdminResetPassword(ctx context.Context, id, newPassword string) error
	DeleteUser(ctx context.Context, id string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const profileColumns = `id, email, full_name, role, avatar_url`

type profileRow struct {
	ID        string
	Email     *string
	FullName  *string
	Role      *string
	AvatarURL *string
}

func (row *profileRow) targets() []any {
	return []any{&row.ID, &row.Email, &row.FullName, &row.Role, &row.AvatarURL}
}

func (row profileRow) toDomain() domain.User {
	return domain.User{
		ID:     row.ID,
		Email:  deref(row.Email),
		Name:   orDefault(deref(row.FullName), "User"),
		Role:   domain.ParseRole(deref(row.Role)),
		Avatar: deref(row.AvatarURL),
	}
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	if err := requirePool(r.pool != nil); err != nil {
		return nil, err
	}
	const query = `SELECT ` + profileColumns + ` FROM profiles ORDER BY full_name ASC`
	return r.fetchMany(ctx, "list profiles", query)
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	if err := requirePool(r.pool != nil); err != nil {
		return nil, err
	}
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE upper(role)=$1 ORDER BY full_name ASC`
	return r.fetchMany(ctx, "list profiles by role", query, string(role))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := requirePool(r.pool != nil); err != nil {
		return nil, err
	}
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE id=$1`
	var row profileRow
	if err := r.pool.QueryRow(ctx, query, id).Scan(row.targets()...); err != nil {
		return nil, classify("get profile", err)
	}
	user := row.toDomain()
	return &user, nil
}

// Create upserts the profile row for an account created by the auth provider.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if err := requirePool(r.pool != nil); err != nil {
		return err
	}
	const query = `
        INSERT INTO profiles (id, email, full_name, role, avatar_url)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (id) DO UPDATE
            SET email=EXCLUDED.email, full_name=EXCLUDED.full_name, role=EXCLUDED.role,
                avatar_url=EXCLUDED.avatar_url, updated_at=NOW()`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		string(user.Role),
		nullable(user.Avatar),
	)
	return classify("create profile", err)
}

func (r *userRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	if err := requirePool(r.pool != nil); err != nil {
		return err
	}
	const query = `UPDATE profiles SET role=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, string(role), id)
	if err != nil {
		return classify("update role", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile writes the non-empty fields only.
func (r *userRepository) UpdateProfile(ctx context.Context, id, name, avatar string) error {
	if err := requirePool(r.pool != nil); err != nil {
		return err
	}
	const query = `
        UPDATE profiles SET full_name=COALESCE($1, full_name), avatar_url=COALESCE($2, avatar_url), updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, nullable(name), nullable(avatar), id)
	if err != nil {
		return classify("update profile", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) AdminResetPassword(ctx context.Context, id, newPassword string) error {
	if err := requirePool(r.pool != nil); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `SELECT admin_reset_password($1, $2)`, id, newPassword)
	if err != nil {
		return classifyRPC("admin_reset_password", err)
	}
	return nil
}

func (r *userRepository) DeleteUser(ctx context.Context, id string) error {
	if err := requirePool(r.pool != nil); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `SELECT delete_user($1)`, id)
	if err != nil {
		return classifyRPC("delete_user", err)
	}
	return nil
}

func (r *userRepository) fetchMany(ctx context.Context, op, query string, args ...any) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var row profileRow
		if err := rows.Scan(row.targets()...); err != nil {
			return nil, classify(op, err)
		}
		users = append(users, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return users, nil
}
