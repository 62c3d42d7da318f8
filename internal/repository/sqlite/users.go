package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/repository"
)

const userColumns = `user_id, role, display_name, password_hash, created_at`

type users struct {
	q execer
}

func (r *users) Create(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := r.q.ExecContext(ctx, `
        INSERT INTO users (`+userColumns+`) VALUES (?,?,?,?,?)`,
		user.ID, string(user.Role), user.DisplayName, nullString(user.PasswordHash), user.CreatedAt,
	)
	return mapError(err)
}

func (r *users) Update(ctx context.Context, user *domain.User) error {
	res, err := r.q.ExecContext(ctx, `
        UPDATE users SET role=?, display_name=?, password_hash=? WHERE user_id=?`,
		string(user.Role), user.DisplayName, nullString(user.PasswordHash), user.ID,
	)
	return affectedOrNotFound(res, err)
}

func (r *users) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id=?`, id))
}

func (r *users) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE role=? ORDER BY user_id`, string(role))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		user domain.User
		role string
		hash sql.NullString
	)
	if err := row.Scan(&user.ID, &role, &user.DisplayName, &hash, &user.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	user.Role = domain.Role(role)
	if hash.Valid {
		h := hash.String
		user.PasswordHash = &h
	}
	return &user, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

var _ repository.UserRepository = (*users)(nil)
