package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pribylovaa/go-online-cinema/auth-service/internal/models"
	"github.com/pribylovaa/go-online-cinema/auth-service/internal/storage"
)

// userQuery собирает пользователя вместе с названиями его ролей.
// array_remove отбрасывает NULL от LEFT JOIN, чтобы у пользователя
// без ролей получился пустой массив, а не {NULL}.
const userQuery = `
	SELECT u.id, u.login, u.email, u.password_hash,
	       array_remove(array_agg(r.title), NULL) AS roles,
	       u.created_at, u.updated_at
	FROM users u
	LEFT JOIN user_roles ur ON ur.user_id = u.id
	LEFT JOIN roles r ON r.id = ur.role_id
	WHERE %s
	GROUP BY u.id
`

// UserByLogin находит пользователя по логину.
func (s *Storage) UserByLogin(ctx context.Context, login string) (*models.User, error) {
	const op = "storage.postgres.UserByLogin"

	user, err := s.scanUser(ctx, fmt.Sprintf(userQuery, "u.login = $1"), login)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	user, err := s.scanUser(ctx, fmt.Sprintf(userQuery, "u.id = $1"), id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) scanUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Login,
		&user.Email,
		&user.PasswordHash,
		&user.Roles,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, err
	}

	return &user, nil
}
