package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-online-cinema/auth-service/internal/models"
)

// SaveNote сохраняет запись журнала действий пользователя.
func (s *Storage) SaveNote(ctx context.Context, note *models.HistoryNote) error {
	const op = "storage.postgres.SaveNote"

	query := `
		INSERT INTO user_history(id, user_id, action, fingerprint, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.Exec(ctx, query,
		note.ID,
		note.UserID,
		note.Action,
		note.Fingerprint,
		note.OccurredAt,
	)

	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// LastNotes возвращает последние записи журнала пользователя (свежие первыми).
func (s *Storage) LastNotes(ctx context.Context, userID uuid.UUID, limit int) ([]models.HistoryNote, error) {
	const op = "storage.postgres.LastNotes"

	query := `
		SELECT id, user_id, action, fingerprint, occurred_at
		FROM user_history
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var notes []models.HistoryNote
	for rows.Next() {
		var n models.HistoryNote
		if err := rows.Scan(&n.ID, &n.UserID, &n.Action, &n.Fingerprint, &n.OccurredAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		notes = append(notes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return notes, nil
}
