package models

import (
	"time"

	"github.com/google/uuid"
)

// User - модель пользователя в системе.
// Roles содержит названия ролей на момент чтения из БД;
// в access-токен они попадают как снапшот при выпуске.
type User struct {
	ID           uuid.UUID
	Login        string
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
