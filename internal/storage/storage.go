// storage задаёт контракт работы с БД для auth-сервиса.
// Сервисный слой зависит только от интерфейсов этого пакета;
// конкретная реализация (PostgreSQL) живёт в подпакете postgres.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-online-cinema/auth-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/роль).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (login/email/роль).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции чтения справочника пользователей.
// Регистрация и смена пароля — зона ответственности отдельного сервиса,
// поэтому здесь только выборки.
type UserStorage interface {
	// UserByLogin находит пользователя (вместе с названиями ролей) по логину.
	UserByLogin(ctx context.Context, login string) (*models.User, error)
	// UserByID находит пользователя (вместе с названиями ролей) по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// HistoryStorage ведёт журнал действий пользователя (login/logout/logout_all).
type HistoryStorage interface {
	// SaveNote сохраняет запись журнала.
	SaveNote(ctx context.Context, note *models.HistoryNote) error
	// LastNotes возвращает последние записи журнала пользователя
	// (свежие первыми).
	LastNotes(ctx context.Context, userID uuid.UUID, limit int) ([]models.HistoryNote, error)
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	HistoryStorage
	Close()
}
