// token реализует низкоуровневый жизненный цикл токенов:
// HMAC-подпись, компактный трёхсегментный формат (header.claims.signature)
// и выпуск access/refresh-токенов с фиксированными временами жизни.
//
// Пакет самодостаточен и не знает ни про хранилище, ни про кэш отзыва:
// проверка отзыва — ответственность сервисного слоя.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
)

// ErrEmptySecret — секрет подписи не задан.
// Это фатальная ошибка конфигурации на старте процесса, а не runtime-сбой.
var ErrEmptySecret = errors.New("empty signing secret")

// Signer — примитив подписи/проверки сообщений (HMAC-SHA256).
// Секрет неизменяем после создания; экземпляр безопасен для
// конкурентного использования.
type Signer struct {
	secret []byte
}

// NewSigner создаёт Signer с общим для процесса секретом.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	return &Signer{secret: []byte(secret)}, nil
}

// Sign возвращает HMAC-SHA256-подпись сообщения.
func (s *Signer) Sign(message []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(message)
	return mac.Sum(nil)
}

// Verify сравнивает подпись за константное время (без тайминговых утечек).
func (s *Signer) Verify(message, signature []byte) bool {
	return hmac.Equal(s.Sign(message), signature)
}
