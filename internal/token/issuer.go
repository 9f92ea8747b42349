package token

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AccessIssuer выпускает короткоживущие access-токены.
// Роли зашиваются в токен снапшотом на момент выпуска: отозванная в середине
// сессии роль продолжает действовать до естественного истечения access-токена.
// Это осознанный компромисс с ограниченным окном устаревания (= AccessTokenTTL),
// а не дефект: живой поход за ролями на каждый запрос свёл бы на нет
// stateless-валидацию.
type AccessIssuer struct {
	codec *Codec
	ttl   time.Duration
}

// NewAccessIssuer создаёт издателя access-токенов с заданным временем жизни.
func NewAccessIssuer(codec *Codec, ttl time.Duration) *AccessIssuer {
	return &AccessIssuer{codec: codec, ttl: ttl}
}

// Generate выпускает access-токен и возвращает момент его истечения.
func (i *AccessIssuer) Generate(issuer string, subject uuid.UUID, roles []string) (string, time.Time, error) {
	const op = "token.issuer.AccessIssuer.Generate"

	now := time.Now().UTC()
	exp := now.Add(i.ttl)

	signed, err := i.codec.Encode(Claims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  now.Unix(),
		ExpiresAt: exp.Unix(),
		Roles:     roles,
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp, nil
}

// RefreshIssuer выпускает долгоживущие refresh-токены (без ролей).
type RefreshIssuer struct {
	codec *Codec
	ttl   time.Duration
}

// NewRefreshIssuer создаёт издателя refresh-токенов с заданным временем жизни.
func NewRefreshIssuer(codec *Codec, ttl time.Duration) *RefreshIssuer {
	return &RefreshIssuer{codec: codec, ttl: ttl}
}

// Generate выпускает refresh-токен и возвращает момент его истечения.
func (i *RefreshIssuer) Generate(issuer string, subject uuid.UUID) (string, time.Time, error) {
	const op = "token.issuer.RefreshIssuer.Generate"

	now := time.Now().UTC()
	exp := now.Add(i.ttl)

	signed, err := i.codec.Encode(Claims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  now.Unix(),
		ExpiresAt: exp.Unix(),
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp, nil
}
