package models

import "time"

// TokenPair — пара токенов, выдаваемая при входе и обновлении сессии.
//
// Описание:
//   - AccessToken — короткоживущий подписанный токен для доступа к API;
//   - RefreshToken — долгоживущий подписанный токен для выпуска новой пары;
//   - AccessExpiresAt/RefreshExpiresAt — моменты истечения (UTC).
//
// Пара создаётся один раз за login/refresh и никогда не мутируется:
// при ротации выпускается новая пара, старая просто перестаёт действовать.
type TokenPair struct {
	// AccessToken — токен для авторизации запросов.
	AccessToken string
	// RefreshToken — токен для обновления пары.
	RefreshToken string
	// AccessExpiresAt — время истечения действия access-токена (UTC).
	AccessExpiresAt time.Time
	// RefreshExpiresAt — время истечения действия refresh-токена (UTC).
	RefreshExpiresAt time.Time
}
