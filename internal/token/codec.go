package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrMalformedToken — токен не разбирается: не три сегмента,
	// битый base64 или claims не соответствуют схеме.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidSignature — подпись не совпала с пересчитанной.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")
)

// Заголовок фиксирован: сервис подписывает только HS256.
const headerJSON = `{"alg":"HS256","typ":"JWT"}`

// Строгий декодер: ненулевые хвостовые биты последнего символа —
// ошибка, а не молчаливое каноническое прочтение. Иначе у одного
// токена было бы несколько побайтово разных валидных записей.
var b64 = base64.RawURLEncoding.Strict()

// Claims — полезная нагрузка подписанного токена.
// После подписи не изменяется; Roles заполняются только в access-токенах
// (снапшот ролей на момент выпуска).
type Claims struct {
	Issuer    string    `json:"iss"`
	Subject   uuid.UUID `json:"sub"`
	IssuedAt  int64     `json:"iat"`
	ExpiresAt int64     `json:"exp"`
	Roles     []string  `json:"roles,omitempty"`
}

// HasRole сообщает, содержит ли снапшот ролей указанное название.
func (c *Claims) HasRole(title string) bool {
	for _, r := range c.Roles {
		if r == title {
			return true
		}
	}

	return false
}

// Codec собирает и разбирает компактные подписанные токены вида
// base64url(header).base64url(claims).base64url(signature), без '='-паддинга.
//
// Подпись считается над точной байтовой последовательностью
// "header.claims": любое переформатирование сегментов её инвалидирует —
// это намеренная защита от подмены, а не ограничение реализации.
type Codec struct {
	signer *Signer
}

// NewCodec создаёт кодек поверх готового Signer.
func NewCodec(signer *Signer) *Codec {
	return &Codec{signer: signer}
}

// Encode сериализует claims и подписывает токен.
func (c *Codec) Encode(claims Claims) (string, error) {
	const op = "token.codec.Encode"

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	headerB64 := base64.RawURLEncoding.EncodeToString([]byte(headerJSON))
	payloadB64 := base64.RawURLEncoding.EncodeToString(payload)

	signingInput := headerB64 + "." + payloadB64
	sig := c.signer.Sign([]byte(signingInput))
	sigB64 := base64.RawURLEncoding.EncodeToString(sig)

	return signingInput + "." + sigB64, nil
}

// Decode разбирает токен и возвращает claims.
//
// Порядок проверок (каждая со своей ошибкой):
//  1. ровно три сегмента, разделённые '.'         -> ErrMalformedToken;
//  2. base64url-декодирование сегментов           -> ErrMalformedToken;
//  3. пересчёт подписи над "header.claims"        -> ErrInvalidSignature;
//  4. разбор claims и проверка схемы              -> ErrMalformedToken;
//  5. exp <= now                                  -> ErrTokenExpired.
//
// Decode никогда не обращается к кэшу отзыва: эта проверка
// выполняется сервисным слоем поверх.
func (c *Codec) Decode(token string) (*Claims, error) {
	const op = "token.codec.Decode"

	claims, err := c.parse(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if claims.ExpiresAt <= time.Now().UTC().Unix() {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
	}

	return claims, nil
}

// ParseClaims разбирает токен с проверкой подписи, но без проверки срока
// действия. Используется для чтения iat забаненного токена из кэша отзыва,
// который к этому моменту мог успеть истечь.
func (c *Codec) ParseClaims(token string) (*Claims, error) {
	const op = "token.codec.ParseClaims"

	claims, err := c.parse(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return claims, nil
}

// parse выполняет шаги 1-4 из Decode.
func (c *Codec) parse(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrMalformedToken
	}

	if _, err := b64.DecodeString(parts[0]); err != nil {
		return nil, ErrMalformedToken
	}

	payload, err := b64.DecodeString(parts[1])
	if err != nil {
		return nil, ErrMalformedToken
	}

	sig, err := b64.DecodeString(parts[2])
	if err != nil {
		return nil, ErrMalformedToken
	}

	signingInput := parts[0] + "." + parts[1]
	if !c.signer.Verify([]byte(signingInput), sig) {
		return nil, ErrInvalidSignature
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrMalformedToken
	}

	if claims.Subject == uuid.Nil || claims.IssuedAt <= 0 || claims.ExpiresAt <= 0 {
		return nil, ErrMalformedToken
	}

	return &claims, nil
}
