// service содержит бизнес-логику auth-сервиса: аутентификацию,
// выпуск/проверку/ротацию токенов и учёт отзыва через кэш сессий.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования из разных горутин при условии, что
//     переданные хранилище и кэш потокобезопасны. Межзапросных блокировок
//     нет: выпуск токенов чистый, записи в кэш — идемпотентные перезаписи
//     по ключу (subject, fingerprint).
//   - Ошибки возвращаются и далее маппятся транспортом на HTTP-статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"
	"fmt"

	"github.com/pribylovaa/go-online-cinema/auth-service/internal/cache"
	"github.com/pribylovaa/go-online-cinema/auth-service/internal/config"
	"github.com/pribylovaa/go-online-cinema/auth-service/internal/storage"
	"github.com/pribylovaa/go-online-cinema/auth-service/internal/token"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь
	// не найден. Ответ одинаковый для обоих случаев, чтобы не давать
	// сигнала для перебора логинов. Транспорт: 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMalformedToken — токен не разбирается (формат/схема claims).
	// Транспорт: 401.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidSignature — подпись токена не прошла проверку.
	// Транспорт: 401.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrTokenExpired — срок действия токена истёк. Транспорт: 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked — токен отозван (logout/logout_all/ротация) и
	// недействителен независимо от срока. Транспорт: 401.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrUserNotFound — пользователь удалён/не существует при refresh.
	// Транспорт: 401 (наружу не отличаем от прочих отказов авторизации).
	ErrUserNotFound = errors.New("user not found")

	// ErrCacheUnavailable — кэш сессий недоступен. Проверки отзыва
	// работают только fail-closed: недоступность кэша никогда не
	// трактуется как «не отозван». Транспорт: 503, можно ретраить.
	ErrCacheUnavailable = errors.New("session cache unavailable")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage storage.Storage
	cache   cache.SessionCache
	cfg     config.AuthConfig

	codec   *token.Codec
	access  *token.AccessIssuer
	refresh *token.RefreshIssuer
}

// New создаёт новый экземпляр Service.
// Пустой секрет подписи — фатальная ошибка конфигурации.
func New(st storage.Storage, sc cache.SessionCache, cfg config.AuthConfig) (*Service, error) {
	const op = "service.New"

	signer, err := token.NewSigner(cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	codec := token.NewCodec(signer)

	return &Service{
		storage: st,
		cache:   sc,
		cfg:     cfg,
		codec:   codec,
		access:  token.NewAccessIssuer(codec, cfg.AccessTokenTTL),
		refresh: token.NewRefreshIssuer(codec, cfg.RefreshTokenTTL),
	}, nil
}

// mapTokenErr переводит ошибки кодека в сервисную таксономию.
func mapTokenErr(err error) error {
	switch {
	case errors.Is(err, token.ErrMalformedToken):
		return ErrMalformedToken
	case errors.Is(err, token.ErrInvalidSignature):
		return ErrInvalidSignature
	case errors.Is(err, token.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return err
	}
}
