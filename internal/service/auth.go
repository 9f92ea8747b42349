package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-online-cinema/auth-service/internal/cache"
	"github.com/pribylovaa/go-online-cinema/auth-service/internal/models"
	"github.com/pribylovaa/go-online-cinema/auth-service/internal/pkg/log"
	"github.com/pribylovaa/go-online-cinema/auth-service/internal/pkg/redact"
	"github.com/pribylovaa/go-online-cinema/auth-service/internal/storage"
	"github.com/pribylovaa/go-online-cinema/auth-service/internal/token"
)

// Действия журнала.
const (
	actionLogin     = "login"
	actionLogout    = "logout"
	actionLogoutAll = "logout_all"
)

// Login выполняет вход по логину и паролю для конкретного устройства.
//
// Порядок: поиск пользователя -> bcrypt-сравнение пароля -> выпуск пары
// токенов -> запись refresh-токена в кэш под ключом устройства.
// «Пользователь не найден» и «неверный пароль» схлопываются в одну
// ошибку ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, login, password, fingerprint string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.auth.Login"

	lg := log.From(ctx)

	if login == "" || password == "" {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("login_unknown_user",
				slog.String("op", op),
				slog.String("login", redact.Login(login)),
			)
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		lg.Warn("login_wrong_password",
			slog.String("op", op),
			slog.String("login", redact.Login(login)),
		)
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issueTokenPair(ctx, user, fingerprint)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	s.noteHistory(ctx, user.ID, actionLogin, fingerprint)

	return pair, user.ID, nil
}

// ValidateAccess проверяет access-токен: сначала stateless-проверки кодека
// (формат/подпись/срок), затем stateful-проверка отзыва по кэшу сессий.
// Совмещение этих двух проверок — ключевое свойство корректности сервиса:
// вышедший из системы или глобально деактивированный токен не принимается,
// хотя сам по себе он самодостаточен и валиден.
func (s *Service) ValidateAccess(ctx context.Context, accessToken, fingerprint string) (*token.Claims, error) {
	const op = "service.auth.ValidateAccess"

	claims, err := s.codec.Decode(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapTokenErr(err))
	}

	revoked, err := s.isRevoked(ctx, claims, accessToken, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if revoked {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}

	return claims, nil
}

// Refresh обновляет пару токенов по refresh-токену устройства.
//
// Кэш-запись устройства обязана существовать и совпадать с предъявленным
// токеном: logout/logout_all удаляют запись, а ротация перезаписывает её
// новым значением, так что устаревший или отозванный refresh-токен
// отклоняется здесь, а не по отдельному чёрному списку.
func (s *Service) Refresh(ctx context.Context, refreshToken, fingerprint string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.auth.Refresh"

	lg := log.From(ctx)

	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, mapTokenErr(err))
	}

	stored, err := s.cache.Get(ctx, loginKey(claims.Subject, fingerprint))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
		}

		lg.Error("session_lookup_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrCacheUnavailable)
	}

	if stored != refreshToken {
		// Токен был ротирован (last write wins) либо сессия перезапущена.
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}

	user, err := s.storage.UserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issueTokenPair(ctx, user, fingerprint)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user.ID, nil
}

// Logout завершает сессию одного устройства: удаляет его refresh-запись
// и помещает предъявленный access-токен в бан-запись устройства с TTL,
// равным остатку его жизни (после естественного истечения помнить бан
// незачем — это ограничивает рост кэша). Сессии других устройств
// пользователя не затрагиваются.
func (s *Service) Logout(ctx context.Context, accessToken, fingerprint string) error {
	const op = "service.auth.Logout"

	lg := log.From(ctx)

	claims, err := s.ValidateAccess(ctx, accessToken, fingerprint)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Delete(ctx, loginKey(claims.Subject, fingerprint)); err != nil {
		lg.Error("session_delete_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, ErrCacheUnavailable)
	}

	remaining := time.Until(time.Unix(claims.ExpiresAt, 0))
	if err := s.cache.Put(ctx, logoutKey(claims.Subject, fingerprint), accessToken, remaining); err != nil {
		lg.Error("ban_put_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, ErrCacheUnavailable)
	}

	s.noteHistory(ctx, claims.Subject, actionLogout, fingerprint)

	return nil
}

// LogoutAll завершает сессии пользователя на всех устройствах: ставит
// глобальную отметку `_all_` с текущим unix-временем и удаляет все
// login-записи (отсекает дальнейшие refresh).
//
// Отметка и pattern-delete не атомарны относительно конкурентного логина
// на другом устройстве: логин, успевший завершиться в этот зазор,
// остаётся в силе — известная и допустимая асимметрия схемы.
func (s *Service) LogoutAll(ctx context.Context, accessToken, fingerprint string) error {
	const op = "service.auth.LogoutAll"

	lg := log.From(ctx)

	claims, err := s.ValidateAccess(ctx, accessToken, fingerprint)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	mark := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	if err := s.cache.Put(ctx, logoutAllKey(claims.Subject), mark, s.cfg.AccessTokenTTL); err != nil {
		lg.Error("logout_all_mark_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, ErrCacheUnavailable)
	}

	if err := s.cache.DeleteByPattern(ctx, loginKeyPattern(claims.Subject)); err != nil {
		lg.Error("logout_all_delete_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, ErrCacheUnavailable)
	}

	s.noteHistory(ctx, claims.Subject, actionLogoutAll, fingerprint)

	return nil
}

// History возвращает последние записи журнала действий пользователя.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.HistoryNote, error) {
	const op = "service.auth.History"

	if limit <= 0 || limit > 100 {
		limit = 10
	}

	notes, err := s.storage.LastNotes(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return notes, nil
}

// isRevoked выполняет stateful-часть проверки access-токена.
//
// Глобальная отметка `_all_` отзывает токены, выпущенные строго раньше
// её unix-метки: токен от логина, случившегося после logout_all (в том
// числе в ту же секунду), остаётся действительным. Бан-запись устройства
// отзывает сам забаненный токен и все токены, выпущенные раньше него.
// Любая ошибка кэша, кроме промаха, означает отказ fail-closed.
func (s *Service) isRevoked(ctx context.Context, claims *token.Claims, accessToken, fingerprint string) (bool, error) {
	const op = "service.auth.isRevoked"

	lg := log.From(ctx)

	mark, err := s.cache.Get(ctx, logoutAllKey(claims.Subject))
	switch {
	case err == nil:
		ts, perr := strconv.ParseInt(mark, 10, 64)
		if perr != nil {
			// Запись пишем только мы; нечитаемое значение — повод отказать.
			lg.Warn("logout_all_mark_unreadable",
				slog.String("op", op),
				slog.String("user_id", claims.Subject.String()),
			)
			return true, nil
		}

		if claims.IssuedAt < ts {
			return true, nil
		}
	case errors.Is(err, cache.ErrCacheMiss):
		// Отметки нет — проверяем бан устройства.
	default:
		lg.Error("revocation_check_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return false, ErrCacheUnavailable
	}

	banned, err := s.cache.Get(ctx, logoutKey(claims.Subject, fingerprint))
	switch {
	case err == nil:
		if banned == accessToken {
			return true, nil
		}

		bannedClaims, perr := s.codec.ParseClaims(banned)
		if perr != nil {
			lg.Warn("ban_entry_unreadable",
				slog.String("op", op),
				slog.String("user_id", claims.Subject.String()),
			)
			return true, nil
		}

		if claims.IssuedAt < bannedClaims.IssuedAt {
			return true, nil
		}
	case errors.Is(err, cache.ErrCacheMiss):
	default:
		lg.Error("revocation_check_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return false, ErrCacheUnavailable
	}

	return false, nil
}

// issueTokenPair выпускает новую пару access+refresh токенов и
// перезаписывает refresh-запись устройства в кэше (неявная ротация:
// старый refresh-токен перестаёт действовать без отдельного чёрного
// списка, потому что перестаёт совпадать со значением по ключу).
func (s *Service) issueTokenPair(ctx context.Context, user *models.User, fingerprint string) (*models.TokenPair, error) {
	const op = "service.auth.issueTokenPair"

	lg := log.From(ctx)

	accessToken, accessExp, err := s.access.Generate(s.cfg.Issuer, user.ID, user.Roles)
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, refreshExp, err := s.refresh.Generate(s.cfg.Issuer, user.ID)
	if err != nil {
		lg.Error("refresh_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Put(ctx, loginKey(user.ID, fingerprint), refreshToken, s.cfg.RefreshTokenTTL); err != nil {
		lg.Error("session_put_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrCacheUnavailable)
	}

	return &models.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// noteHistory пишет запись журнала best-effort: сбой журнала логируется,
// но не прерывает аутентификацию.
func (s *Service) noteHistory(ctx context.Context, userID uuid.UUID, action, fingerprint string) {
	note := &models.HistoryNote{
		ID:          uuid.New(),
		UserID:      userID,
		Action:      action,
		Fingerprint: fingerprint,
		OccurredAt:  time.Now().UTC(),
	}

	if err := s.storage.SaveNote(ctx, note); err != nil {
		log.From(ctx).Warn("history_note_failed",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
	}
}

// checkPassword сравнивает пароль с bcrypt-хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
