package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-online-cinema/auth-service/internal/cache"
	"github.com/pribylovaa/go-online-cinema/auth-service/internal/config"
	"github.com/pribylovaa/go-online-cinema/auth-service/internal/models"
	"github.com/pribylovaa/go-online-cinema/auth-service/internal/service"
	"github.com/pribylovaa/go-online-cinema/auth-service/internal/storage"
	transporthttp "github.com/pribylovaa/go-online-cinema/auth-service/internal/transport/http"
	"github.com/pribylovaa/go-online-cinema/auth-service/mocks"
)

const testUA = "test-agent/1.0"

type pairResp struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type errResp struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockStorage, *gomock.Controller) {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	svc, err := service.New(st, cache.NewMemoryCache(), config.AuthConfig{
		Secret:          "router-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "auth-service",
	})
	require.NoError(t, err)

	return transporthttp.NewRouter(svc, transporthttp.Options{Timeout: 5 * time.Second}), st, ctrl
}

func doJSON(t *testing.T, h http.Handler, method, target, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("User-Agent", testUA)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) errResp {
	t.Helper()
	var out errResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func login(t *testing.T, h http.Handler) pairResp {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"login":    "alice",
		"password": "Abcdef1!",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out pairResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter_Login_OK(t *testing.T) {
	t.Parallel()

	h, st, ctrl := newTestRouter(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           uuid.New(),
		Login:        "alice",
		PasswordHash: mustHash(t, "Abcdef1!"),
		Roles:        []string{"subscriber"},
	}
	st.EXPECT().UserByLogin(gomock.Any(), "alice").Return(user, nil)
	st.EXPECT().SaveNote(gomock.Any(), gomock.Any()).Return(nil)

	out := login(t, h)
	require.Equal(t, user.ID.String(), out.UserID)
	require.NotEmpty(t, out.AccessToken)
	require.NotEmpty(t, out.RefreshToken)
}

func TestRouter_Login_BadBody(t *testing.T) {
	t.Parallel()

	h, _, ctrl := newTestRouter(t)
	defer ctrl.Finish()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte(`{"login":1}`)))
	req.Header.Set("User-Agent", testUA)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_argument", decodeErr(t, rec).Error.Code)
}

func TestRouter_Login_WrongCredentials(t *testing.T) {
	t.Parallel()

	h, st, ctrl := newTestRouter(t)
	defer ctrl.Finish()

	st.EXPECT().UserByLogin(gomock.Any(), "alice").Return(nil, storage.ErrNotFound)

	rec := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"login":    "alice",
		"password": "Abcdef1!",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_credentials", decodeErr(t, rec).Error.Code)
}

func TestRouter_Validate_And_LogoutFlow(t *testing.T) {
	t.Parallel()

	h, st, ctrl := newTestRouter(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           uuid.New(),
		Login:        "alice",
		PasswordHash: mustHash(t, "Abcdef1!"),
		Roles:        []string{"subscriber"},
	}
	st.EXPECT().UserByLogin(gomock.Any(), "alice").Return(user, nil)
	st.EXPECT().SaveNote(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	pair := login(t, h)

	// Токен действует.
	rec := doJSON(t, h, http.MethodPost, "/auth/validate", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var v struct {
		UserID string   `json:"user_id"`
		Roles  []string `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	require.Equal(t, user.ID.String(), v.UserID)
	require.Contains(t, v.Roles, "subscriber")

	// Logout — и тот же токен получает различимый код token_revoked.
	rec = doJSON(t, h, http.MethodPost, "/auth/logout", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/auth/validate", pair.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "token_revoked", decodeErr(t, rec).Error.Code)
}

func TestRouter_Validate_NoBearer(t *testing.T) {
	t.Parallel()

	h, _, ctrl := newTestRouter(t)
	defer ctrl.Finish()

	rec := doJSON(t, h, http.MethodPost, "/auth/validate", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthenticated", decodeErr(t, rec).Error.Code)
}

func TestRouter_Refresh_Rotation(t *testing.T) {
	t.Parallel()

	h, st, ctrl := newTestRouter(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           uuid.New(),
		Login:        "alice",
		PasswordHash: mustHash(t, "Abcdef1!"),
		Roles:        []string{"subscriber"},
	}
	st.EXPECT().UserByLogin(gomock.Any(), "alice").Return(user, nil)
	st.EXPECT().SaveNote(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	pair := login(t, h)

	rec := doJSON(t, h, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var fresh pairResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fresh))
	require.Equal(t, user.ID.String(), fresh.UserID)
	require.NotEmpty(t, fresh.AccessToken)
}

func TestRouter_Refresh_UnknownToken(t *testing.T) {
	t.Parallel()

	h, _, ctrl := newTestRouter(t)
	defer ctrl.Finish()

	rec := doJSON(t, h, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": "garbage",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthenticated", decodeErr(t, rec).Error.Code)
}

func TestRouter_History_Own(t *testing.T) {
	t.Parallel()

	h, st, ctrl := newTestRouter(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           uuid.New(),
		Login:        "alice",
		PasswordHash: mustHash(t, "Abcdef1!"),
	}
	st.EXPECT().UserByLogin(gomock.Any(), "alice").Return(user, nil)
	st.EXPECT().SaveNote(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	st.EXPECT().LastNotes(gomock.Any(), user.ID, 10).Return([]models.HistoryNote{
		{ID: uuid.New(), UserID: user.ID, Action: "login", Fingerprint: testUA, OccurredAt: time.Now().UTC()},
	}, nil)

	pair := login(t, h)

	rec := doJSON(t, h, http.MethodGet, "/auth/history", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var notes []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	require.Equal(t, "login", notes[0]["action"])
}

func TestRouter_UserHistory_RBAC(t *testing.T) {
	t.Parallel()

	h, st, ctrl := newTestRouter(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           uuid.New(),
		Login:        "alice",
		PasswordHash: mustHash(t, "Abcdef1!"),
		Roles:        []string{"subscriber"},
	}
	st.EXPECT().UserByLogin(gomock.Any(), "alice").Return(user, nil)
	st.EXPECT().SaveNote(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	pair := login(t, h)

	// Без роли admin чужая история закрыта.
	target := "/auth/users/" + uuid.NewString() + "/history"
	rec := doJSON(t, h, http.MethodGet, target, pair.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "permission_denied", decodeErr(t, rec).Error.Code)
}

func TestRouter_UserHistory_Admin(t *testing.T) {
	t.Parallel()

	h, st, ctrl := newTestRouter(t)
	defer ctrl.Finish()

	admin := &models.User{
		ID:           uuid.New(),
		Login:        "alice",
		PasswordHash: mustHash(t, "Abcdef1!"),
		Roles:        []string{"admin"},
	}
	other := uuid.New()

	st.EXPECT().UserByLogin(gomock.Any(), "alice").Return(admin, nil)
	st.EXPECT().SaveNote(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	st.EXPECT().LastNotes(gomock.Any(), other, 3).Return([]models.HistoryNote{}, nil)

	pair := login(t, h)

	rec := doJSON(t, h, http.MethodGet, "/auth/users/"+other.String()+"/history?limit=3", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Кривой id — 400.
	rec = doJSON(t, h, http.MethodGet, "/auth/users/not-a-uuid/history", pair.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_argument", decodeErr(t, rec).Error.Code)
}

func TestRouter_CacheDown_Returns503(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStorage(ctrl)
	sc := mocks.NewMockSessionCache(ctrl)
	svc, err := service.New(st, sc, config.AuthConfig{
		Secret:          "router-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "auth-service",
	})
	require.NoError(t, err)
	h := transporthttp.NewRouter(svc, transporthttp.Options{})

	user := &models.User{
		ID:           uuid.New(),
		Login:        "alice",
		PasswordHash: mustHash(t, "Abcdef1!"),
	}
	st.EXPECT().UserByLogin(gomock.Any(), "alice").Return(user, nil)
	sc.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("redis down"))

	rec := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"login":    "alice",
		"password": "Abcdef1!",
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "unavailable", decodeErr(t, rec).Error.Code)
}

func TestRouter_RequestID_Propagated(t *testing.T) {
	t.Parallel()

	h, _, ctrl := newTestRouter(t)
	defer ctrl.Finish()

	req := httptest.NewRequest(http.MethodPost, "/auth/validate", nil)
	req.Header.Set("User-Agent", testUA)
	req.Header.Set("X-Request-Id", "rid-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "rid-123", rec.Header().Get("X-Request-Id"))
	require.Equal(t, "rid-123", decodeErr(t, rec).Error.RequestID)
}
