package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/pribylovaa/go-online-cinema/auth-service/internal/errors"
	"github.com/pribylovaa/go-online-cinema/auth-service/internal/models"
	"github.com/pribylovaa/go-online-cinema/auth-service/internal/service"
)

// Роль с доступом к чужой истории входов.
const roleAdmin = "admin"

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPairResponse struct {
	UserID           string    `json:"user_id"`
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type validateResponse struct {
	UserID    string   `json:"user_id"`
	Roles     []string `json:"roles,omitempty"`
	IssuedAt  int64    `json:"issued_at"`
	ExpiresAt int64    `json:"expires_at"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type historyNoteResponse struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	Fingerprint string    `json:"fingerprint"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func pairResponse(pair *models.TokenPair, uid uuid.UUID) tokenPairResponse {
	return tokenPairResponse{
		UserID:           uid.String(),
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	pair, uid, err := h.svc.Login(r.Context(), in.Login, in.Password, fingerprint(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pairResponse(pair, uid))
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil || in.RefreshToken == "" {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	pair, uid, err := h.svc.Refresh(r.Context(), in.RefreshToken, fingerprint(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pairResponse(pair, uid))
}

func (h *Handlers) Validate(w http.ResponseWriter, r *http.Request) {
	at, ok := bearerToken(r)
	if !ok {
		apierrors.WriteError(w, r, service.ErrMalformedToken)
		return
	}

	claims, err := h.svc.ValidateAccess(r.Context(), at, fingerprint(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{
		UserID:    claims.Subject.String(),
		Roles:     claims.Roles,
		IssuedAt:  claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
	})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	at, ok := bearerToken(r)
	if !ok {
		apierrors.WriteError(w, r, service.ErrMalformedToken)
		return
	}

	if err := h.svc.Logout(r.Context(), at, fingerprint(r)); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (h *Handlers) LogoutAll(w http.ResponseWriter, r *http.Request) {
	at, ok := bearerToken(r)
	if !ok {
		apierrors.WriteError(w, r, service.ErrMalformedToken)
		return
	}

	if err := h.svc.LogoutAll(r.Context(), at, fingerprint(r)); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// History отдаёт историю входов текущего пользователя (subject берётся
// из access-токена, чужую историю здесь запросить нельзя).
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	at, ok := bearerToken(r)
	if !ok {
		apierrors.WriteError(w, r, service.ErrMalformedToken)
		return
	}

	claims, err := h.svc.ValidateAccess(r.Context(), at, fingerprint(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.writeHistory(w, r, claims.Subject)
}

// UserHistory отдаёт историю входов произвольного пользователя;
// доступно только с ролью admin в access-токене.
func (h *Handlers) UserHistory(w http.ResponseWriter, r *http.Request) {
	at, ok := bearerToken(r)
	if !ok {
		apierrors.WriteError(w, r, service.ErrMalformedToken)
		return
	}

	claims, err := h.svc.ValidateAccess(r.Context(), at, fingerprint(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if !claims.HasRole(roleAdmin) {
		apierrors.WriteError(w, r, apierrors.ErrPermissionDenied)
		return
	}

	uid, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	h.writeHistory(w, r, uid)
}

func (h *Handlers) writeHistory(w http.ResponseWriter, r *http.Request, uid uuid.UUID) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
			return
		}
		limit = v
	}

	notes, err := h.svc.History(r.Context(), uid, limit)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := make([]historyNoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, historyNoteResponse{
			ID:          n.ID.String(),
			Action:      n.Action,
			Fingerprint: n.Fingerprint,
			OccurredAt:  n.OccurredAt,
		})
	}

	writeJSON(w, http.StatusOK, out)
}
