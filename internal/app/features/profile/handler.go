// Package profile provides the current-user endpoints under /api/me.
package profile

import (
	"errors"
	"net/http"
	"strings"
	"time"

	userstore "github.com/wellspringhq/wellspring/internal/app/store/users"
	"github.com/wellspringhq/wellspring/internal/app/system/auditlog"
	"github.com/wellspringhq/wellspring/internal/app/system/auth"
	"github.com/wellspringhq/wellspring/internal/app/system/authutil"
	"github.com/wellspringhq/wellspring/internal/app/system/inputval"
	"github.com/wellspringhq/wellspring/internal/app/system/jsonutil"
	"github.com/wellspringhq/wellspring/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides profile handlers for the signed-in user.
type Handler struct {
	users      *userstore.Store
	sessionMgr *auth.SessionManager
	audit      *auditlog.Logger
	logger     *zap.Logger
}

// NewHandler creates a new profile Handler.
func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		users:      userstore.New(db),
		sessionMgr: sessionMgr,
		audit:      audit,
		logger:     logger,
	}
}

// profilePayload is the JSON shape for the current user, including live
// membership fields evaluated at request time.
type profilePayload struct {
	ID               string             `json:"id"`
	FullName         string             `json:"full_name"`
	Email            string             `json:"email"`
	Role             string             `json:"role"`
	AuthMethod       string             `json:"auth_method"`
	MembershipActive bool               `json:"membership_active"`
	Membership       *models.Membership `json:"membership,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

func toProfilePayload(u *models.User) profilePayload {
	return profilePayload{
		ID:               u.ID.Hex(),
		FullName:         u.FullName,
		Email:            u.Email,
		Role:             u.Role,
		AuthMethod:       u.AuthMethod,
		MembershipActive: u.Membership.IsActive(time.Now()),
		Membership:       u.Membership,
		CreatedAt:        u.CreatedAt,
	}
}

// currentDBUser loads the signed-in user's full record. Writes the error
// response and returns nil when the user cannot be loaded.
func (h *Handler) currentDBUser(w http.ResponseWriter, r *http.Request) *models.User {
	su, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "unauthorized")
		return nil
	}

	u, err := h.users.GetByID(r.Context(), su.UserID())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.Unauthorized(w, "unauthorized")
			return nil
		}
		h.logger.Error("failed to load current user", zap.String("user_id", su.ID), zap.Error(err))
		jsonutil.InternalError(w, "failed to load profile")
		return nil
	}
	return u
}

// getMe handles GET /api/me.
func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	u := h.currentDBUser(w, r)
	if u == nil {
		return
	}
	jsonutil.OK(w, toProfilePayload(u))
}

// updateMe handles PUT /api/me.
//
// Request body:
//
//	{ "full_name": "Ada Teale", "email": "ada@example.com" }
//
// Either field may be omitted to leave it unchanged. Responds 409 when the
// new email belongs to another account.
func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	u := h.currentDBUser(w, r)
	if u == nil {
		return
	}

	var in struct {
		FullName *string `json:"full_name"`
		Email    *string `json:"email"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	fields := map[string]string{}
	if in.FullName != nil && strings.TrimSpace(*in.FullName) == "" {
		fields["full_name"] = "cannot be empty"
	}
	if in.Email != nil && !inputval.IsValidEmail(*in.Email) {
		fields["email"] = "invalid email address"
	}
	if len(fields) > 0 {
		jsonutil.ValidationError(w, fields)
		return
	}

	err := h.users.UpdateFromInput(r.Context(), u.ID, userstore.UpdateInput{
		FullName: in.FullName,
		Email:    in.Email,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			jsonutil.Conflict(w, "email already in use")
			return
		}
		h.logger.Error("failed to update profile", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to update profile")
		return
	}

	updated, err := h.users.GetByID(r.Context(), u.ID)
	if err != nil {
		h.logger.Error("failed to reload profile", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to update profile")
		return
	}

	jsonutil.OK(w, toProfilePayload(updated))
}

// changePassword handles POST /api/me/password.
//
// Request body:
//
//	{ "current_password": "...", "new_password": "..." }
func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	u := h.currentDBUser(w, r)
	if u == nil {
		return
	}

	var in struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	if u.PasswordHash == nil {
		jsonutil.BadRequest(w, "this account does not use password sign-in")
		return
	}
	if !authutil.CheckPassword(in.CurrentPassword, *u.PasswordHash) {
		jsonutil.Unauthorized(w, "current password is incorrect")
		return
	}
	if err := authutil.ValidatePassword(in.NewPassword); err != nil {
		jsonutil.ValidationError(w, map[string]string{"new_password": err.Error()})
		return
	}

	hash, err := authutil.HashPassword(in.NewPassword)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		jsonutil.InternalError(w, "failed to change password")
		return
	}
	if err := h.users.UpdatePassword(r.Context(), u.ID, hash); err != nil {
		h.logger.Error("failed to update password", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to change password")
		return
	}

	h.audit.PasswordChanged(r.Context(), r, u.ID)
	jsonutil.OK(w, map[string]string{"message": "password updated"})
}
