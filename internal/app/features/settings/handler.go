// Package settings provides the site settings API. The public endpoint
// exposes the site name and logo for rendering; the admin endpoints manage
// the full singleton settings document including the logo upload.
package settings

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	settingsstore "github.com/wellspringhq/wellspring/internal/app/store/settings"
	"github.com/wellspringhq/wellspring/internal/app/system/auditlog"
	"github.com/wellspringhq/wellspring/internal/app/system/auth"
	"github.com/wellspringhq/wellspring/internal/app/system/jsonutil"
	"github.com/wellspringhq/wellspring/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const maxLogoSize = 10 << 20 // 10MB

// Handler provides site settings handlers.
type Handler struct {
	settings    *settingsstore.Store
	fileStorage storage.Store
	audit       *auditlog.Logger
	logger      *zap.Logger
}

// NewHandler creates a new settings Handler.
func NewHandler(db *mongo.Database, fileStorage storage.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		settings:    settingsstore.New(db),
		fileStorage: fileStorage,
		audit:       audit,
		logger:      logger,
	}
}

// getPublic handles GET /api/settings. It returns the subset of settings
// the public site needs to render.
func (h *Handler) getPublic(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to load site settings", zap.Error(err))
		jsonutil.InternalError(w, "failed to load settings")
		return
	}

	var logoURL string
	if settings.HasLogo() {
		logoURL = h.fileStorage.URL(settings.LogoPath)
	}

	jsonutil.OK(w, map[string]any{
		"site_name": settings.SiteName,
		"logo_url":  logoURL,
	})
}

// adminGet handles GET /api/admin/settings and returns the full document.
func (h *Handler) adminGet(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to load site settings", zap.Error(err))
		jsonutil.InternalError(w, "failed to load settings")
		return
	}

	var logoURL string
	if settings.HasLogo() {
		logoURL = h.fileStorage.URL(settings.LogoPath)
	}

	jsonutil.OK(w, map[string]any{
		"settings": settings,
		"logo_url": logoURL,
	})
}

// adminUpdate handles PUT /api/admin/settings. The logo is managed through
// its own upload endpoint, so the current logo fields are carried forward.
func (h *Handler) adminUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}

	var in struct {
		SiteName             string `json:"site_name"`
		ContactEmail         string `json:"contact_email"`
		RequireLoginOTP      bool   `json:"require_login_otp"`
		NotifyUserOnRegister bool   `json:"notify_user_on_register"`
		NotifyUserOnRenewal  bool   `json:"notify_user_on_renewal"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	in.SiteName = strings.TrimSpace(in.SiteName)
	if in.SiteName == "" {
		jsonutil.ValidationError(w, map[string]string{"site_name": "required"})
		return
	}

	current, err := h.settings.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to load site settings", zap.Error(err))
		jsonutil.InternalError(w, "failed to load settings")
		return
	}

	actorID := actor.UserID()
	input := settingsstore.UpdateInput{
		SiteName:             in.SiteName,
		ContactEmail:         strings.TrimSpace(in.ContactEmail),
		LogoPath:             current.LogoPath,
		LogoName:             current.LogoName,
		RequireLoginOTP:      in.RequireLoginOTP,
		NotifyUserOnRegister: in.NotifyUserOnRegister,
		NotifyUserOnRenewal:  in.NotifyUserOnRenewal,
		UpdatedByID:          &actorID,
		UpdatedByName:        actor.Name,
	}
	if err := h.settings.Upsert(r.Context(), input); err != nil {
		h.logger.Error("failed to save site settings", zap.Error(err))
		jsonutil.InternalError(w, "failed to save settings")
		return
	}

	h.audit.SettingsUpdated(r.Context(), r, actorID, changedFields(current, input))

	updated, err := h.settings.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to reload site settings", zap.Error(err))
		jsonutil.InternalError(w, "failed to load settings")
		return
	}
	jsonutil.OK(w, map[string]any{"settings": updated})
}

// uploadLogo handles POST /api/admin/settings/logo. It stores the new logo,
// removes the previous one, and updates the settings document.
func (h *Handler) uploadLogo(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}

	if err := r.ParseMultipartForm(maxLogoSize); err != nil {
		jsonutil.BadRequest(w, "file too large (max 10MB)")
		return
	}

	logoFile, header, err := r.FormFile("logo")
	if err != nil {
		jsonutil.ValidationError(w, map[string]string{"logo": "required"})
		return
	}
	defer logoFile.Close()

	current, err := h.settings.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to load site settings", zap.Error(err))
		jsonutil.InternalError(w, "failed to load settings")
		return
	}

	now := time.Now().UTC()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	path := fmt.Sprintf("logos/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.New().String()[:8], ext)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	opts := &storage.PutOptions{ContentType: contentType}
	if err := h.fileStorage.Put(r.Context(), path, logoFile, opts); err != nil {
		h.logger.Error("logo upload failed", zap.Error(err))
		jsonutil.InternalError(w, "failed to store logo")
		return
	}

	if current.HasLogo() {
		if err := h.fileStorage.Delete(r.Context(), current.LogoPath); err != nil {
			h.logger.Warn("failed to delete old logo",
				zap.String("path", current.LogoPath), zap.Error(err))
		}
	}

	if err := h.settings.UpdateLogo(r.Context(), path, header.Filename); err != nil {
		h.logger.Error("failed to save logo settings", zap.Error(err))
		jsonutil.InternalError(w, "failed to save settings")
		return
	}

	h.audit.SettingsUpdated(r.Context(), r, actor.UserID(), "logo")

	jsonutil.OK(w, map[string]any{
		"logo_path": path,
		"logo_name": header.Filename,
		"logo_url":  h.fileStorage.URL(path),
	})
}

// removeLogo handles DELETE /api/admin/settings/logo.
func (h *Handler) removeLogo(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}

	current, err := h.settings.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to load site settings", zap.Error(err))
		jsonutil.InternalError(w, "failed to load settings")
		return
	}
	if !current.HasLogo() {
		jsonutil.NotFound(w, "no logo to remove")
		return
	}

	if err := h.fileStorage.Delete(r.Context(), current.LogoPath); err != nil {
		h.logger.Warn("failed to delete logo object",
			zap.String("path", current.LogoPath), zap.Error(err))
	}
	if err := h.settings.UpdateLogo(r.Context(), "", ""); err != nil {
		h.logger.Error("failed to clear logo settings", zap.Error(err))
		jsonutil.InternalError(w, "failed to save settings")
		return
	}

	h.audit.SettingsUpdated(r.Context(), r, actor.UserID(), "logo")
	jsonutil.NoContent(w)
}

// changedFields lists the settings fields that differ between the current
// document and the incoming update, for the audit trail.
func changedFields(current *models.SiteSettings, input settingsstore.UpdateInput) string {
	var changed []string
	if current.SiteName != input.SiteName {
		changed = append(changed, "site_name")
	}
	if current.ContactEmail != input.ContactEmail {
		changed = append(changed, "contact_email")
	}
	if current.RequireLoginOTP != input.RequireLoginOTP {
		changed = append(changed, "require_login_otp")
	}
	if current.NotifyUserOnRegister != input.NotifyUserOnRegister {
		changed = append(changed, "notify_user_on_register")
	}
	if current.NotifyUserOnRenewal != input.NotifyUserOnRenewal {
		changed = append(changed, "notify_user_on_renewal")
	}
	if len(changed) == 0 {
		return "none"
	}
	return strings.Join(changed, ",")
}
