// Package uploads provides the admin upload API for images and documents
// referenced by content (blog covers, course covers, event images, catalog
// photos).
package uploads

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/wellspringhq/wellspring/internal/app/system/auditlog"
	"github.com/wellspringhq/wellspring/internal/app/system/auth"
	"github.com/wellspringhq/wellspring/internal/app/system/jsonutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxUploadSize = 32 << 20 // 32MB

// uploadPrefix namespaces stored objects so delete requests can only touch
// files created through this API.
const uploadPrefix = "uploads/"

// Handler provides upload handlers backed by object storage.
type Handler struct {
	fileStorage storage.Store
	audit       *auditlog.Logger
	logger      *zap.Logger
}

// NewHandler creates a new uploads Handler.
func NewHandler(fileStorage storage.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		fileStorage: fileStorage,
		audit:       audit,
		logger:      logger,
	}
}

// upload handles POST /api/admin/uploads. Expects a multipart form with a
// "file" field and stores the object under uploads/YYYY/MM/.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonutil.BadRequest(w, "file too large (max 32MB)")
		return
	}

	uploadedFile, header, err := r.FormFile("file")
	if err != nil {
		jsonutil.ValidationError(w, map[string]string{"file": "required"})
		return
	}
	defer uploadedFile.Close()

	now := time.Now().UTC()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	uniqueName := uuid.New().String()[:8] + ext
	storagePath := fmt.Sprintf("%s%04d/%02d/%s", uploadPrefix, now.Year(), int(now.Month()), uniqueName)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	opts := &storage.PutOptions{ContentType: contentType}
	if err := h.fileStorage.Put(r.Context(), storagePath, uploadedFile, opts); err != nil {
		h.logger.Error("failed to store upload", zap.Error(err))
		jsonutil.InternalError(w, "failed to store upload")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentCreated(r.Context(), r, actor.UserID(), "upload", storagePath)
	}

	jsonutil.Created(w, map[string]any{
		"path":         storagePath,
		"url":          h.fileStorage.URL(storagePath),
		"name":         header.Filename,
		"size":         header.Size,
		"content_type": contentType,
	})
}

// remove handles DELETE /api/admin/uploads. The path must point inside the
// uploads namespace.
func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Path string `json:"path"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if !strings.HasPrefix(in.Path, uploadPrefix) || strings.Contains(in.Path, "..") {
		jsonutil.ValidationError(w, map[string]string{"path": "must be an uploads/ path"})
		return
	}

	if err := h.fileStorage.Delete(r.Context(), in.Path); err != nil {
		h.logger.Error("failed to delete upload",
			zap.String("path", in.Path), zap.Error(err))
		jsonutil.InternalError(w, "failed to delete upload")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentDeleted(r.Context(), r, actor.UserID(), "upload", in.Path)
	}
	jsonutil.NoContent(w)
}
