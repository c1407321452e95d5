// Package lessons provides the lesson API: gated content reads with view
// counting, per-user completion, and admin CRUD.
package lessons

import (
	"errors"
	"net/http"

	coursestore "github.com/wellspringhq/wellspring/internal/app/store/courses"
	lessonstore "github.com/wellspringhq/wellspring/internal/app/store/lessons"
	"github.com/wellspringhq/wellspring/internal/app/system/auditlog"
	"github.com/wellspringhq/wellspring/internal/app/system/auth"
	"github.com/wellspringhq/wellspring/internal/app/system/htmlsanitize"
	"github.com/wellspringhq/wellspring/internal/app/system/jsonutil"
	"github.com/wellspringhq/wellspring/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides lesson API handlers.
type Handler struct {
	lessons    *lessonstore.Store
	courses    *coursestore.Store
	sessionMgr *auth.SessionManager
	audit      *auditlog.Logger
	logger     *zap.Logger
}

// NewHandler creates a new lessons Handler.
func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		lessons:    lessonstore.New(db),
		courses:    coursestore.New(db),
		sessionMgr: sessionMgr,
		audit:      audit,
		logger:     logger,
	}
}

func urlID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		jsonutil.NotFound(w, "not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

// canRead reports whether the requester may read the lesson's content.
// Free-preview lessons and lessons of free courses are open to everyone;
// paid and members-only courses require an active membership. Admins can
// always read.
func canRead(lesson *models.Lesson, course *models.Course, u *auth.SessionUser) bool {
	if lesson.FreePreview {
		return true
	}
	if course.AccessType == models.AccessFree {
		return true
	}
	if u == nil {
		return false
	}
	return u.Role == models.RoleAdmin || u.MembershipActive
}

/*─────────────────────────────────────────────────────────────────────────────*
| Public handlers                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// get handles GET /api/lessons/{id}. The view counter moves atomically with
// the read, and only after access is granted.
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	lesson, err := h.lessons.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "lesson not found")
			return
		}
		h.logger.Error("failed to load lesson", zap.Error(err))
		jsonutil.InternalError(w, "failed to load lesson")
		return
	}

	course, err := h.courses.GetByID(r.Context(), lesson.CourseID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "lesson not found")
			return
		}
		h.logger.Error("failed to load lesson course", zap.Error(err))
		jsonutil.InternalError(w, "failed to load lesson")
		return
	}

	var user *auth.SessionUser
	if u, ok := auth.CurrentUser(r); ok {
		user = u
	}
	if course.Status != "published" && (user == nil || user.Role != models.RoleAdmin) {
		jsonutil.NotFound(w, "lesson not found")
		return
	}
	if !canRead(lesson, course, user) {
		if user == nil {
			jsonutil.Unauthorized(w, "sign in to view this lesson")
			return
		}
		jsonutil.Forbidden(w, "an active membership is required for this lesson")
		return
	}

	counted, err := h.lessons.GetByIDAndCountView(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to count lesson view", zap.Error(err))
		jsonutil.InternalError(w, "failed to load lesson")
		return
	}

	jsonutil.OK(w, counted)
}

// complete handles POST /api/lessons/{id}/complete. Completion is idempotent
// per user; the completion counter moves only on the first call.
func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "unauthorized")
		return
	}

	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.lessons.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "lesson not found")
			return
		}
		h.logger.Error("failed to load lesson", zap.Error(err))
		jsonutil.InternalError(w, "failed to record completion")
		return
	}

	first, err := h.lessons.MarkComplete(r.Context(), id, u.UserID())
	if err != nil {
		h.logger.Error("failed to record completion", zap.Error(err))
		jsonutil.InternalError(w, "failed to record completion")
		return
	}

	jsonutil.OK(w, map[string]any{
		"completed":         true,
		"already_completed": !first,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin handlers                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// adminCreate handles POST /api/admin/lessons. The referenced course and
// module must both exist.
func (h *Handler) adminCreate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CourseID    string `json:"course_id"`
		ModuleID    string `json:"module_id"`
		Title       string `json:"title"`
		Order       int    `json:"order"`
		Content     string `json:"content"`
		DurationSec int    `json:"duration_sec"`
		FreePreview bool   `json:"free_preview"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	fields := map[string]string{}
	courseID, err := primitive.ObjectIDFromHex(in.CourseID)
	if err != nil {
		fields["course_id"] = "invalid id"
	}
	moduleID, err := primitive.ObjectIDFromHex(in.ModuleID)
	if err != nil {
		fields["module_id"] = "invalid id"
	}
	if in.Title == "" {
		fields["title"] = "required"
	}
	if len(fields) > 0 {
		jsonutil.ValidationError(w, fields)
		return
	}

	course, err := h.courses.GetByID(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.ValidationError(w, map[string]string{"course_id": "course does not exist"})
			return
		}
		h.logger.Error("failed to load course", zap.Error(err))
		jsonutil.InternalError(w, "failed to create lesson")
		return
	}
	if _, ok := course.ModuleByID(moduleID); !ok {
		jsonutil.ValidationError(w, map[string]string{"module_id": "module does not exist on this course"})
		return
	}

	lesson, err := h.lessons.Create(r.Context(), lessonstore.CreateInput{
		CourseID:    courseID,
		ModuleID:    moduleID,
		Title:       in.Title,
		Order:       in.Order,
		Content:     htmlsanitize.Sanitize(in.Content),
		DurationSec: in.DurationSec,
		FreePreview: in.FreePreview,
	})
	if err != nil {
		h.logger.Error("failed to create lesson", zap.Error(err))
		jsonutil.InternalError(w, "failed to create lesson")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentCreated(r.Context(), r, actor.UserID(), "lesson", lesson.ID.Hex())
	}
	jsonutil.Created(w, lesson)
}

// adminList handles GET /api/admin/lessons?course_id=... ordered by module
// and lesson order.
func (h *Handler) adminList(w http.ResponseWriter, r *http.Request) {
	courseID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("course_id"))
	if err != nil {
		jsonutil.BadRequest(w, "course_id query parameter is required")
		return
	}

	lessons, err := h.lessons.ListByCourse(r.Context(), courseID)
	if err != nil {
		h.logger.Error("failed to list lessons", zap.Error(err))
		jsonutil.InternalError(w, "failed to list lessons")
		return
	}

	jsonutil.OK(w, map[string]any{"lessons": lessons})
}

// adminGet handles GET /api/admin/lessons/{id} without counting a view.
func (h *Handler) adminGet(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	lesson, err := h.lessons.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "lesson not found")
			return
		}
		h.logger.Error("failed to load lesson", zap.Error(err))
		jsonutil.InternalError(w, "failed to load lesson")
		return
	}
	jsonutil.OK(w, lesson)
}

// adminUpdate handles PUT /api/admin/lessons/{id}. A module change is
// validated against the lesson's course.
func (h *Handler) adminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var in struct {
		ModuleID    *string `json:"module_id"`
		Title       *string `json:"title"`
		Order       *int    `json:"order"`
		Content     *string `json:"content"`
		DurationSec *int    `json:"duration_sec"`
		FreePreview *bool   `json:"free_preview"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	lesson, err := h.lessons.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "lesson not found")
			return
		}
		h.logger.Error("failed to load lesson", zap.Error(err))
		jsonutil.InternalError(w, "failed to update lesson")
		return
	}

	input := lessonstore.UpdateInput{
		Title:       in.Title,
		Order:       in.Order,
		DurationSec: in.DurationSec,
		FreePreview: in.FreePreview,
	}
	if in.Content != nil {
		clean := htmlsanitize.Sanitize(*in.Content)
		input.Content = &clean
	}
	if in.ModuleID != nil {
		moduleID, err := primitive.ObjectIDFromHex(*in.ModuleID)
		if err != nil {
			jsonutil.ValidationError(w, map[string]string{"module_id": "invalid id"})
			return
		}
		course, err := h.courses.GetByID(r.Context(), lesson.CourseID)
		if err != nil {
			h.logger.Error("failed to load lesson course", zap.Error(err))
			jsonutil.InternalError(w, "failed to update lesson")
			return
		}
		if _, ok := course.ModuleByID(moduleID); !ok {
			jsonutil.ValidationError(w, map[string]string{"module_id": "module does not exist on this course"})
			return
		}
		input.ModuleID = &moduleID
	}

	if err := h.lessons.Update(r.Context(), id, input); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "lesson not found")
			return
		}
		h.logger.Error("failed to update lesson", zap.Error(err))
		jsonutil.InternalError(w, "failed to update lesson")
		return
	}

	updated, err := h.lessons.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to reload lesson", zap.Error(err))
		jsonutil.InternalError(w, "failed to update lesson")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentUpdated(r.Context(), r, actor.UserID(), "lesson", updated.ID.Hex())
	}
	jsonutil.OK(w, updated)
}

// adminDelete handles DELETE /api/admin/lessons/{id}, removing the lesson
// and its completion records.
func (h *Handler) adminDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	deleted, err := h.lessons.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete lesson", zap.Error(err))
		jsonutil.InternalError(w, "failed to delete lesson")
		return
	}
	if deleted == 0 {
		jsonutil.NotFound(w, "lesson not found")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentDeleted(r.Context(), r, actor.UserID(), "lesson", id.Hex())
	}
	jsonutil.NoContent(w)
}
