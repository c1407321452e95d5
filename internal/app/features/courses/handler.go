// Package courses provides the course catalog API: public published reads,
// enrollment, and admin CRUD including nested module management.
package courses

import (
	"errors"
	"net/http"
	"strconv"
	"time"

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

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler provides course API handlers.
type Handler struct {
	courses    *coursestore.Store
	lessons    *lessonstore.Store
	sessionMgr *auth.SessionManager
	audit      *auditlog.Logger
	logger     *zap.Logger
}

// NewHandler creates a new courses Handler.
func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		courses:    coursestore.New(db),
		lessons:    lessonstore.New(db),
		sessionMgr: sessionMgr,
		audit:      audit,
		logger:     logger,
	}
}

func pageParams(r *http.Request) (limit, page int64) {
	limit = defaultPageSize
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page = 1
	if v, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64); err == nil && v > 0 {
		page = v
	}
	return limit, page
}

func urlID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		jsonutil.NotFound(w, "not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

// lessonSummary is the lesson shape embedded in course detail responses.
// Lesson content is only served by the lessons endpoints, which enforce
// access control.
type lessonSummary struct {
	ID          primitive.ObjectID `json:"id"`
	ModuleID    primitive.ObjectID `json:"module_id"`
	Title       string             `json:"title"`
	Order       int                `json:"order"`
	DurationSec int                `json:"duration_sec,omitempty"`
	FreePreview bool               `json:"free_preview"`
}

func toLessonSummaries(lessons []models.Lesson) []lessonSummary {
	out := make([]lessonSummary, len(lessons))
	for i, l := range lessons {
		out[i] = lessonSummary{
			ID:          l.ID,
			ModuleID:    l.ModuleID,
			Title:       l.Title,
			Order:       l.Order,
			DurationSec: l.DurationSec,
			FreePreview: l.FreePreview,
		}
	}
	return out
}

/*─────────────────────────────────────────────────────────────────────────────*
| Public handlers                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// listPublished handles GET /api/courses.
func (h *Handler) listPublished(w http.ResponseWriter, r *http.Request) {
	limit, page := pageParams(r)

	courses, err := h.courses.ListPublished(r.Context(), limit, page)
	if err != nil {
		h.logger.Error("failed to list courses", zap.Error(err))
		jsonutil.InternalError(w, "failed to list courses")
		return
	}
	total, err := h.courses.CountPublished(r.Context())
	if err != nil {
		h.logger.Error("failed to count courses", zap.Error(err))
		jsonutil.InternalError(w, "failed to list courses")
		return
	}

	jsonutil.OK(w, map[string]any{
		"courses": courses,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// getBySlug handles GET /api/courses/{slug}, returning the published course
// with its modules and lesson summaries.
func (h *Handler) getBySlug(w http.ResponseWriter, r *http.Request) {
	course, err := h.courses.GetPublishedBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "course not found")
			return
		}
		h.logger.Error("failed to load course", zap.Error(err))
		jsonutil.InternalError(w, "failed to load course")
		return
	}

	lessons, err := h.lessons.ListByCourse(r.Context(), course.ID)
	if err != nil {
		h.logger.Error("failed to list course lessons", zap.Error(err))
		jsonutil.InternalError(w, "failed to load course")
		return
	}

	jsonutil.OK(w, map[string]any{
		"course":  course,
		"lessons": toLessonSummaries(lessons),
	})
}

// enroll handles POST /api/courses/{id}/enroll.
//
// Free courses are open to any signed-in user; paid and members-only courses
// require an active membership. Enrollment is recorded once per user and the
// course's enrollment counter moves atomically with it.
func (h *Handler) enroll(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "unauthorized")
		return
	}

	courseID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	course, err := h.courses.GetByID(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "course not found")
			return
		}
		h.logger.Error("failed to load course", zap.Error(err))
		jsonutil.InternalError(w, "failed to enroll")
		return
	}
	if course.Status != "published" {
		jsonutil.NotFound(w, "course not found")
		return
	}

	if course.AccessType != models.AccessFree && !u.MembershipActive {
		jsonutil.Forbidden(w, "an active membership is required for this course")
		return
	}

	if err := h.courses.Enroll(r.Context(), courseID, u.UserID()); err != nil {
		if errors.Is(err, coursestore.ErrAlreadyEnrolled) {
			jsonutil.Conflict(w, "already enrolled")
			return
		}
		h.logger.Error("failed to enroll", zap.Error(err))
		jsonutil.InternalError(w, "failed to enroll")
		return
	}

	jsonutil.Created(w, map[string]any{
		"course_id":   courseID.Hex(),
		"enrolled_at": time.Now().UTC(),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin handlers                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// adminCreate handles POST /api/admin/courses.
func (h *Handler) adminCreate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title       string `json:"title"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
		CoverPath   string `json:"cover_path"`
		AccessType  string `json:"access_type"`
		PriceCents  int64  `json:"price_cents"`
		Status      string `json:"status"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	fields := map[string]string{}
	if in.Title == "" {
		fields["title"] = "required"
	}
	if in.Slug == "" {
		fields["slug"] = "required"
	}
	if !models.IsValidAccessType(in.AccessType) {
		fields["access_type"] = "must be free, paid, or members"
	}
	if in.Status == "" {
		in.Status = "draft"
	} else if !models.IsValidContentStatus(in.Status) {
		fields["status"] = "must be draft, published, or archived"
	}
	if len(fields) > 0 {
		jsonutil.ValidationError(w, fields)
		return
	}

	course, err := h.courses.Create(r.Context(), coursestore.CreateInput{
		Title:       in.Title,
		Slug:        in.Slug,
		Description: htmlsanitize.Sanitize(in.Description),
		CoverPath:   in.CoverPath,
		AccessType:  in.AccessType,
		PriceCents:  in.PriceCents,
		Status:      in.Status,
	})
	if err != nil {
		if errors.Is(err, coursestore.ErrDuplicateSlug) {
			jsonutil.Conflict(w, "slug already in use")
			return
		}
		h.logger.Error("failed to create course", zap.Error(err))
		jsonutil.InternalError(w, "failed to create course")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentCreated(r.Context(), r, actor.UserID(), "course", course.Slug)
	}
	jsonutil.Created(w, course)
}

// adminList handles GET /api/admin/courses.
func (h *Handler) adminList(w http.ResponseWriter, r *http.Request) {
	limit, page := pageParams(r)

	courses, err := h.courses.ListAll(r.Context(), limit, page)
	if err != nil {
		h.logger.Error("failed to list courses", zap.Error(err))
		jsonutil.InternalError(w, "failed to list courses")
		return
	}
	total, err := h.courses.CountAll(r.Context())
	if err != nil {
		h.logger.Error("failed to count courses", zap.Error(err))
		jsonutil.InternalError(w, "failed to list courses")
		return
	}

	jsonutil.OK(w, map[string]any{
		"courses": courses,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// adminGet handles GET /api/admin/courses/{id}.
func (h *Handler) adminGet(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	course, err := h.courses.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "course not found")
			return
		}
		h.logger.Error("failed to load course", zap.Error(err))
		jsonutil.InternalError(w, "failed to load course")
		return
	}

	lessons, err := h.lessons.ListByCourse(r.Context(), course.ID)
	if err != nil {
		h.logger.Error("failed to list course lessons", zap.Error(err))
		jsonutil.InternalError(w, "failed to load course")
		return
	}

	jsonutil.OK(w, map[string]any{
		"course":  course,
		"lessons": toLessonSummaries(lessons),
	})
}

// adminUpdate handles PUT /api/admin/courses/{id}.
func (h *Handler) adminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var in struct {
		Title       *string `json:"title"`
		Slug        *string `json:"slug"`
		Description *string `json:"description"`
		CoverPath   *string `json:"cover_path"`
		AccessType  *string `json:"access_type"`
		PriceCents  *int64  `json:"price_cents"`
		Status      *string `json:"status"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.AccessType != nil && !models.IsValidAccessType(*in.AccessType) {
		jsonutil.ValidationError(w, map[string]string{"access_type": "must be free, paid, or members"})
		return
	}
	if in.Status != nil && !models.IsValidContentStatus(*in.Status) {
		jsonutil.ValidationError(w, map[string]string{"status": "must be draft, published, or archived"})
		return
	}
	if in.Description != nil {
		clean := htmlsanitize.Sanitize(*in.Description)
		in.Description = &clean
	}

	err := h.courses.Update(r.Context(), id, coursestore.UpdateInput{
		Title:       in.Title,
		Slug:        in.Slug,
		Description: in.Description,
		CoverPath:   in.CoverPath,
		AccessType:  in.AccessType,
		PriceCents:  in.PriceCents,
		Status:      in.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, coursestore.ErrDuplicateSlug):
			jsonutil.Conflict(w, "slug already in use")
		case errors.Is(err, mongo.ErrNoDocuments):
			jsonutil.NotFound(w, "course not found")
		default:
			h.logger.Error("failed to update course", zap.Error(err))
			jsonutil.InternalError(w, "failed to update course")
		}
		return
	}

	course, err := h.courses.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to reload course", zap.Error(err))
		jsonutil.InternalError(w, "failed to update course")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentUpdated(r.Context(), r, actor.UserID(), "course", course.Slug)
	}
	jsonutil.OK(w, course)
}

// adminDelete handles DELETE /api/admin/courses/{id}. Deleting a course also
// deletes its lessons, their completion records, and its enrollments.
func (h *Handler) adminDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	course, err := h.courses.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "course not found")
			return
		}
		h.logger.Error("failed to load course", zap.Error(err))
		jsonutil.InternalError(w, "failed to delete course")
		return
	}

	deleted, err := h.courses.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete course", zap.Error(err))
		jsonutil.InternalError(w, "failed to delete course")
		return
	}
	if deleted == 0 {
		jsonutil.NotFound(w, "course not found")
		return
	}

	if _, err := h.lessons.DeleteByCourse(r.Context(), id); err != nil {
		h.logger.Error("failed to delete course lessons",
			zap.String("course_id", id.Hex()),
			zap.Error(err))
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentDeleted(r.Context(), r, actor.UserID(), "course", course.Slug)
	}
	jsonutil.NoContent(w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin module handlers                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// adminAddModule handles POST /api/admin/courses/{id}/modules.
func (h *Handler) adminAddModule(w http.ResponseWriter, r *http.Request) {
	courseID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var in struct {
		Title string `json:"title"`
		Order int    `json:"order"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.Title == "" {
		jsonutil.ValidationError(w, map[string]string{"title": "required"})
		return
	}

	module, err := h.courses.AddModule(r.Context(), courseID, in.Title, in.Order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "course not found")
			return
		}
		h.logger.Error("failed to add module", zap.Error(err))
		jsonutil.InternalError(w, "failed to add module")
		return
	}

	jsonutil.Created(w, module)
}

// adminUpdateModule handles PUT /api/admin/courses/{id}/modules/{moduleID}.
func (h *Handler) adminUpdateModule(w http.ResponseWriter, r *http.Request) {
	courseID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	moduleID, ok := urlID(w, r, "moduleID")
	if !ok {
		return
	}

	var in struct {
		Title string `json:"title"`
		Order int    `json:"order"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.Title == "" {
		jsonutil.ValidationError(w, map[string]string{"title": "required"})
		return
	}

	err := h.courses.UpdateModule(r.Context(), courseID, moduleID, in.Title, in.Order)
	if err != nil {
		if errors.Is(err, coursestore.ErrModuleNotFound) {
			jsonutil.NotFound(w, "module not found")
			return
		}
		h.logger.Error("failed to update module", zap.Error(err))
		jsonutil.InternalError(w, "failed to update module")
		return
	}

	jsonutil.OK(w, map[string]string{"message": "module updated"})
}

// adminRemoveModule handles DELETE /api/admin/courses/{id}/modules/{moduleID}.
func (h *Handler) adminRemoveModule(w http.ResponseWriter, r *http.Request) {
	courseID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	moduleID, ok := urlID(w, r, "moduleID")
	if !ok {
		return
	}

	if err := h.courses.RemoveModule(r.Context(), courseID, moduleID); err != nil {
		if errors.Is(err, coursestore.ErrModuleNotFound) {
			jsonutil.NotFound(w, "module not found")
			return
		}
		h.logger.Error("failed to remove module", zap.Error(err))
		jsonutil.InternalError(w, "failed to remove module")
		return
	}

	jsonutil.NoContent(w)
}
