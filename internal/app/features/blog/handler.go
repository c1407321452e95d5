// Package blog provides the blog post API: public published reads and admin
// CRUD. Post slugs are not unique; the public slug lookup resolves to the
// most recently published match.
package blog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/storage"
	blogstore "github.com/wellspringhq/wellspring/internal/app/store/blog"
	"github.com/wellspringhq/wellspring/internal/app/system/auditlog"
	"github.com/wellspringhq/wellspring/internal/app/system/auth"
	"github.com/wellspringhq/wellspring/internal/app/system/htmlsanitize"
	"github.com/wellspringhq/wellspring/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler provides blog API handlers.
type Handler struct {
	posts       *blogstore.Store
	fileStorage storage.Store
	audit       *auditlog.Logger
	logger      *zap.Logger
}

// NewHandler creates a new blog Handler.
func NewHandler(db *mongo.Database, fileStorage storage.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		posts:       blogstore.New(db),
		fileStorage: fileStorage,
		audit:       audit,
		logger:      logger,
	}
}

// pageParams reads limit and page query parameters with sane bounds.
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

// idParam parses the {id} URL parameter. Writes a 404 and returns false on a
// malformed ID, which is indistinguishable from a missing document.
func idParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, "not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| Public handlers                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// listPublished handles GET /api/blog.
//
// Query parameters: tag (exact match), page, limit.
func (h *Handler) listPublished(w http.ResponseWriter, r *http.Request) {
	limit, page := pageParams(r)
	tag := r.URL.Query().Get("tag")

	posts, err := h.posts.ListPublished(r.Context(), tag, limit, page)
	if err != nil {
		h.logger.Error("failed to list blog posts", zap.Error(err))
		jsonutil.InternalError(w, "failed to list posts")
		return
	}
	total, err := h.posts.CountPublished(r.Context(), tag)
	if err != nil {
		h.logger.Error("failed to count blog posts", zap.Error(err))
		jsonutil.InternalError(w, "failed to list posts")
		return
	}

	jsonutil.OK(w, map[string]any{
		"posts": posts,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// getBySlug handles GET /api/blog/{slug}. Only published posts are visible;
// when several posts share the slug the newest published one wins.
func (h *Handler) getBySlug(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetPublishedBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "post not found")
			return
		}
		h.logger.Error("failed to load blog post", zap.Error(err))
		jsonutil.InternalError(w, "failed to load post")
		return
	}
	jsonutil.OK(w, post)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin handlers                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

type postInput struct {
	Title      string   `json:"title"`
	Slug       string   `json:"slug"`
	Author     string   `json:"author"`
	Summary    string   `json:"summary"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	ImagePaths []string `json:"image_paths"`
	Status     string   `json:"status"`
}

func validStatus(s string) bool {
	return s == "draft" || s == "published" || s == "archived"
}

// adminCreate handles POST /api/admin/blog. Slug uniqueness is deliberately
// not checked here.
func (h *Handler) adminCreate(w http.ResponseWriter, r *http.Request) {
	var in postInput
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
	if !validStatus(in.Status) {
		fields["status"] = "must be draft, published, or archived"
	}
	if len(fields) > 0 {
		jsonutil.ValidationError(w, fields)
		return
	}

	post, err := h.posts.Create(r.Context(), blogstore.CreateInput{
		Title:      in.Title,
		Slug:       in.Slug,
		Author:     in.Author,
		Summary:    in.Summary,
		Content:    htmlsanitize.Sanitize(in.Content),
		Tags:       in.Tags,
		ImagePaths: in.ImagePaths,
		Status:     in.Status,
	})
	if err != nil {
		h.logger.Error("failed to create blog post", zap.Error(err))
		jsonutil.InternalError(w, "failed to create post")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentCreated(r.Context(), r, actor.UserID(), "blog_post", post.Slug)
	}
	jsonutil.Created(w, post)
}

// adminList handles GET /api/admin/blog, listing every status.
func (h *Handler) adminList(w http.ResponseWriter, r *http.Request) {
	limit, page := pageParams(r)

	posts, err := h.posts.ListAll(r.Context(), limit, page)
	if err != nil {
		h.logger.Error("failed to list blog posts", zap.Error(err))
		jsonutil.InternalError(w, "failed to list posts")
		return
	}
	total, err := h.posts.CountAll(r.Context())
	if err != nil {
		h.logger.Error("failed to count blog posts", zap.Error(err))
		jsonutil.InternalError(w, "failed to list posts")
		return
	}

	jsonutil.OK(w, map[string]any{
		"posts": posts,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// adminGet handles GET /api/admin/blog/{id}.
func (h *Handler) adminGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "post not found")
			return
		}
		h.logger.Error("failed to load blog post", zap.Error(err))
		jsonutil.InternalError(w, "failed to load post")
		return
	}
	jsonutil.OK(w, post)
}

// adminUpdate handles PUT /api/admin/blog/{id}. Omitted fields are left
// unchanged; moving a never-published post to published stamps published_at.
func (h *Handler) adminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var in struct {
		Title      *string   `json:"title"`
		Slug       *string   `json:"slug"`
		Author     *string   `json:"author"`
		Summary    *string   `json:"summary"`
		Content    *string   `json:"content"`
		Tags       *[]string `json:"tags"`
		ImagePaths *[]string `json:"image_paths"`
		Status     *string   `json:"status"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.Status != nil && !validStatus(*in.Status) {
		jsonutil.ValidationError(w, map[string]string{"status": "must be draft, published, or archived"})
		return
	}
	if in.Content != nil {
		clean := htmlsanitize.Sanitize(*in.Content)
		in.Content = &clean
	}

	err := h.posts.Update(r.Context(), id, blogstore.UpdateInput{
		Title:      in.Title,
		Slug:       in.Slug,
		Author:     in.Author,
		Summary:    in.Summary,
		Content:    in.Content,
		Tags:       in.Tags,
		ImagePaths: in.ImagePaths,
		Status:     in.Status,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "post not found")
			return
		}
		h.logger.Error("failed to update blog post", zap.Error(err))
		jsonutil.InternalError(w, "failed to update post")
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to reload blog post", zap.Error(err))
		jsonutil.InternalError(w, "failed to update post")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentUpdated(r.Context(), r, actor.UserID(), "blog_post", post.Slug)
	}
	jsonutil.OK(w, post)
}

// adminDelete handles DELETE /api/admin/blog/{id}.
//
// The document is removed first; referenced images are then deleted from
// object storage best-effort. A storage failure is logged per image and
// never fails the request.
func (h *Handler) adminDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "post not found")
			return
		}
		h.logger.Error("failed to load blog post", zap.Error(err))
		jsonutil.InternalError(w, "failed to delete post")
		return
	}

	deleted, err := h.posts.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete blog post", zap.Error(err))
		jsonutil.InternalError(w, "failed to delete post")
		return
	}
	if deleted == 0 {
		jsonutil.NotFound(w, "post not found")
		return
	}

	for _, path := range post.ImagePaths {
		if err := h.fileStorage.Delete(r.Context(), path); err != nil {
			h.logger.Warn("failed to delete blog image from storage",
				zap.String("path", path),
				zap.String("post_id", id.Hex()),
				zap.Error(err))
		}
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentDeleted(r.Context(), r, actor.UserID(), "blog_post", post.Slug)
	}
	jsonutil.NoContent(w)
}
