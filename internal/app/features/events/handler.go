// Package events provides the event API: public listings, capacity-guarded
// registration with email confirmation, and admin CRUD.
package events

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	eventstore "github.com/wellspringhq/wellspring/internal/app/store/events"
	settingsstore "github.com/wellspringhq/wellspring/internal/app/store/settings"
	"github.com/wellspringhq/wellspring/internal/app/system/auditlog"
	"github.com/wellspringhq/wellspring/internal/app/system/auth"
	"github.com/wellspringhq/wellspring/internal/app/system/htmlsanitize"
	"github.com/wellspringhq/wellspring/internal/app/system/jsonutil"
	"github.com/wellspringhq/wellspring/internal/app/system/mailer"
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

// Handler provides event API handlers.
type Handler struct {
	events     *eventstore.Store
	settings   *settingsstore.Store
	sessionMgr *auth.SessionManager
	mailer     *mailer.Mailer
	audit      *auditlog.Logger
	logger     *zap.Logger
}

// NewHandler creates a new events Handler.
func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, m *mailer.Mailer, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		events:     eventstore.New(db),
		settings:   settingsstore.New(db),
		sessionMgr: sessionMgr,
		mailer:     m,
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

/*─────────────────────────────────────────────────────────────────────────────*
| Public handlers                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// listUpcoming handles GET /api/events, published events that haven't
// started yet, soonest first.
func (h *Handler) listUpcoming(w http.ResponseWriter, r *http.Request) {
	limit, page := pageParams(r)

	events, err := h.events.ListUpcoming(r.Context(), limit, page)
	if err != nil {
		h.logger.Error("failed to list events", zap.Error(err))
		jsonutil.InternalError(w, "failed to list events")
		return
	}
	total, err := h.events.CountUpcoming(r.Context())
	if err != nil {
		h.logger.Error("failed to count events", zap.Error(err))
		jsonutil.InternalError(w, "failed to list events")
		return
	}

	jsonutil.OK(w, map[string]any{
		"events": events,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// getBySlug handles GET /api/events/{slug} for published events.
func (h *Handler) getBySlug(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetPublishedBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "event not found")
			return
		}
		h.logger.Error("failed to load event", zap.Error(err))
		jsonutil.InternalError(w, "failed to load event")
		return
	}
	jsonutil.OK(w, event)
}

// register handles POST /api/events/{id}/register. Requires a signed-in
// user; the store guards the capacity counter so the event can never
// oversell.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "unauthorized")
		return
	}

	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	event, err := h.events.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "event not found")
			return
		}
		h.logger.Error("failed to load event", zap.Error(err))
		jsonutil.InternalError(w, "failed to register")
		return
	}
	if event.Status != models.ContentPublished {
		jsonutil.NotFound(w, "event not found")
		return
	}
	if time.Now().After(event.StartsAt) {
		jsonutil.Conflict(w, "this event has already started")
		return
	}

	if err := h.events.Register(r.Context(), id, u.UserID()); err != nil {
		switch {
		case errors.Is(err, eventstore.ErrAlreadyRegistered):
			jsonutil.Conflict(w, "already registered for this event")
		case errors.Is(err, eventstore.ErrEventFull):
			jsonutil.Conflict(w, "event is full")
		default:
			h.logger.Error("failed to register for event", zap.Error(err))
			jsonutil.InternalError(w, "failed to register")
		}
		return
	}

	h.sendRegistrationEmail(r, u, event)

	jsonutil.Created(w, map[string]any{
		"event_id":      event.ID,
		"registered_at": time.Now().UTC(),
	})
}

// unregister handles DELETE /api/events/{id}/register.
func (h *Handler) unregister(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "unauthorized")
		return
	}

	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.events.Unregister(r.Context(), id, u.UserID()); err != nil {
		if errors.Is(err, eventstore.ErrNotRegistered) {
			jsonutil.NotFound(w, "not registered for this event")
			return
		}
		h.logger.Error("failed to unregister from event", zap.Error(err))
		jsonutil.InternalError(w, "failed to unregister")
		return
	}

	jsonutil.NoContent(w)
}

func (h *Handler) sendRegistrationEmail(r *http.Request, u *auth.SessionUser, event *models.Event) {
	if !h.mailer.Enabled() {
		h.logger.Info("event registration confirmed (mailer disabled)",
			zap.String("email", u.Email),
			zap.String("event", event.Slug))
		return
	}

	appName := h.mailer.FromName()
	if settings, err := h.settings.Get(r.Context()); err == nil && settings.SiteName != "" {
		appName = settings.SiteName
	}

	text, html := mailer.EventRegistrationEmail(mailer.EventRegistrationEmailData{
		AppName:    appName,
		UserName:   u.Name,
		EventTitle: event.Title,
		StartsAt:   event.StartsAt.Format("Monday, January 2, 2006 at 3:04 PM MST"),
		Location:   event.Location,
	})
	if err := h.mailer.Send(mailer.Email{
		To:       u.Email,
		Subject:  "You're registered for " + event.Title,
		TextBody: text,
		HTMLBody: html,
	}); err != nil {
		h.logger.Warn("failed to send registration email",
			zap.String("email", u.Email), zap.Error(err))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin handlers                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

type eventInput struct {
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	ImagePath   string     `json:"image_path"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	MaxSpots    int64      `json:"max_spots"`
	PriceCents  int64      `json:"price_cents"`
	Status      string     `json:"status"`
}

// adminCreate handles POST /api/admin/events.
func (h *Handler) adminCreate(w http.ResponseWriter, r *http.Request) {
	var in eventInput
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
	if in.StartsAt.IsZero() {
		fields["starts_at"] = "required"
	}
	if in.MaxSpots < 0 {
		fields["max_spots"] = "must not be negative"
	}
	if in.Status == "" {
		in.Status = models.ContentDraft
	}
	if !models.IsValidContentStatus(in.Status) {
		fields["status"] = "must be draft, published, or archived"
	}
	if len(fields) > 0 {
		jsonutil.ValidationError(w, fields)
		return
	}

	event, err := h.events.Create(r.Context(), eventstore.CreateInput{
		Title:       in.Title,
		Slug:        in.Slug,
		Description: htmlsanitize.Sanitize(in.Description),
		Location:    in.Location,
		ImagePath:   in.ImagePath,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		MaxSpots:    in.MaxSpots,
		PriceCents:  in.PriceCents,
		Status:      in.Status,
	})
	if err != nil {
		if errors.Is(err, eventstore.ErrDuplicateSlug) {
			jsonutil.Conflict(w, err.Error())
			return
		}
		h.logger.Error("failed to create event", zap.Error(err))
		jsonutil.InternalError(w, "failed to create event")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentCreated(r.Context(), r, actor.UserID(), "event", event.Slug)
	}
	jsonutil.Created(w, event)
}

// adminList handles GET /api/admin/events, all statuses.
func (h *Handler) adminList(w http.ResponseWriter, r *http.Request) {
	limit, page := pageParams(r)

	events, err := h.events.ListAll(r.Context(), limit, page)
	if err != nil {
		h.logger.Error("failed to list events", zap.Error(err))
		jsonutil.InternalError(w, "failed to list events")
		return
	}

	jsonutil.OK(w, map[string]any{
		"events": events,
		"page":   page,
		"limit":  limit,
	})
}

// adminGet handles GET /api/admin/events/{id}.
func (h *Handler) adminGet(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	event, err := h.events.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "event not found")
			return
		}
		h.logger.Error("failed to load event", zap.Error(err))
		jsonutil.InternalError(w, "failed to load event")
		return
	}
	jsonutil.OK(w, event)
}

// adminUpdate handles PUT /api/admin/events/{id}.
func (h *Handler) adminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var in struct {
		Title       *string    `json:"title"`
		Slug        *string    `json:"slug"`
		Description *string    `json:"description"`
		Location    *string    `json:"location"`
		ImagePath   *string    `json:"image_path"`
		StartsAt    *time.Time `json:"starts_at"`
		EndsAt      *time.Time `json:"ends_at"`
		MaxSpots    *int64     `json:"max_spots"`
		PriceCents  *int64     `json:"price_cents"`
		Status      *string    `json:"status"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.Status != nil && !models.IsValidContentStatus(*in.Status) {
		jsonutil.ValidationError(w, map[string]string{"status": "must be draft, published, or archived"})
		return
	}
	if in.MaxSpots != nil && *in.MaxSpots < 0 {
		jsonutil.ValidationError(w, map[string]string{"max_spots": "must not be negative"})
		return
	}

	if _, err := h.events.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "event not found")
			return
		}
		h.logger.Error("failed to load event", zap.Error(err))
		jsonutil.InternalError(w, "failed to update event")
		return
	}

	input := eventstore.UpdateInput{
		Title:      in.Title,
		Slug:       in.Slug,
		Location:   in.Location,
		ImagePath:  in.ImagePath,
		StartsAt:   in.StartsAt,
		EndsAt:     in.EndsAt,
		MaxSpots:   in.MaxSpots,
		PriceCents: in.PriceCents,
		Status:     in.Status,
	}
	if in.Description != nil {
		clean := htmlsanitize.Sanitize(*in.Description)
		input.Description = &clean
	}

	if err := h.events.Update(r.Context(), id, input); err != nil {
		if errors.Is(err, eventstore.ErrDuplicateSlug) {
			jsonutil.Conflict(w, err.Error())
			return
		}
		h.logger.Error("failed to update event", zap.Error(err))
		jsonutil.InternalError(w, "failed to update event")
		return
	}

	updated, err := h.events.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to reload event", zap.Error(err))
		jsonutil.InternalError(w, "failed to update event")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentUpdated(r.Context(), r, actor.UserID(), "event", updated.Slug)
	}
	jsonutil.OK(w, updated)
}

// adminDelete handles DELETE /api/admin/events/{id}, removing the event and
// its registrations.
func (h *Handler) adminDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	event, err := h.events.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "event not found")
			return
		}
		h.logger.Error("failed to load event", zap.Error(err))
		jsonutil.InternalError(w, "failed to delete event")
		return
	}

	deleted, err := h.events.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete event", zap.Error(err))
		jsonutil.InternalError(w, "failed to delete event")
		return
	}
	if deleted == 0 {
		jsonutil.NotFound(w, "event not found")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentDeleted(r.Context(), r, actor.UserID(), "event", event.Slug)
	}
	jsonutil.NoContent(w)
}
