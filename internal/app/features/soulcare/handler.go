// Package soulcare provides the soul-care catalog API: services, the care
// team, and resources, with a public published view and admin CRUD.
package soulcare

import (
	"errors"
	"net/http"

	soulcarestore "github.com/wellspringhq/wellspring/internal/app/store/soulcare"
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

// Handler provides soul-care catalog handlers.
type Handler struct {
	catalog *soulcarestore.Store
	audit   *auditlog.Logger
	logger  *zap.Logger
}

// NewHandler creates a new soulcare Handler.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		catalog: soulcarestore.New(db),
		audit:   audit,
		logger:  logger,
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

// publicFilter builds the published-only filter, honoring ?featured=true.
func publicFilter(r *http.Request) soulcarestore.ListFilter {
	filter := soulcarestore.ListFilter{Status: models.ContentPublished}
	if r.URL.Query().Get("featured") == "true" {
		featured := true
		filter.Featured = &featured
	}
	return filter
}

// adminFilter honors optional ?status= and ?featured= query parameters.
func adminFilter(r *http.Request) soulcarestore.ListFilter {
	filter := soulcarestore.ListFilter{Status: r.URL.Query().Get("status")}
	switch r.URL.Query().Get("featured") {
	case "true":
		v := true
		filter.Featured = &v
	case "false":
		v := false
		filter.Featured = &v
	}
	return filter
}

func validateCatalogStatus(status *string) (string, bool) {
	if *status == "" {
		*status = models.ContentDraft
	}
	return *status, models.IsValidContentStatus(*status)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Public handlers                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// getCatalog handles GET /api/soulcare, the combined published catalog.
func (h *Handler) getCatalog(w http.ResponseWriter, r *http.Request) {
	filter := publicFilter(r)

	services, err := h.catalog.ListServices(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list services", zap.Error(err))
		jsonutil.InternalError(w, "failed to load catalog")
		return
	}
	team, err := h.catalog.ListTeamMembers(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list team members", zap.Error(err))
		jsonutil.InternalError(w, "failed to load catalog")
		return
	}
	resources, err := h.catalog.ListResources(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list resources", zap.Error(err))
		jsonutil.InternalError(w, "failed to load catalog")
		return
	}

	jsonutil.OK(w, map[string]any{
		"services":  services,
		"team":      team,
		"resources": resources,
	})
}

// listServices handles GET /api/soulcare/services.
func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListServices(r.Context(), publicFilter(r))
	if err != nil {
		h.logger.Error("failed to list services", zap.Error(err))
		jsonutil.InternalError(w, "failed to list services")
		return
	}
	jsonutil.OK(w, map[string]any{"services": services})
}

// listTeam handles GET /api/soulcare/team.
func (h *Handler) listTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.catalog.ListTeamMembers(r.Context(), publicFilter(r))
	if err != nil {
		h.logger.Error("failed to list team members", zap.Error(err))
		jsonutil.InternalError(w, "failed to list team members")
		return
	}
	jsonutil.OK(w, map[string]any{"team": team})
}

// listResources handles GET /api/soulcare/resources.
func (h *Handler) listResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.catalog.ListResources(r.Context(), publicFilter(r))
	if err != nil {
		h.logger.Error("failed to list resources", zap.Error(err))
		jsonutil.InternalError(w, "failed to list resources")
		return
	}
	jsonutil.OK(w, map[string]any{"resources": resources})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin: services                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type serviceInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImagePath   string `json:"image_path"`
	Status      string `json:"status"`
	Featured    bool   `json:"featured"`
	Order       int    `json:"order"`
}

func (in *serviceInput) validate() map[string]string {
	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "required"
	}
	if _, ok := validateCatalogStatus(&in.Status); !ok {
		fields["status"] = "must be draft, published, or archived"
	}
	return fields
}

func (in *serviceInput) toStore() soulcarestore.ServiceInput {
	return soulcarestore.ServiceInput{
		Name:        in.Name,
		Description: htmlsanitize.Sanitize(in.Description),
		ImagePath:   in.ImagePath,
		Status:      in.Status,
		Featured:    in.Featured,
		Order:       in.Order,
	}
}

func (h *Handler) adminCreateService(w http.ResponseWriter, r *http.Request) {
	var in serviceInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if fields := in.validate(); len(fields) > 0 {
		jsonutil.ValidationError(w, fields)
		return
	}

	service, err := h.catalog.CreateService(r.Context(), in.toStore())
	if err != nil {
		h.logger.Error("failed to create service", zap.Error(err))
		jsonutil.InternalError(w, "failed to create service")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentCreated(r.Context(), r, actor.UserID(), "soulcare_service", service.ID.Hex())
	}
	jsonutil.Created(w, service)
}

func (h *Handler) adminListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListServices(r.Context(), adminFilter(r))
	if err != nil {
		h.logger.Error("failed to list services", zap.Error(err))
		jsonutil.InternalError(w, "failed to list services")
		return
	}
	jsonutil.OK(w, map[string]any{"services": services})
}

func (h *Handler) adminGetService(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	service, err := h.catalog.GetService(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "service not found")
			return
		}
		h.logger.Error("failed to load service", zap.Error(err))
		jsonutil.InternalError(w, "failed to load service")
		return
	}
	jsonutil.OK(w, service)
}

func (h *Handler) adminUpdateService(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var in serviceInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if fields := in.validate(); len(fields) > 0 {
		jsonutil.ValidationError(w, fields)
		return
	}

	if _, err := h.catalog.GetService(r.Context(), id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "service not found")
			return
		}
		h.logger.Error("failed to load service", zap.Error(err))
		jsonutil.InternalError(w, "failed to update service")
		return
	}

	if err := h.catalog.UpdateService(r.Context(), id, in.toStore()); err != nil {
		h.logger.Error("failed to update service", zap.Error(err))
		jsonutil.InternalError(w, "failed to update service")
		return
	}

	updated, err := h.catalog.GetService(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to reload service", zap.Error(err))
		jsonutil.InternalError(w, "failed to update service")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentUpdated(r.Context(), r, actor.UserID(), "soulcare_service", id.Hex())
	}
	jsonutil.OK(w, updated)
}

func (h *Handler) adminDeleteService(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	deleted, err := h.catalog.DeleteService(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete service", zap.Error(err))
		jsonutil.InternalError(w, "failed to delete service")
		return
	}
	if deleted == 0 {
		jsonutil.NotFound(w, "service not found")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentDeleted(r.Context(), r, actor.UserID(), "soulcare_service", id.Hex())
	}
	jsonutil.NoContent(w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin: team members                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

type teamMemberInput struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Bio       string `json:"bio"`
	PhotoPath string `json:"photo_path"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	Featured  bool   `json:"featured"`
	Order     int    `json:"order"`
}

func (in *teamMemberInput) validate() map[string]string {
	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "required"
	}
	if _, ok := validateCatalogStatus(&in.Status); !ok {
		fields["status"] = "must be draft, published, or archived"
	}
	return fields
}

func (in *teamMemberInput) toStore() soulcarestore.TeamMemberInput {
	return soulcarestore.TeamMemberInput{
		Name:      in.Name,
		Title:     in.Title,
		Bio:       htmlsanitize.Sanitize(in.Bio),
		PhotoPath: in.PhotoPath,
		Email:     in.Email,
		Status:    in.Status,
		Featured:  in.Featured,
		Order:     in.Order,
	}
}

func (h *Handler) adminCreateTeamMember(w http.ResponseWriter, r *http.Request) {
	var in teamMemberInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if fields := in.validate(); len(fields) > 0 {
		jsonutil.ValidationError(w, fields)
		return
	}

	member, err := h.catalog.CreateTeamMember(r.Context(), in.toStore())
	if err != nil {
		h.logger.Error("failed to create team member", zap.Error(err))
		jsonutil.InternalError(w, "failed to create team member")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentCreated(r.Context(), r, actor.UserID(), "soulcare_team_member", member.ID.Hex())
	}
	jsonutil.Created(w, member)
}

func (h *Handler) adminListTeamMembers(w http.ResponseWriter, r *http.Request) {
	team, err := h.catalog.ListTeamMembers(r.Context(), adminFilter(r))
	if err != nil {
		h.logger.Error("failed to list team members", zap.Error(err))
		jsonutil.InternalError(w, "failed to list team members")
		return
	}
	jsonutil.OK(w, map[string]any{"team": team})
}

func (h *Handler) adminGetTeamMember(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	member, err := h.catalog.GetTeamMember(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "team member not found")
			return
		}
		h.logger.Error("failed to load team member", zap.Error(err))
		jsonutil.InternalError(w, "failed to load team member")
		return
	}
	jsonutil.OK(w, member)
}

func (h *Handler) adminUpdateTeamMember(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var in teamMemberInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if fields := in.validate(); len(fields) > 0 {
		jsonutil.ValidationError(w, fields)
		return
	}

	if _, err := h.catalog.GetTeamMember(r.Context(), id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "team member not found")
			return
		}
		h.logger.Error("failed to load team member", zap.Error(err))
		jsonutil.InternalError(w, "failed to update team member")
		return
	}

	if err := h.catalog.UpdateTeamMember(r.Context(), id, in.toStore()); err != nil {
		h.logger.Error("failed to update team member", zap.Error(err))
		jsonutil.InternalError(w, "failed to update team member")
		return
	}

	updated, err := h.catalog.GetTeamMember(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to reload team member", zap.Error(err))
		jsonutil.InternalError(w, "failed to update team member")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentUpdated(r.Context(), r, actor.UserID(), "soulcare_team_member", id.Hex())
	}
	jsonutil.OK(w, updated)
}

func (h *Handler) adminDeleteTeamMember(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	deleted, err := h.catalog.DeleteTeamMember(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete team member", zap.Error(err))
		jsonutil.InternalError(w, "failed to delete team member")
		return
	}
	if deleted == 0 {
		jsonutil.NotFound(w, "team member not found")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentDeleted(r.Context(), r, actor.UserID(), "soulcare_team_member", id.Hex())
	}
	jsonutil.NoContent(w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin: resources                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

type resourceInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	FilePath    string `json:"file_path"`
	Status      string `json:"status"`
	Featured    bool   `json:"featured"`
	Order       int    `json:"order"`
}

func (in *resourceInput) validate() map[string]string {
	fields := map[string]string{}
	if in.Title == "" {
		fields["title"] = "required"
	}
	if in.URL == "" && in.FilePath == "" {
		fields["url"] = "either url or file_path is required"
	}
	if _, ok := validateCatalogStatus(&in.Status); !ok {
		fields["status"] = "must be draft, published, or archived"
	}
	return fields
}

func (in *resourceInput) toStore() soulcarestore.ResourceInput {
	return soulcarestore.ResourceInput{
		Title:       in.Title,
		Description: htmlsanitize.Sanitize(in.Description),
		URL:         in.URL,
		FilePath:    in.FilePath,
		Status:      in.Status,
		Featured:    in.Featured,
		Order:       in.Order,
	}
}

func (h *Handler) adminCreateResource(w http.ResponseWriter, r *http.Request) {
	var in resourceInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if fields := in.validate(); len(fields) > 0 {
		jsonutil.ValidationError(w, fields)
		return
	}

	resource, err := h.catalog.CreateResource(r.Context(), in.toStore())
	if err != nil {
		h.logger.Error("failed to create resource", zap.Error(err))
		jsonutil.InternalError(w, "failed to create resource")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentCreated(r.Context(), r, actor.UserID(), "soulcare_resource", resource.ID.Hex())
	}
	jsonutil.Created(w, resource)
}

func (h *Handler) adminListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.catalog.ListResources(r.Context(), adminFilter(r))
	if err != nil {
		h.logger.Error("failed to list resources", zap.Error(err))
		jsonutil.InternalError(w, "failed to list resources")
		return
	}
	jsonutil.OK(w, map[string]any{"resources": resources})
}

func (h *Handler) adminGetResource(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	resource, err := h.catalog.GetResource(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "resource not found")
			return
		}
		h.logger.Error("failed to load resource", zap.Error(err))
		jsonutil.InternalError(w, "failed to load resource")
		return
	}
	jsonutil.OK(w, resource)
}

func (h *Handler) adminUpdateResource(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var in resourceInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if fields := in.validate(); len(fields) > 0 {
		jsonutil.ValidationError(w, fields)
		return
	}

	if _, err := h.catalog.GetResource(r.Context(), id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "resource not found")
			return
		}
		h.logger.Error("failed to load resource", zap.Error(err))
		jsonutil.InternalError(w, "failed to update resource")
		return
	}

	if err := h.catalog.UpdateResource(r.Context(), id, in.toStore()); err != nil {
		h.logger.Error("failed to update resource", zap.Error(err))
		jsonutil.InternalError(w, "failed to update resource")
		return
	}

	updated, err := h.catalog.GetResource(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to reload resource", zap.Error(err))
		jsonutil.InternalError(w, "failed to update resource")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentUpdated(r.Context(), r, actor.UserID(), "soulcare_resource", id.Hex())
	}
	jsonutil.OK(w, updated)
}

func (h *Handler) adminDeleteResource(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	deleted, err := h.catalog.DeleteResource(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete resource", zap.Error(err))
		jsonutil.InternalError(w, "failed to delete resource")
		return
	}
	if deleted == 0 {
		jsonutil.NotFound(w, "resource not found")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentDeleted(r.Context(), r, actor.UserID(), "soulcare_resource", id.Hex())
	}
	jsonutil.NoContent(w)
}
