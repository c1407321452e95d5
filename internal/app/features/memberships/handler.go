// Package memberships provides the membership API: the public tier catalog,
// self-service subscribe/renew/cancel, and admin tier management.
package memberships

import (
	"errors"
	"net/http"
	"time"

	"github.com/wellspringhq/wellspring/internal/app/store/audit"
	settingsstore "github.com/wellspringhq/wellspring/internal/app/store/settings"
	tierstore "github.com/wellspringhq/wellspring/internal/app/store/tiers"
	userstore "github.com/wellspringhq/wellspring/internal/app/store/users"
	"github.com/wellspringhq/wellspring/internal/app/system/auditlog"
	"github.com/wellspringhq/wellspring/internal/app/system/auth"
	"github.com/wellspringhq/wellspring/internal/app/system/jsonutil"
	"github.com/wellspringhq/wellspring/internal/app/system/mailer"
	"github.com/wellspringhq/wellspring/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides membership API handlers.
type Handler struct {
	tiers      *tierstore.Store
	users      *userstore.Store
	settings   *settingsstore.Store
	sessionMgr *auth.SessionManager
	mailer     *mailer.Mailer
	audit      *auditlog.Logger
	logger     *zap.Logger
}

// NewHandler creates a new memberships Handler.
func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, m *mailer.Mailer, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		tiers:      tierstore.New(db),
		users:      userstore.New(db),
		settings:   settingsstore.New(db),
		sessionMgr: sessionMgr,
		mailer:     m,
		audit:      auditLog,
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

/*─────────────────────────────────────────────────────────────────────────────*
| Public handlers                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// listTiers handles GET /api/tiers, active tiers in display order.
func (h *Handler) listTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.tiers.ListActive(r.Context())
	if err != nil {
		h.logger.Error("failed to list tiers", zap.Error(err))
		jsonutil.InternalError(w, "failed to list tiers")
		return
	}
	jsonutil.OK(w, map[string]any{"tiers": tiers})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Self-service membership                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// subscribe handles POST /api/me/membership. Subscribing to the current tier
// renews it, extending the window from whichever is later: now or the
// current end date. Switching tiers starts a fresh window and moves both
// subscriber counters.
func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "unauthorized")
		return
	}

	var in struct {
		TierSlug string `json:"tier_slug"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.TierSlug == "" {
		jsonutil.ValidationError(w, map[string]string{"tier_slug": "required"})
		return
	}

	tier, err := h.tiers.GetBySlug(r.Context(), in.TierSlug)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "tier not found")
			return
		}
		h.logger.Error("failed to load tier", zap.Error(err))
		jsonutil.InternalError(w, "failed to update membership")
		return
	}
	if !tier.Active {
		jsonutil.NotFound(w, "tier not found")
		return
	}

	user, err := h.users.GetByID(r.Context(), u.UserID())
	if err != nil {
		h.logger.Error("failed to load user", zap.Error(err))
		jsonutil.InternalError(w, "failed to update membership")
		return
	}

	now := time.Now()
	prev := user.Membership
	sameTier := prev != nil && prev.TierID == tier.ID

	currentEnd := time.Time{}
	startedAt := now
	if sameTier {
		currentEnd = prev.ExpiresAt
		startedAt = prev.StartedAt
	}

	membership := models.Membership{
		TierID:       tier.ID,
		TierSlug:     tier.Slug,
		BillingCycle: tier.BillingCycle,
		Status:       models.MembershipActive,
		StartedAt:    startedAt,
		ExpiresAt:    models.NextSubscriptionEnd(tier.BillingCycle, now, currentEnd),
	}
	if err := h.users.SetMembership(r.Context(), user.ID, membership); err != nil {
		h.logger.Error("failed to set membership", zap.Error(err))
		jsonutil.InternalError(w, "failed to update membership")
		return
	}

	if !sameTier {
		if prev != nil {
			if err := h.tiers.IncSubscribers(r.Context(), prev.TierID, -1); err != nil {
				h.logger.Warn("failed to decrement subscriber count",
					zap.String("tier", prev.TierSlug), zap.Error(err))
			}
		}
		if err := h.tiers.IncSubscribers(r.Context(), tier.ID, 1); err != nil {
			h.logger.Warn("failed to increment subscriber count",
				zap.String("tier", tier.Slug), zap.Error(err))
		}
	}

	eventType := audit.EventMembershipStarted
	if sameTier {
		eventType = audit.EventMembershipRenewed
	}
	h.audit.MembershipChanged(r.Context(), r, user.ID, eventType, tier.Slug)

	h.sendMembershipEmail(r, user, tier, membership, sameTier)

	jsonutil.OK(w, map[string]any{"membership": membership})
}

// cancel handles DELETE /api/me/membership. Cancellation flips the status;
// access continues until the end of the paid window.
func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "unauthorized")
		return
	}

	modified, err := h.users.SetMembershipStatus(r.Context(), u.UserID(), models.MembershipCancelled)
	if err != nil {
		h.logger.Error("failed to cancel membership", zap.Error(err))
		jsonutil.InternalError(w, "failed to cancel membership")
		return
	}

	user, err := h.users.GetByID(r.Context(), u.UserID())
	if err != nil {
		h.logger.Error("failed to load user", zap.Error(err))
		jsonutil.InternalError(w, "failed to cancel membership")
		return
	}
	if user.Membership == nil {
		jsonutil.NotFound(w, "no membership to cancel")
		return
	}

	if modified > 0 {
		h.audit.MembershipChanged(r.Context(), r, user.ID, audit.EventMembershipCancelled, user.Membership.TierSlug)
	}

	jsonutil.OK(w, map[string]any{"membership": user.Membership})
}

func (h *Handler) sendMembershipEmail(r *http.Request, user *models.User, tier *models.MembershipTier, m models.Membership, renewed bool) {
	settings, err := h.settings.Get(r.Context())
	if err != nil || !settings.NotifyUserOnRenewal {
		return
	}
	if !h.mailer.Enabled() {
		h.logger.Info("membership confirmed (mailer disabled)",
			zap.String("email", user.Email),
			zap.String("tier", tier.Slug))
		return
	}

	appName := settings.SiteName
	if appName == "" {
		appName = models.DefaultSiteName
	}

	text, html := mailer.MembershipRenewedEmail(mailer.MembershipRenewedEmailData{
		AppName:   appName,
		UserName:  user.FullName,
		TierName:  tier.Name,
		Renewed:   renewed,
		ExpiresOn: m.ExpiresAt.Format("January 2, 2006"),
	})
	subject := "Your membership has started"
	if renewed {
		subject = "Your membership has been renewed"
	}
	if err := h.mailer.Send(mailer.Email{
		To:       user.Email,
		Subject:  subject,
		TextBody: text,
		HTMLBody: html,
	}); err != nil {
		h.logger.Warn("failed to send membership email",
			zap.String("email", user.Email), zap.Error(err))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin handlers                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// adminCreate handles POST /api/admin/tiers.
func (h *Handler) adminCreate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name         string   `json:"name"`
		Slug         string   `json:"slug"`
		Description  string   `json:"description"`
		PriceCents   int64    `json:"price_cents"`
		BillingCycle string   `json:"billing_cycle"`
		Features     []string `json:"features"`
		Active       bool     `json:"active"`
		Order        int      `json:"order"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "required"
	}
	if in.Slug == "" {
		fields["slug"] = "required"
	}
	if in.PriceCents < 0 {
		fields["price_cents"] = "must not be negative"
	}
	if !models.IsValidBillingCycle(in.BillingCycle) {
		fields["billing_cycle"] = "must be monthly, yearly, or one_time"
	}
	if len(fields) > 0 {
		jsonutil.ValidationError(w, fields)
		return
	}

	tier, err := h.tiers.Create(r.Context(), tierstore.CreateInput{
		Name:         in.Name,
		Slug:         in.Slug,
		Description:  in.Description,
		PriceCents:   in.PriceCents,
		BillingCycle: in.BillingCycle,
		Features:     in.Features,
		Active:       in.Active,
		Order:        in.Order,
	})
	if err != nil {
		if errors.Is(err, tierstore.ErrDuplicateSlug) {
			jsonutil.Conflict(w, err.Error())
			return
		}
		h.logger.Error("failed to create tier", zap.Error(err))
		jsonutil.InternalError(w, "failed to create tier")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentCreated(r.Context(), r, actor.UserID(), "membership_tier", tier.Slug)
	}
	jsonutil.Created(w, tier)
}

// adminList handles GET /api/admin/tiers, including inactive tiers.
func (h *Handler) adminList(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.tiers.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list tiers", zap.Error(err))
		jsonutil.InternalError(w, "failed to list tiers")
		return
	}
	jsonutil.OK(w, map[string]any{"tiers": tiers})
}

// adminGet handles GET /api/admin/tiers/{id}.
func (h *Handler) adminGet(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	tier, err := h.tiers.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "tier not found")
			return
		}
		h.logger.Error("failed to load tier", zap.Error(err))
		jsonutil.InternalError(w, "failed to load tier")
		return
	}
	jsonutil.OK(w, tier)
}

// adminUpdate handles PUT /api/admin/tiers/{id}.
func (h *Handler) adminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var in struct {
		Name         *string   `json:"name"`
		Slug         *string   `json:"slug"`
		Description  *string   `json:"description"`
		PriceCents   *int64    `json:"price_cents"`
		BillingCycle *string   `json:"billing_cycle"`
		Features     *[]string `json:"features"`
		Active       *bool     `json:"active"`
		Order        *int      `json:"order"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.BillingCycle != nil && !models.IsValidBillingCycle(*in.BillingCycle) {
		jsonutil.ValidationError(w, map[string]string{"billing_cycle": "must be monthly, yearly, or one_time"})
		return
	}
	if in.PriceCents != nil && *in.PriceCents < 0 {
		jsonutil.ValidationError(w, map[string]string{"price_cents": "must not be negative"})
		return
	}

	if _, err := h.tiers.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "tier not found")
			return
		}
		h.logger.Error("failed to load tier", zap.Error(err))
		jsonutil.InternalError(w, "failed to update tier")
		return
	}

	if err := h.tiers.Update(r.Context(), id, tierstore.UpdateInput{
		Name:         in.Name,
		Slug:         in.Slug,
		Description:  in.Description,
		PriceCents:   in.PriceCents,
		BillingCycle: in.BillingCycle,
		Features:     in.Features,
		Active:       in.Active,
		Order:        in.Order,
	}); err != nil {
		if errors.Is(err, tierstore.ErrDuplicateSlug) {
			jsonutil.Conflict(w, err.Error())
			return
		}
		h.logger.Error("failed to update tier", zap.Error(err))
		jsonutil.InternalError(w, "failed to update tier")
		return
	}

	updated, err := h.tiers.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to reload tier", zap.Error(err))
		jsonutil.InternalError(w, "failed to update tier")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentUpdated(r.Context(), r, actor.UserID(), "membership_tier", updated.Slug)
	}
	jsonutil.OK(w, updated)
}

// adminDelete handles DELETE /api/admin/tiers/{id}. A tier with current
// subscribers cannot be deleted; deactivate it instead.
func (h *Handler) adminDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	tier, err := h.tiers.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "tier not found")
			return
		}
		h.logger.Error("failed to load tier", zap.Error(err))
		jsonutil.InternalError(w, "failed to delete tier")
		return
	}

	subscribers, err := h.users.CountByTier(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to count tier subscribers", zap.Error(err))
		jsonutil.InternalError(w, "failed to delete tier")
		return
	}
	if subscribers > 0 {
		jsonutil.Conflict(w, "tier has subscribers; deactivate it instead")
		return
	}

	deleted, err := h.tiers.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete tier", zap.Error(err))
		jsonutil.InternalError(w, "failed to delete tier")
		return
	}
	if deleted == 0 {
		jsonutil.NotFound(w, "tier not found")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.ContentDeleted(r.Context(), r, actor.UserID(), "membership_tier", tier.Slug)
	}
	jsonutil.NoContent(w)
}
