// Package authapi provides the JSON authentication endpoints: registration,
// credential login (with an optional email one-time-code step), logout,
// password reset, and session-to-JWT token exchange.
package authapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	otpstore "github.com/wellspringhq/wellspring/internal/app/store/otp"
	"github.com/wellspringhq/wellspring/internal/app/store/ratelimit"
	settingsstore "github.com/wellspringhq/wellspring/internal/app/store/settings"
	userstore "github.com/wellspringhq/wellspring/internal/app/store/users"
	"github.com/wellspringhq/wellspring/internal/app/system/auditlog"
	"github.com/wellspringhq/wellspring/internal/app/system/auth"
	"github.com/wellspringhq/wellspring/internal/app/system/authutil"
	"github.com/wellspringhq/wellspring/internal/app/system/inputval"
	"github.com/wellspringhq/wellspring/internal/app/system/jsonutil"
	"github.com/wellspringhq/wellspring/internal/app/system/mailer"
	"github.com/wellspringhq/wellspring/internal/app/system/normalize"
	"github.com/wellspringhq/wellspring/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides authentication API handlers.
type Handler struct {
	users      *userstore.Store
	otps       *otpstore.Store
	settings   *settingsstore.Store
	rateLimit  *ratelimit.Store // nil if rate limiting disabled
	sessionMgr *auth.SessionManager
	tokens     *auth.TokenIssuer
	mailer     *mailer.Mailer
	audit      *auditlog.Logger
	baseURL    string
	logger     *zap.Logger
}

// NewHandler creates a new authapi Handler.
// rateLimitStore can be nil to disable rate limiting.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	tokens *auth.TokenIssuer,
	m *mailer.Mailer,
	audit *auditlog.Logger,
	rateLimitStore *ratelimit.Store,
	baseURL string,
	otpExpiry time.Duration,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		users:      userstore.New(db),
		otps:       otpstore.New(db, otpExpiry),
		settings:   settingsstore.New(db),
		rateLimit:  rateLimitStore,
		sessionMgr: sessionMgr,
		tokens:     tokens,
		mailer:     m,
		audit:      audit,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// userPayload is the JSON shape returned for the authenticated user.
type userPayload struct {
	ID               string `json:"id"`
	FullName         string `json:"full_name"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	MembershipActive bool   `json:"membership_active"`
	MembershipTier   string `json:"membership_tier,omitempty"`
}

func toUserPayload(u *models.User) userPayload {
	p := userPayload{
		ID:       u.ID.Hex(),
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
	}
	if u.Membership.IsActive(time.Now()) {
		p.MembershipActive = true
		p.MembershipTier = u.Membership.TierSlug
	}
	return p
}

// register handles POST /api/auth/register.
//
// Request body:
//
//	{ "full_name": "Ada Teale", "email": "ada@example.com", "password": "..." }
//
// New accounts always get the "user" role; admins are created through the
// admin user management endpoints. Responds 409 if the email is taken.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(in.FullName) == "" {
		fields["full_name"] = "required"
	}
	if !inputval.IsValidEmail(in.Email) {
		fields["email"] = "invalid email address"
	}
	if err := authutil.ValidatePassword(in.Password); err != nil {
		fields["password"] = err.Error()
	}
	if len(fields) > 0 {
		jsonutil.ValidationError(w, fields)
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		jsonutil.InternalError(w, "failed to create account")
		return
	}

	created, err := h.users.Create(r.Context(), models.User{
		FullName:     in.FullName,
		Email:        in.Email,
		AuthMethod:   models.AuthMethodPassword,
		PasswordHash: &hash,
		Role:         models.RoleUser,
		Status:       "active",
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			jsonutil.Conflict(w, "email already registered")
			return
		}
		h.logger.Error("failed to create user", zap.Error(err))
		jsonutil.InternalError(w, "failed to create account")
		return
	}

	h.audit.Registered(r.Context(), r, created.ID, models.AuthMethodPassword, created.Email)
	h.sendWelcomeEmail(r.Context(), &created)

	jsonutil.Created(w, toUserPayload(&created))
}

// login handles POST /api/auth/login.
//
// Request body:
//
//	{ "email": "ada@example.com", "password": "..." }
//
// When the site requires a login one-time code, the response is
// {"otp_required": true} and a 6-digit code is emailed; the session is
// established by POST /api/auth/login/verify instead. Otherwise a session
// cookie is set and the user payload returned.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	email := normalize.Email(in.Email)
	if email == "" || in.Password == "" {
		jsonutil.BadRequest(w, "email and password are required")
		return
	}

	limitKey := "login:" + email
	if h.tooManyAttempts(w, r, limitKey) {
		return
	}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.audit.LoginFailedUserNotFound(r.Context(), r, email)
			h.recordFailure(r.Context(), limitKey)
			jsonutil.Unauthorized(w, "invalid email or password")
			return
		}
		h.logger.Error("failed to look up user", zap.Error(err))
		jsonutil.InternalError(w, "login failed")
		return
	}

	if user.Status != "active" {
		h.audit.LoginFailedUserDisabled(r.Context(), r, user.ID, user.Email)
		jsonutil.Forbidden(w, "account is disabled")
		return
	}

	if user.PasswordHash == nil || !authutil.CheckPassword(in.Password, *user.PasswordHash) {
		h.audit.LoginFailedWrongPassword(r.Context(), r, user.ID, user.Email)
		h.recordFailure(r.Context(), limitKey)
		jsonutil.Unauthorized(w, "invalid email or password")
		return
	}

	h.clearFailures(r.Context(), limitKey)

	settings, err := h.settings.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to load site settings", zap.Error(err))
		jsonutil.InternalError(w, "login failed")
		return
	}

	if settings.RequireLoginOTP {
		code, err := h.otps.Create(r.Context(), user.ID, user.Email, otpstore.PurposeLogin)
		if err != nil {
			h.logger.Error("failed to create login code", zap.Error(err))
			jsonutil.InternalError(w, "login failed")
			return
		}
		h.sendOTPEmail(r.Context(), user.Email, otpstore.PurposeLogin, code)
		h.audit.OTPCodeSent(r.Context(), r, user.ID, user.Email, otpstore.PurposeLogin)
		jsonutil.OK(w, map[string]any{"otp_required": true})
		return
	}

	if err := h.sessionMgr.CreateSession(w, r, user.ID, user.Role, ""); err != nil {
		h.logger.Error("failed to create session", zap.Error(err))
		jsonutil.InternalError(w, "login failed")
		return
	}

	h.audit.LoginSuccess(r.Context(), r, user.ID, models.AuthMethodPassword, user.Email)
	jsonutil.OK(w, toUserPayload(user))
}

// loginVerify handles POST /api/auth/login/verify.
//
// Request body:
//
//	{ "email": "ada@example.com", "code": "123456" }
//
// Verifies the emailed login code and establishes the session.
func (h *Handler) loginVerify(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	email := normalize.Email(in.Email)
	code := strings.TrimSpace(in.Code)
	if email == "" || code == "" {
		jsonutil.BadRequest(w, "email and code are required")
		return
	}

	limitKey := "otp:" + email
	if h.tooManyAttempts(w, r, limitKey) {
		return
	}

	rec, err := h.otps.VerifyCode(r.Context(), email, otpstore.PurposeLogin, code)
	if err != nil {
		if errors.Is(err, otpstore.ErrInvalidCode) {
			h.recordFailure(r.Context(), limitKey)
			h.audit.OTPCodeFailed(r.Context(), r, email, otpstore.PurposeLogin, "invalid_or_expired_code")
			jsonutil.Unauthorized(w, "invalid or expired code")
			return
		}
		h.logger.Error("failed to verify login code", zap.Error(err))
		jsonutil.InternalError(w, "verification failed")
		return
	}

	user, err := h.users.GetByID(r.Context(), rec.UserID)
	if err != nil {
		h.logger.Error("failed to load user for verified code", zap.Error(err))
		jsonutil.InternalError(w, "verification failed")
		return
	}
	if user.Status != "active" {
		h.audit.LoginFailedUserDisabled(r.Context(), r, user.ID, user.Email)
		jsonutil.Forbidden(w, "account is disabled")
		return
	}

	if err := h.otps.MarkUsed(r.Context(), rec.ID); err != nil {
		h.logger.Error("failed to mark code used", zap.Error(err))
		jsonutil.InternalError(w, "verification failed")
		return
	}
	h.clearFailures(r.Context(), limitKey)

	if err := h.sessionMgr.CreateSession(w, r, user.ID, user.Role, ""); err != nil {
		h.logger.Error("failed to create session", zap.Error(err))
		jsonutil.InternalError(w, "verification failed")
		return
	}

	h.audit.LoginSuccess(r.Context(), r, user.ID, models.AuthMethodPassword, user.Email)
	jsonutil.OK(w, toUserPayload(user))
}

// logout handles POST /api/auth/logout. Destroying a session that does not
// exist is fine; the response is 204 either way.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.audit.Logout(r.Context(), r, u.ID)
	}
	h.sessionMgr.DestroySession(w, r)
	jsonutil.NoContent(w)
}

// forgotPassword handles POST /api/auth/forgot-password.
//
// Request body:
//
//	{ "email": "ada@example.com" }
//
// Always responds 200 so the endpoint cannot be used to probe which emails
// have accounts. When the account exists, a reset code and link are emailed.
func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	email := normalize.Email(in.Email)
	if email == "" {
		jsonutil.BadRequest(w, "email is required")
		return
	}

	resp := map[string]string{"message": "if that account exists, a reset code has been sent"}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			h.logger.Error("failed to look up user for password reset", zap.Error(err))
		}
		jsonutil.OK(w, resp)
		return
	}
	if user.Status != "active" {
		jsonutil.OK(w, resp)
		return
	}

	code, err := h.otps.Create(r.Context(), user.ID, user.Email, otpstore.PurposePasswordReset)
	if err != nil {
		h.logger.Error("failed to create password reset code", zap.Error(err))
		jsonutil.OK(w, resp)
		return
	}

	h.sendOTPEmail(r.Context(), user.Email, otpstore.PurposePasswordReset, code)
	h.audit.PasswordResetRequested(r.Context(), r, user.ID, user.Email)

	jsonutil.OK(w, resp)
}

// resetPassword handles POST /api/auth/reset-password.
//
// Request body (code flow):
//
//	{ "email": "ada@example.com", "code": "123456", "new_password": "..." }
//
// Request body (link flow):
//
//	{ "token": "...", "new_password": "..." }
//
// Verifies the reset code or token, replaces the password hash, and marks
// the code used so it cannot be replayed.
func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	if err := authutil.ValidatePassword(in.NewPassword); err != nil {
		jsonutil.ValidationError(w, map[string]string{"new_password": err.Error()})
		return
	}

	var (
		rec      *otpstore.Code
		err      error
		limitKey string
	)
	switch {
	case in.Token != "":
		rec, err = h.otps.VerifyToken(r.Context(), otpstore.PurposePasswordReset, in.Token)
	case in.Email != "" && in.Code != "":
		email := normalize.Email(in.Email)
		limitKey = "otp:" + email
		if h.tooManyAttempts(w, r, limitKey) {
			return
		}
		rec, err = h.otps.VerifyCode(r.Context(), email, otpstore.PurposePasswordReset, strings.TrimSpace(in.Code))
	default:
		jsonutil.BadRequest(w, "a reset token or an email and code are required")
		return
	}

	if err != nil {
		if errors.Is(err, otpstore.ErrInvalidCode) {
			if limitKey != "" {
				h.recordFailure(r.Context(), limitKey)
			}
			h.audit.OTPCodeFailed(r.Context(), r, normalize.Email(in.Email), otpstore.PurposePasswordReset, "invalid_or_expired_code")
			jsonutil.Unauthorized(w, "invalid or expired code")
			return
		}
		h.logger.Error("failed to verify password reset code", zap.Error(err))
		jsonutil.InternalError(w, "password reset failed")
		return
	}

	hash, err := authutil.HashPassword(in.NewPassword)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		jsonutil.InternalError(w, "password reset failed")
		return
	}

	if err := h.users.UpdatePassword(r.Context(), rec.UserID, hash); err != nil {
		h.logger.Error("failed to update password", zap.Error(err))
		jsonutil.InternalError(w, "password reset failed")
		return
	}
	if err := h.otps.MarkUsed(r.Context(), rec.ID); err != nil {
		h.logger.Error("failed to mark reset code used", zap.Error(err))
	}
	if limitKey != "" {
		h.clearFailures(r.Context(), limitKey)
	}

	h.audit.PasswordResetCompleted(r.Context(), r, rec.UserID)
	h.sendPasswordChangedEmail(r.Context(), rec.Email)

	jsonutil.OK(w, map[string]string{"message": "password updated"})
}

// token handles POST /api/auth/token.
//
// Exchanges the authenticated session for a signed bearer token carrying the
// user's id, role, and membership as of this moment. The membership snapshot
// inside the token is not refreshed if the membership changes later.
func (h *Handler) token(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "unauthorized")
		return
	}

	signed, err := h.tokens.Issue(u)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		jsonutil.InternalError(w, "failed to issue token")
		return
	}

	h.audit.TokenIssued(r.Context(), r, u.UserID())
	jsonutil.OK(w, map[string]any{
		"token":      signed,
		"token_type": "Bearer",
		"expires_in": int(h.tokens.TTL().Seconds()),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Rate limiting helpers                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// tooManyAttempts writes a 429 and returns true when the key is locked out.
func (h *Handler) tooManyAttempts(w http.ResponseWriter, r *http.Request, key string) bool {
	if h.rateLimit == nil {
		return false
	}
	allowed, _, lockedUntil := h.rateLimit.CheckAllowed(r.Context(), key)
	if allowed {
		return false
	}
	resp := map[string]any{"error": "too many attempts, try again later"}
	if lockedUntil != nil {
		resp["locked_until"] = lockedUntil.UTC().Format(time.RFC3339)
	}
	jsonutil.JSON(w, http.StatusTooManyRequests, resp)
	return true
}

func (h *Handler) recordFailure(ctx context.Context, key string) {
	if h.rateLimit == nil {
		return
	}
	h.rateLimit.RecordFailure(ctx, key)
}

func (h *Handler) clearFailures(ctx context.Context, key string) {
	if h.rateLimit == nil {
		return
	}
	if err := h.rateLimit.ClearOnSuccess(ctx, key); err != nil {
		h.logger.Warn("failed to clear rate limit record", zap.String("key", key), zap.Error(err))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Email helpers                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// siteName returns the configured site name for email templates.
func (h *Handler) siteName(ctx context.Context) string {
	settings, err := h.settings.Get(ctx)
	if err != nil {
		return models.DefaultSiteName
	}
	return settings.SiteName
}

// sendOTPEmail emails a one-time code. Password reset emails also carry a
// clickable link built from the code's URL-safe token. When SMTP is not
// configured (dev mode), the code is logged instead so local flows stay
// usable.
func (h *Handler) sendOTPEmail(ctx context.Context, email, purpose string, code *otpstore.Code) {
	resetURL := ""
	if purpose == otpstore.PurposePasswordReset && code.Token != "" {
		resetURL = h.baseURL + "/reset-password?token=" + url.QueryEscape(code.Token)
	}

	if !h.mailer.Enabled() {
		fields := []zap.Field{
			zap.String("email", email),
			zap.String("purpose", purpose),
			zap.String("code", code.Code),
		}
		if resetURL != "" {
			fields = append(fields, zap.String("reset_url", resetURL))
		}
		h.logger.Info("smtp not configured, logging one-time code", fields...)
		return
	}

	text, html := mailer.OTPCodeEmail(mailer.OTPCodeEmailData{
		AppName:   h.siteName(ctx),
		Code:      code.Code,
		Purpose:   purpose,
		ExpiryMin: int(h.otps.Expiry().Minutes()),
		ResetURL:  resetURL,
	})
	subject := "Your login code"
	if purpose == otpstore.PurposePasswordReset {
		subject = "Your password reset code"
	}
	if err := h.mailer.Send(mailer.Email{To: email, Subject: subject, TextBody: text, HTMLBody: html}); err != nil {
		h.logger.Error("failed to send one-time code email",
			zap.String("email", email),
			zap.String("purpose", purpose),
			zap.Error(err))
	}
}

func (h *Handler) sendWelcomeEmail(ctx context.Context, u *models.User) {
	settings, err := h.settings.Get(ctx)
	if err != nil || !settings.NotifyUserOnRegister || !h.mailer.Enabled() {
		return
	}

	text, html := mailer.WelcomeEmail(mailer.WelcomeEmailData{
		AppName:  settings.SiteName,
		UserName: u.FullName,
		LoginURL: h.baseURL + "/login",
	})
	if err := h.mailer.Send(mailer.Email{To: u.Email, Subject: "Welcome to " + settings.SiteName, TextBody: text, HTMLBody: html}); err != nil {
		h.logger.Error("failed to send welcome email", zap.String("email", u.Email), zap.Error(err))
	}
}

func (h *Handler) sendPasswordChangedEmail(ctx context.Context, email string) {
	if !h.mailer.Enabled() {
		return
	}

	text, html := mailer.PasswordChangedEmail(mailer.PasswordChangedEmailData{
		AppName:  h.siteName(ctx),
		LoginURL: h.baseURL + "/login",
	})
	if err := h.mailer.Send(mailer.Email{To: email, Subject: "Your password was changed", TextBody: text, HTMLBody: html}); err != nil {
		h.logger.Error("failed to send password changed email", zap.String("email", email), zap.Error(err))
	}
}
