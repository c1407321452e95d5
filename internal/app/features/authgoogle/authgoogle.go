// Package authgoogle provides the optional Google sign-in flow. It is a
// browser redirect flow rather than a JSON API: the start endpoint sends the
// user to Google and the callback establishes a session cookie before
// redirecting back into the site.
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/wellspringhq/wellspring/internal/app/store/oauthstate"
	userstore "github.com/wellspringhq/wellspring/internal/app/store/users"
	"github.com/wellspringhq/wellspring/internal/app/system/auditlog"
	"github.com/wellspringhq/wellspring/internal/app/system/auth"
	"github.com/wellspringhq/wellspring/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Handler provides Google OAuth handlers.
type Handler struct {
	users       *userstore.Store
	sessionMgr  *auth.SessionManager
	audit       *auditlog.Logger
	oauthStates *oauthstate.Store
	oauthConfig *oauth2.Config
	logger      *zap.Logger
}

// NewHandler creates a new Google OAuth Handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	oauthStates *oauthstate.Store,
	clientID string,
	clientSecret string,
	baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		users:       userstore.New(db),
		sessionMgr:  sessionMgr,
		audit:       audit,
		oauthStates: oauthStates,
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  baseURL + "/api/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		logger: logger,
	}
}

// Routes returns the Google sign-in router.
//
//	GET /         start the OAuth flow (optional ?redirect_to=/path)
//	GET /callback complete the flow and establish a session
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.startAuth)
	r.Post("/", h.startAuth)
	r.Get("/callback", h.handleCallback)
	return r
}

// startAuth initiates the Google OAuth flow.
func (h *Handler) startAuth(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		h.logger.Error("failed to generate oauth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=oauth_error", http.StatusSeeOther)
		return
	}

	// Only site-relative redirect targets are honored.
	redirectTo := r.URL.Query().Get("redirect_to")
	if !strings.HasPrefix(redirectTo, "/") || strings.HasPrefix(redirectTo, "//") {
		redirectTo = ""
	}

	if err := h.oauthStates.Create(r.Context(), state, redirectTo); err != nil {
		h.logger.Error("failed to store oauth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=oauth_error", http.StatusSeeOther)
		return
	}

	url := h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// handleCallback processes the Google OAuth callback. Accounts are created
// on first sign-in; disabled accounts are rejected.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		h.logger.Warn("oauth error from google", zap.String("error", errMsg))
		http.Redirect(w, r, "/login?error="+errMsg, http.StatusSeeOther)
		return
	}

	state := r.URL.Query().Get("state")
	redirectTo, ok := h.oauthStates.Consume(r.Context(), state)
	if !ok {
		h.logger.Warn("invalid oauth state")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}
	if redirectTo == "" {
		redirectTo = "/"
	}

	code := r.URL.Query().Get("code")
	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn("oauth code exchange failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange_failed", http.StatusSeeOther)
		return
	}

	userInfo, err := h.getUserInfo(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to get google user info", zap.Error(err))
		http.Redirect(w, r, "/login?error=userinfo_failed", http.StatusSeeOther)
		return
	}
	if userInfo.Email == "" {
		http.Redirect(w, r, "/login?error=userinfo_failed", http.StatusSeeOther)
		return
	}

	user, err := h.findOrCreateUser(r.Context(), r, userInfo)
	if err != nil {
		h.logger.Error("failed to resolve google user", zap.Error(err))
		http.Redirect(w, r, "/login?error=database_error", http.StatusSeeOther)
		return
	}

	if user.Status != "active" {
		h.audit.LoginFailedUserDisabled(r.Context(), r, user.ID, user.Email)
		http.Redirect(w, r, "/login?error=account_disabled", http.StatusSeeOther)
		return
	}

	if err := h.sessionMgr.CreateSession(w, r, user.ID, user.Role, ""); err != nil {
		h.logger.Error("failed to create session", zap.Error(err))
		http.Redirect(w, r, "/login?error=session_error", http.StatusSeeOther)
		return
	}

	h.audit.LoginSuccess(r.Context(), r, user.ID, models.AuthMethodGoogle, user.Email)
	http.Redirect(w, r, redirectTo, http.StatusSeeOther)
}

// findOrCreateUser looks up the user by the verified Google email, creating
// a regular account on first sign-in.
func (h *Handler) findOrCreateUser(ctx context.Context, r *http.Request, info *googleUserInfo) (*models.User, error) {
	user, err := h.users.GetByEmail(ctx, info.Email)
	if err == nil {
		return user, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}
	created, err := h.users.Create(ctx, models.User{
		FullName:   name,
		Email:      info.Email,
		AuthMethod: models.AuthMethodGoogle,
		Role:       models.RoleUser,
		Status:     "active",
	})
	if err != nil {
		// Concurrent first sign-in can race the insert.
		if err == userstore.ErrDuplicateEmail {
			return h.users.GetByEmail(ctx, info.Email)
		}
		return nil, err
	}

	h.audit.Registered(ctx, r, created.ID, models.AuthMethodGoogle, created.Email)
	return &created, nil
}

// googleUserInfo is the subset of the Google userinfo response we use.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// getUserInfo fetches user info from Google.
func (h *Handler) getUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := h.oauthConfig.Client(ctx, token)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var userInfo googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, err
	}
	return &userInfo, nil
}

// generateState generates a random state token.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
