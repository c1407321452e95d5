// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"
	"time"

	authapifeature "github.com/wellspringhq/wellspring/internal/app/features/authapi"
	authgooglefeature "github.com/wellspringhq/wellspring/internal/app/features/authgoogle"
	blogfeature "github.com/wellspringhq/wellspring/internal/app/features/blog"
	coursesfeature "github.com/wellspringhq/wellspring/internal/app/features/courses"
	eventsfeature "github.com/wellspringhq/wellspring/internal/app/features/events"
	healthfeature "github.com/wellspringhq/wellspring/internal/app/features/health"
	lessonsfeature "github.com/wellspringhq/wellspring/internal/app/features/lessons"
	membershipsfeature "github.com/wellspringhq/wellspring/internal/app/features/memberships"
	profilefeature "github.com/wellspringhq/wellspring/internal/app/features/profile"
	settingsfeature "github.com/wellspringhq/wellspring/internal/app/features/settings"
	soulcarefeature "github.com/wellspringhq/wellspring/internal/app/features/soulcare"
	uploadsfeature "github.com/wellspringhq/wellspring/internal/app/features/uploads"
	"github.com/wellspringhq/wellspring/internal/app/store/audit"
	"github.com/wellspringhq/wellspring/internal/app/store/oauthstate"
	"github.com/wellspringhq/wellspring/internal/app/store/ratelimit"
	userstore "github.com/wellspringhq/wellspring/internal/app/store/users"
	"github.com/wellspringhq/wellspring/internal/app/system/apicors"
	"github.com/wellspringhq/wellspring/internal/app/system/auditlog"
	"github.com/wellspringhq/wellspring/internal/app/system/auth"
	"github.com/wellspringhq/wellspring/internal/app/system/jsonutil"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// The API is mounted twice:
//   - /api      session-cookie authentication with CSRF protection, used by
//     the site's own frontend
//   - /api/v1   bearer-token (JWT) authentication with permissive CORS and
//     no CSRF, used by external clients that exchanged a session for a
//     token at POST /api/auth/token
//
// Both mounts share the same feature routers; handlers read the user from
// the request context regardless of how it was authenticated.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user data on each session request so role changes, disabled
	// accounts, and membership updates take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase, logger))

	tokens, err := auth.NewTokenIssuer(appCfg.JWTSecret, appCfg.JWTTTL)
	if err != nil {
		logger.Error("token issuer init failed", zap.Error(err))
		return nil, err
	}

	auditStore := audit.New(deps.MongoDatabase)
	auditLogger := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	var rateLimitStore *ratelimit.Store
	if appCfg.RateLimitEnabled {
		rateLimitStore = ratelimit.New(
			deps.MongoDatabase,
			appCfg.RateLimitLoginAttempts,
			appCfg.RateLimitLoginWindow,
			appCfg.RateLimitLoginLockout,
		)
	}

	/*──────────────────────────── feature handlers ───────────────────────*/

	authHandler := authapifeature.NewHandler(
		deps.MongoDatabase,
		sessionMgr,
		tokens,
		deps.Mailer,
		auditLogger,
		rateLimitStore,
		appCfg.BaseURL,
		appCfg.OTPExpiry,
		logger,
	)
	profileHandler := profilefeature.NewHandler(deps.MongoDatabase, sessionMgr, auditLogger, logger)
	blogHandler := blogfeature.NewHandler(deps.MongoDatabase, deps.FileStorage, auditLogger, logger)
	coursesHandler := coursesfeature.NewHandler(deps.MongoDatabase, sessionMgr, auditLogger, logger)
	lessonsHandler := lessonsfeature.NewHandler(deps.MongoDatabase, sessionMgr, auditLogger, logger)
	eventsHandler := eventsfeature.NewHandler(deps.MongoDatabase, sessionMgr, deps.Mailer, auditLogger, logger)
	membershipsHandler := membershipsfeature.NewHandler(deps.MongoDatabase, sessionMgr, deps.Mailer, auditLogger, logger)
	soulcareHandler := soulcarefeature.NewHandler(deps.MongoDatabase, auditLogger, logger)
	uploadsHandler := uploadsfeature.NewHandler(deps.FileStorage, auditLogger, logger)
	settingsHandler := settingsfeature.NewHandler(deps.MongoDatabase, deps.FileStorage, auditLogger, logger)

	googleEnabled := appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret != ""
	var googleHandler *authgooglefeature.Handler
	if googleEnabled {
		googleHandler = authgooglefeature.NewHandler(
			deps.MongoDatabase,
			sessionMgr,
			auditLogger,
			oauthstate.New(deps.MongoDatabase),
			appCfg.GoogleClientID,
			appCfg.GoogleClientSecret,
			appCfg.BaseURL,
			logger,
		)
		logger.Info("Google sign-in enabled",
			zap.String("redirect_url", appCfg.BaseURL+"/api/auth/google/callback"))
	}

	// api carries every feature route. It is mounted under both /api
	// (session) and /api/v1 (bearer).
	api := chi.NewRouter()

	if googleEnabled {
		api.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	}
	api.Mount("/auth", authapifeature.Routes(authHandler))

	api.Mount("/me/membership", membershipsfeature.MeRoutes(membershipsHandler))
	api.Mount("/me", profilefeature.Routes(profileHandler))

	api.Mount("/blog", blogfeature.Routes(blogHandler))
	api.Mount("/courses", coursesfeature.Routes(coursesHandler))
	api.Mount("/lessons", lessonsfeature.Routes(lessonsHandler))
	api.Mount("/events", eventsfeature.Routes(eventsHandler))
	api.Mount("/tiers", membershipsfeature.Routes(membershipsHandler))
	api.Mount("/soulcare", soulcarefeature.Routes(soulcareHandler))
	api.Mount("/settings", settingsfeature.Routes(settingsHandler))

	api.Route("/admin", func(ar chi.Router) {
		ar.Use(sessionMgr.RequireRole("admin"))
		ar.Mount("/blog", blogfeature.AdminRoutes(blogHandler))
		ar.Mount("/courses", coursesfeature.AdminRoutes(coursesHandler))
		ar.Mount("/lessons", lessonsfeature.AdminRoutes(lessonsHandler))
		ar.Mount("/events", eventsfeature.AdminRoutes(eventsHandler))
		ar.Mount("/tiers", membershipsfeature.AdminRoutes(membershipsHandler))
		ar.Mount("/soulcare", soulcarefeature.AdminRoutes(soulcareHandler))
		ar.Mount("/uploads", uploadsfeature.AdminRoutes(uploadsHandler))
		ar.Mount("/settings", settingsfeature.AdminRoutes(settingsHandler))
	})

	/*──────────────────────────── root router ────────────────────────────*/

	r := chi.NewRouter()

	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Session middleware loads SessionUser into context if logged in.
	// Bearer routes have no session cookie, which is fine; BearerAuth
	// injects the user there.
	r.Use(sessionMgr.LoadSessionUser)

	// CSRF protection for session-cookie routes. The bearer API under
	// /api/v1 authenticates with tokens and is exempt.
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("wellspring_csrf"),
		csrf.FieldName("csrf_token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			jsonutil.Forbidden(w, "CSRF token invalid or missing")
		})),
	}
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
		}))
	}
	if appCfg.SessionDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.SessionDomain))
	}
	csrfProtect := csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)

	csrfMiddleware := func(next http.Handler) http.Handler {
		csrfHandler := csrfProtect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.HasPrefix(req.URL.Path, "/api/v1/") || strings.HasPrefix(req.URL.Path, "/health") {
				next.ServeHTTP(w, req)
				return
			}
			csrfHandler.ServeHTTP(w, req)
		})
	}
	r.Use(csrfMiddleware)

	// Bearer-token API for external clients.
	r.Route("/api/v1", func(vr chi.Router) {
		vr.Use(apicors.Middleware())
		vr.Use(auth.BearerAuth(tokens, logger))
		vr.Mount("/", api)
	})

	// Session-cookie API for the site frontend.
	r.Mount("/api", api)

	// Health check endpoints for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Mailer.Enabled(), logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Uploaded files (local storage only). S3 storage serves through
	// CloudFront URLs instead.
	if appCfg.StorageType == "local" || appCfg.StorageType == "" {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		jsonutil.NotFound(w, "not found")
	})

	return r, nil
}
