package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"internship-backend/internal/applications"
	"internship-backend/internal/audit"
	googleauth "internship-backend/internal/auth"
	"internship-backend/internal/notifications"
	"internship-backend/internal/services/health"
	"internship-backend/internal/shared/config"
	"internship-backend/internal/shared/metrics"
	"internship-backend/internal/shared/server/middleware"
	"internship-backend/internal/shared/server/respond"
	"internship-backend/internal/users"
)

const (
	apiPrefix        = "/api/v1"
	uploadRoute      = apiPrefix + "/applications/:id/documents/:docType"
	uploadLimitGroup = "UPLOAD"
)

// RouterDeps carries the handlers and collaborators the router mounts.
type RouterDeps struct {
	Config               config.Config
	Verifier             middleware.SessionVerifier
	Limiter              middleware.Limiter
	Health               *health.Service
	GoogleAuth           *googleauth.GoogleService
	UsersHandler         *users.Handler
	ApplicationsHandler  *applications.Handler
	AuditHandler         *audit.Handler
	NotificationsHandler *notifications.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	cfg := deps.Config

	r.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logging(),
		metrics.Middleware(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(middleware.AuthConfig{
			Verifier:            deps.Verifier,
			AllowHeaderIdentity: cfg.DevLike(),
			PublicPrefixes:      []string{apiPrefix + "/auth/google/", apiPrefix + "/health", "/metrics"},
		}),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT":        {Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
				uploadLimitGroup: {Rate: cfg.UploadRateLimitRPS, Burst: cfg.UploadRateLimitBurst},
			},
			GroupFor: rateLimitGroup,
			Limiter:  deps.Limiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group(apiPrefix)
	api.GET("/health", func(c *gin.Context) {
		body, ok := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, body)
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.ApplicationsHandler != nil {
		deps.ApplicationsHandler.RegisterRoutes(api)
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.RegisterRoutes(api)
	}
	if deps.NotificationsHandler != nil {
		deps.NotificationsHandler.RegisterRoutes(api)
	}

	return r
}

func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && c.FullPath() == uploadRoute {
		return uploadLimitGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
