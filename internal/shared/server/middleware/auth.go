package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"internship-backend/internal/shared/auth"
	"internship-backend/internal/shared/server/respond"
)

const (
	userIDKey = "userId"
	actorKey  = "actor"
)

// SessionVerifier verifies bearer tokens.
type SessionVerifier interface {
	VerifySession(token string) (auth.Claims, error)
}

// AuthConfig controls how callers are identified.
type AuthConfig struct {
	Verifier SessionVerifier
	// AllowHeaderIdentity accepts X-User-Id / X-User-Role / X-Department-Id. Dev only.
	AllowHeaderIdentity bool
	// PublicPrefixes are path prefixes served without identity.
	PublicPrefixes []string
}

// Auth validates bearer JWTs (or dev identity headers) and stores the actor in context.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		for _, prefix := range cfg.PublicPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") || cfg.Verifier == nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			claims, err := cfg.Verifier.VerifySession(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			setActor(c, claims.Actor())
			c.Next()
			return
		}

		if cfg.AllowHeaderIdentity {
			if actor, ok := actorFromHeaders(c); ok {
				setActor(c, actor)
				c.Next()
				return
			}
		}

		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing identity", nil)
	}
}

func actorFromHeaders(c *gin.Context) (auth.Actor, bool) {
	userID := strings.TrimSpace(c.GetHeader("X-User-Id"))
	if userID == "" {
		return auth.Actor{}, false
	}
	role, ok := auth.ParseRole(c.GetHeader("X-User-Role"))
	if !ok {
		return auth.Actor{}, false
	}
	actor := auth.Actor{UserID: userID, Role: role}
	if raw := strings.TrimSpace(c.GetHeader("X-Department-Id")); raw != "" {
		dept, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return auth.Actor{}, false
		}
		actor.DepartmentID = &dept
	}
	return actor, true
}

func setActor(c *gin.Context, actor auth.Actor) {
	c.Set(userIDKey, actor.UserID)
	c.Set(actorKey, actor)
}

// ActorFromContext returns the caller resolved by Auth.
func ActorFromContext(c *gin.Context) (auth.Actor, bool) {
	if c == nil {
		return auth.Actor{}, false
	}
	val, ok := c.Get(actorKey)
	if !ok {
		return auth.Actor{}, false
	}
	actor, ok := val.(auth.Actor)
	return actor, ok
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
