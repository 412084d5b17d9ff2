package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"stagepass/internal/cache"
	"stagepass/internal/models"
	"stagepass/internal/monitoring"
	"stagepass/internal/repository"

	"github.com/gin-gonic/gin"
)

// Ctx key and helpers for the authenticated principal.
// Using unexported type to avoid collisions.

type ctxKey string

const principalKey ctxKey = "principal"

func ContextWithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	v := ctx.Value(principalKey)
	if v == nil {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}

// MustPrincipal returns the request principal from a gin context. Routes
// behind BasicAuth always have one.
func MustPrincipal(c *gin.Context) models.Principal {
	p, _ := PrincipalFromContext(c.Request.Context())
	return p
}

// CORS handles cross-origin requests
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}

		c.Next()
	}
}

// Logger emits one structured log line per request
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)

		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}

		if p, ok := PrincipalFromContext(c.Request.Context()); ok {
			logFields = append(logFields, "user_id", p.UserID)
		}

		if c.Writer.Status() >= 400 {
			if len(c.Errors) > 0 {
				logFields = append(logFields, "error", c.Errors.String())
			}
			slog.Error("Request completed with error", logFields...)
		}
	}
}

// Metrics records prometheus counters and latency per route
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		monitoring.TrackHTTPRequest(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}

// Recovery recovers from panics with detailed logging
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		slog.Error("PANIC recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
	})
}

// BasicAuth authenticates the caller via HTTP Basic Auth, checking the Redis
// auth cache first and falling back to the users table. On success the
// principal (id + staff flag) is attached to the request context.
func BasicAuth(userRepo *repository.UserRepository, cacheClient *cache.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", "Basic realm=\"Restricted\"")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"kind": "authentication_error", "message": "credentials required"})
			return
		}

		ctx := c.Request.Context()

		hash := sha256.Sum256([]byte(password))
		passwordHash := fmt.Sprintf("%x", hash)

		if cacheClient != nil {
			if userID, err := cacheClient.GetUserIDByAuth(ctx, email, passwordHash); err == nil {
				// Staff flag is not cached; cheap lookup by primary key.
				user, err := userRepo.GetByID(ctx, userID)
				if err == nil && user != nil && user.IsActive {
					attachPrincipal(c, user)
					c.Next()
					return
				}
			}
		}

		user, err := userRepo.GetByEmail(ctx, email)
		if err != nil || user == nil || !user.IsActive || user.PasswordHash != passwordHash {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"kind": "authentication_error", "message": "invalid credentials"})
			return
		}

		if cacheClient != nil {
			_ = cacheClient.StoreUserAuth(ctx, email, passwordHash, user.ID)
		}

		attachPrincipal(c, user)
		c.Next()
	}
}

func attachPrincipal(c *gin.Context, user *models.User) {
	p := models.Principal{UserID: user.ID, IsStaff: user.IsStaff}
	c.Set("user_id", user.ID)
	c.Request = c.Request.WithContext(ContextWithPrincipal(c.Request.Context(), p))
}

// RequireStaff rejects non-staff principals. Must run after BasicAuth.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFromContext(c.Request.Context())
		if !ok || !p.IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"kind": "permission_denied", "message": "staff access required"})
			return
		}
		c.Next()
	}
}
