package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/arnavshah/allocation-api-go/pkg/apierr"
	"github.com/arnavshah/allocation-api-go/pkg/auth"
	"github.com/arnavshah/allocation-api-go/pkg/database"
	"github.com/arnavshah/allocation-api-go/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with an id, reusing the caller's when present
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("requestID"),
		}
		if keyName := c.GetString("userID"); keyName != "" {
			fields = append(fields, "key_name", keyName)
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			apierr.Respond(c, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("authorization header required")))
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			apierr.Respond(c, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("invalid token")))
			return
		}

		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRole lets the request through only when the JWT role is one of roles
func (h *Handler) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		apierr.Respond(c, apierr.New(http.StatusForbidden, "forbidden", errors.New("role "+role+" may not access this resource")))
	}
}

// APIKeyMiddleware verifies the API key for planner routes using HMAC
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			apierr.Respond(c, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("API key required")))
			return
		}

		userID, err := h.Auth.VerifyHMACKey(key)
		if err != nil {
			apierr.Respond(c, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("invalid API key signature")))
			return
		}

		// Keys signed offline (cmd/keygen) get a record on first use; Attrs only
		// applies on create so an admin-set rate limit is never part of the lookup.
		var apiKey database.APIKey
		err = h.DB.WithContext(c.Request.Context()).
			Where(database.APIKey{Key: key}).
			Attrs(database.APIKey{
				KeyPreview: auth.KeyPreview(key),
				Name:       userID,
				RateLimit:  h.DefaultRateLimit,
			}).
			FirstOrCreate(&apiKey).Error
		if err != nil {
			h.Log.Error("Failed to load API key record", "key_name", userID, "error", err)
			apierr.Respond(c, apierr.New(http.StatusInternalServerError, "internal", errors.New("could not load API key")))
			return
		}
		if apiKey.Revoked() {
			apierr.Respond(c, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("API key has been revoked")))
			return
		}

		now := time.Now()
		if err := h.DB.Model(&apiKey).Update("last_used", &now).Error; err != nil {
			h.Log.Warn("Failed to touch API key", "key_id", apiKey.ID, "error", err)
		}

		c.Set("apiKey", &apiKey)
		c.Set("userID", userID)
		c.Next()
	}
}

// QuotaMiddleware counts every planner request against its key and rejects
// requests once the key has used its daily rate limit
func (h *Handler) QuotaMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey, ok := currentKey(c)
		if !ok || h.Limiter == nil {
			c.Next()
			return
		}
		allowed, err := h.Limiter.Allow(c.Request.Context(), apiKey.ID, apiKey.RateLimit)
		if err != nil {
			// Fail open; quota storage problems must not block planning.
			h.Log.Warn("Quota check failed", "key_id", apiKey.ID, "error", err)
			c.Next()
			return
		}
		if !allowed {
			apierr.Respond(c, apierr.New(http.StatusTooManyRequests, "rate_limited", errors.New("daily request limit reached")))
			return
		}
		c.Next()
	}
}

func bearer(c *gin.Context) string {
	v := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(v) > 7 && strings.EqualFold(v[:7], "Bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return v
}

func currentKey(c *gin.Context) (*database.APIKey, bool) {
	raw, exists := c.Get("apiKey")
	if !exists {
		return nil, false
	}
	apiKey, ok := raw.(*database.APIKey)
	return apiKey, ok
}
