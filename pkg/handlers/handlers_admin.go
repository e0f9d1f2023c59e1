package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/arnavshah/allocation-api-go/pkg/apierr"
	"github.com/arnavshah/allocation-api-go/pkg/auth"
	"github.com/arnavshah/allocation-api-go/pkg/database"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Login handles admin login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, badRequest(err))
		return
	}

	invalid := apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("invalid credentials"))

	var user database.MasterUser
	if err := h.DB.WithContext(c.Request.Context()).Where("username = ?", req.Username).First(&user).Error; err != nil {
		apierr.Respond(c, invalid)
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		h.Log.Warn("Failed admin login", "username", req.Username)
		apierr.Respond(c, invalid)
		return
	}

	token, err := h.Auth.CreateToken(user.Username, user.Role)
	if err != nil {
		h.Log.Error("Could not create token", "username", user.Username, "error", err)
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer", "role": user.Role})
}

// GenerateKey creates a new API key using the HMAC strategy
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		RateLimit int    `json:"rate_limit" binding:"gte=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, badRequest(err))
		return
	}

	if req.RateLimit == 0 {
		req.RateLimit = h.DefaultRateLimit
	}

	key := h.Auth.GenerateHMACKey(req.Name)
	db := h.DB.WithContext(c.Request.Context())

	// Keys are derived from the name, so issuing a name again reactivates its record.
	var apiKey database.APIKey
	err := db.Where(database.APIKey{Key: key}).First(&apiKey).Error
	switch {
	case err == nil:
		err = db.Model(&apiKey).Updates(map[string]interface{}{
			"rate_limit": req.RateLimit,
			"revoked_at": nil,
		}).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		apiKey = database.APIKey{
			Key:        key,
			Name:       req.Name,
			KeyPreview: auth.KeyPreview(key),
			RateLimit:  req.RateLimit,
		}
		err = db.Create(&apiKey).Error
	}
	if err != nil {
		h.Log.Error("Could not store API key", "key_name", req.Name, "error", err)
		apierr.Respond(c, err)
		return
	}

	h.Log.Info("API key generated", "key_id", apiKey.ID, "key_name", req.Name, "by", c.GetString("username"))
	c.JSON(http.StatusOK, gin.H{
		"id":         apiKey.ID,
		"name":       req.Name,
		"key":        key,
		"rate_limit": req.RateLimit,
	})
}

// ListKeys returns all API keys
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	if err := h.DB.WithContext(c.Request.Context()).Order("id").Find(&keys).Error; err != nil {
		h.Log.Error("Failed to list API keys", "error", err)
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey marks an API key revoked. The record is kept so the key, which
// stays correctly signed, cannot be re-registered on its next request.
func (h *Handler) RevokeKey(c *gin.Context) {
	id, err := keyID(c)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	now := time.Now()
	res := h.DB.WithContext(c.Request.Context()).Model(&database.APIKey{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", &now)
	if res.Error != nil {
		h.Log.Error("Failed to revoke API key", "key_id", id, "error", res.Error)
		apierr.Respond(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		apierr.Respond(c, apierr.New(http.StatusNotFound, "not_found", errors.New("key not found")))
		return
	}
	h.Log.Info("API key revoked", "key_id", id, "by", c.GetString("username"))
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// CreateUser adds an admin or manager account
func (h *Handler) CreateUser(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role" binding:"required,oneof=admin manager"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, badRequest(err))
		return
	}

	hash, err := h.Auth.HashPassword(req.Password)
	if err != nil {
		h.Log.Error("Could not hash password", "username", req.Username, "error", err)
		apierr.Respond(c, err)
		return
	}
	user := database.MasterUser{Username: req.Username, PasswordHash: hash, Role: req.Role}
	if err := h.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		apierr.Respond(c, apierr.New(http.StatusConflict, "conflict", errors.New("username already exists")))
		return
	}

	h.Log.Info("User created", "username", user.Username, "role", user.Role, "by", c.GetString("username"))
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// UpdateKeyLimit updates the rate limit for a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id, err := keyID(c)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}

	// Try JSON first, then Form/Query
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			apierr.Respond(c, badRequest(errors.New("rate_limit is required")))
			return
		}
	}

	if req.RateLimit <= 0 {
		apierr.Respond(c, badRequest(errors.New("invalid rate limit")))
		return
	}

	res := h.DB.WithContext(c.Request.Context()).Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", req.RateLimit)
	if res.Error != nil {
		h.Log.Error("Failed to update rate limit", "key_id", id, "error", res.Error)
		apierr.Respond(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		apierr.Respond(c, apierr.New(http.StatusNotFound, "not_found", errors.New("key not found")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}

// GetUsage returns usage stats for a key
func (h *Handler) GetUsage(c *gin.Context) {
	id, err := keyID(c)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	usage, err := database.RecentUsage(c.Request.Context(), h.DB, id)
	if err != nil {
		h.Log.Error("Could not fetch usage details", "key_id", id, "error", err)
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}

func keyID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, badRequest(errors.New("key id must be a number"))
	}
	return uint(id), nil
}
