package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pixelwork/pixelwork/internal/auth"
	"github.com/pixelwork/pixelwork/internal/httperr"
	"github.com/pixelwork/pixelwork/internal/models"
)

// UserHandler manages issued user access keys.
type UserHandler struct {
	svc *auth.Service
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(svc *auth.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// userSummary maps a user key row to its admin-facing JSON shape.
func userSummary(row models.UserKey) gin.H {
	usages := make([]gin.H, 0, len(row.Usages))
	for _, usage := range row.Usages {
		usages = append(usages, gin.H{
			"modelName": usage.ModelName,
			"count":     usage.Count,
		})
	}
	return gin.H{
		"id":         row.ID,
		"keyId":      row.KeyID,
		"name":       row.Name,
		"plainKey":   row.PlainKey,
		"usageCount": row.UsageCount,
		"lastUsedAt": row.LastUsedAt,
		"isActive":   row.IsActive,
		"createdAt":  row.CreatedAt,
		"updatedAt":  row.UpdatedAt,
		"usages":     usages,
	}
}

// List returns all user keys with their per-model usage breakdown.
func (h *UserHandler) List(c *gin.Context) {
	if errRequire := h.svc.RequireAdmin(c.Request); errRequire != nil {
		httperr.Write(c, errRequire)
		return
	}

	rows, errList := h.svc.ListUserKeys(c.Request.Context())
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list users failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, userSummary(row))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// Create issues a new user key. Without a supplied key a random secret is
// generated and returned exactly once.
func (h *UserHandler) Create(c *gin.Context) {
	if errRequire := h.svc.RequireAdmin(c.Request); errRequire != nil {
		httperr.Write(c, errRequire)
		return
	}

	var body struct {
		Name string `json:"name"`
		Key  string `json:"key"`
	}
	if errBindJSON := c.ShouldBindJSON(&body); errBindJSON != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}

	user, secret, errCreate := h.svc.CreateUserKey(c.Request.Context(), name, strings.TrimSpace(body.Key))
	if errCreate != nil {
		httperr.Write(c, errCreate)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusCreated, gin.H{"user": userSummary(*user), "key": secret})
}

// Update applies a partial edit to a user key.
func (h *UserHandler) Update(c *gin.Context) {
	if errRequire := h.svc.RequireAdmin(c.Request); errRequire != nil {
		httperr.Write(c, errRequire)
		return
	}

	id, errParseUint := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParseUint != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing id"})
		return
	}

	var body struct {
		Name     *string `json:"name"`
		Key      *string `json:"key"`
		IsActive *bool   `json:"isActive"`
	}
	if errBindJSON := c.ShouldBindJSON(&body); errBindJSON != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	update := auth.UserKeyUpdate{IsActive: body.IsActive}
	if body.Name != nil {
		trimmed := strings.TrimSpace(*body.Name)
		update.Name = &trimmed
	}
	if body.Key != nil {
		trimmed := strings.TrimSpace(*body.Key)
		update.PlainKey = &trimmed
	}

	user, errUpdate := h.svc.UpdateUserKey(c.Request.Context(), id, update)
	if errUpdate != nil {
		httperr.Write(c, errUpdate)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"user": userSummary(*user)})
}

// Delete hard-deletes a user key and its usage rows.
func (h *UserHandler) Delete(c *gin.Context) {
	if errRequire := h.svc.RequireAdmin(c.Request); errRequire != nil {
		httperr.Write(c, errRequire)
		return
	}

	id, errParseUint := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParseUint != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing id"})
		return
	}
	if errDelete := h.svc.DeleteUserKey(c.Request.Context(), id); errDelete != nil {
		httperr.Write(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
