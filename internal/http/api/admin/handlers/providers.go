package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixelwork/pixelwork/internal/auth"
	"github.com/pixelwork/pixelwork/internal/httperr"
	"github.com/pixelwork/pixelwork/internal/models"
	"github.com/pixelwork/pixelwork/internal/security"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProviderHandler manages upstream provider configurations.
type ProviderHandler struct {
	db  *gorm.DB
	svc *auth.Service
}

// NewProviderHandler constructs a ProviderHandler.
func NewProviderHandler(db *gorm.DB, svc *auth.Service) *ProviderHandler {
	return &ProviderHandler{db: db, svc: svc}
}

// List returns all providers, newest first, including the raw API key so
// admins can edit existing entries.
func (h *ProviderHandler) List(c *gin.Context) {
	if errRequire := h.svc.RequireAdmin(c.Request); errRequire != nil {
		httperr.Write(c, errRequire)
		return
	}

	var rows []models.ApiProvider
	if errFind := h.db.WithContext(c.Request.Context()).Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list providers failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":          row.ID,
			"name":        row.Name,
			"displayName": row.DisplayName,
			"modelId":     row.ModelID,
			"baseUrl":     row.BaseURL,
			"apiKey":      row.APIKey,
			"isActive":    row.IsActive,
			"createdAt":   row.CreatedAt,
			"updatedAt":   row.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"providers": out})
}

// Save creates a provider or, when an id is supplied, updates it. The API key
// is required on create and kept unchanged when omitted on update; the echo
// only ever carries the masked key.
func (h *ProviderHandler) Save(c *gin.Context) {
	if errRequire := h.svc.RequireAdmin(c.Request); errRequire != nil {
		httperr.Write(c, errRequire)
		return
	}

	var body struct {
		ID          *uint64           `json:"id"`
		Name        string            `json:"name"`
		DisplayName string            `json:"displayName"`
		ModelID     string            `json:"modelId"`
		BaseURL     string            `json:"baseUrl"`
		APIKey      string            `json:"apiKey"`
		Headers     map[string]string `json:"headers"`
		IsActive    *bool             `json:"isActive"`
	}
	if errBindJSON := c.ShouldBindJSON(&body); errBindJSON != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	name := strings.TrimSpace(body.Name)
	displayName := strings.TrimSpace(body.DisplayName)
	modelID := strings.TrimSpace(body.ModelID)
	baseURL := strings.TrimSpace(body.BaseURL)
	apiKey := strings.TrimSpace(body.APIKey)
	if name == "" || displayName == "" || modelID == "" || baseURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}
	if parsed, errParse := url.Parse(baseURL); errParse != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid baseUrl"})
		return
	}

	isActive := true
	if body.IsActive != nil {
		isActive = *body.IsActive
	}

	var headers datatypes.JSON
	if len(body.Headers) > 0 {
		encoded, errMarshal := json.Marshal(body.Headers)
		if errMarshal != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid headers"})
			return
		}
		headers = datatypes.JSON(encoded)
	}

	ctx := c.Request.Context()
	var saved models.ApiProvider

	if body.ID == nil {
		if apiKey == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "apiKey is required for create"})
			return
		}
		saved = models.ApiProvider{
			Name:        name,
			DisplayName: displayName,
			ModelID:     modelID,
			BaseURL:     baseURL,
			APIKey:      apiKey,
			Headers:     headers,
			IsActive:    isActive,
		}
		if errCreate := h.db.WithContext(ctx).Create(&saved).Error; errCreate != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create provider failed"})
			return
		}
	} else {
		changes := map[string]any{
			"name":         name,
			"display_name": displayName,
			"model_id":     modelID,
			"base_url":     baseURL,
			"is_active":    isActive,
			"updated_at":   time.Now().UTC(),
		}
		if apiKey != "" {
			changes["api_key"] = apiKey
		}
		if headers != nil {
			changes["headers"] = headers
		}
		res := h.db.WithContext(ctx).Model(&models.ApiProvider{}).Where("id = ?", *body.ID).Updates(changes)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update provider failed"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "provider not found"})
			return
		}
		if errFind := h.db.WithContext(ctx).First(&saved, *body.ID).Error; errFind != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "load provider failed"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"provider": gin.H{
			"id":           saved.ID,
			"name":         saved.Name,
			"displayName":  saved.DisplayName,
			"modelId":      saved.ModelID,
			"baseUrl":      saved.BaseURL,
			"apiKeyMasked": security.MaskSecret(saved.APIKey),
			"hasApiKey":    saved.APIKey != "",
			"isActive":     saved.IsActive,
			"createdAt":    saved.CreatedAt,
			"updatedAt":    saved.UpdatedAt,
		},
	})
}

// Delete removes a provider by ID.
func (h *ProviderHandler) Delete(c *gin.Context) {
	if errRequire := h.svc.RequireAdmin(c.Request); errRequire != nil {
		httperr.Write(c, errRequire)
		return
	}

	id, errParseUint := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParseUint != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing id"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(&models.ApiProvider{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete provider failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "provider not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
