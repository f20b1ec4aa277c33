package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pixelwork/pixelwork/internal/auth"
	"github.com/pixelwork/pixelwork/internal/httperr"
	"github.com/pixelwork/pixelwork/internal/models"
	"gorm.io/gorm"
)

// ModelsHandler lists the generation models available to end users.
type ModelsHandler struct {
	db  *gorm.DB
	svc *auth.Service
}

// NewModelsHandler constructs a ModelsHandler.
func NewModelsHandler(db *gorm.DB, svc *auth.Service) *ModelsHandler {
	return &ModelsHandler{db: db, svc: svc}
}

// List returns the routing key and display name of every active provider.
func (h *ModelsHandler) List(c *gin.Context) {
	if _, errRequire := h.svc.RequireUser(c.Request.Context(), c.Request); errRequire != nil {
		httperr.Write(c, errRequire)
		return
	}

	var rows []models.ApiProvider
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list models failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"modelKey":    row.Name,
			"displayName": row.DisplayName,
		})
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"models": out})
}
