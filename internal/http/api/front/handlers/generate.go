package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pixelwork/pixelwork/internal/auth"
	"github.com/pixelwork/pixelwork/internal/httperr"
	"github.com/pixelwork/pixelwork/internal/models"
	"github.com/pixelwork/pixelwork/internal/upstream"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Generator performs one generation call against a provider.
type Generator interface {
	Generate(ctx context.Context, provider *models.ApiProvider, input upstream.GenerateInput) (upstream.InlineImage, error)
}

// GenerateHandler forwards prompts to the selected provider and records
// usage on success.
type GenerateHandler struct {
	db        *gorm.DB
	svc       *auth.Service
	generator Generator
}

// NewGenerateHandler constructs a GenerateHandler.
func NewGenerateHandler(db *gorm.DB, svc *auth.Service, generator Generator) *GenerateHandler {
	return &GenerateHandler{db: db, svc: svc, generator: generator}
}

// Generate runs one image generation for the authenticated user.
func (h *GenerateHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()
	user, errRequire := h.svc.RequireUser(ctx, c.Request)
	if errRequire != nil {
		httperr.Write(c, errRequire)
		return
	}

	var body struct {
		Prompt      string                `json:"prompt"`
		ModelKey    string                `json:"modelKey"`
		InputImage  *upstream.InlineImage `json:"inputImage"`
		AspectRatio string                `json:"aspectRatio"`
		ImageSize   string                `json:"imageSize"`
	}
	if errBindJSON := c.ShouldBindJSON(&body); errBindJSON != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	prompt := strings.TrimSpace(body.Prompt)
	if prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing prompt"})
		return
	}
	if body.ModelKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing modelKey"})
		return
	}
	if body.InputImage != nil && (body.InputImage.MimeType == "" || body.InputImage.Data == "") {
		body.InputImage = nil
	}

	// Several providers may share a routing key; the newest active one wins.
	var provider models.ApiProvider
	errFind := h.db.WithContext(ctx).
		Where("is_active = ? AND name = ?", true, body.ModelKey).
		Order("created_at DESC").
		First(&provider).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no active provider for model"})
		return
	}
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load provider failed"})
		return
	}

	image, errGenerate := h.generator.Generate(ctx, &provider, upstream.GenerateInput{
		Prompt:      prompt,
		InputImage:  body.InputImage,
		AspectRatio: body.AspectRatio,
		ImageSize:   body.ImageSize,
	})
	if errGenerate != nil {
		if errors.Is(errGenerate, upstream.ErrNoImage) {
			c.JSON(http.StatusBadGateway, gin.H{"error": errGenerate.Error()})
			return
		}
		httperr.Write(c, errGenerate)
		return
	}

	usage, errRecord := h.svc.RecordGeneration(ctx, user.ID, provider.DisplayName)
	if errRecord != nil {
		log.WithError(errRecord).Error("record generation usage failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record usage failed"})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{
		"model": gin.H{
			"modelKey":    provider.Name,
			"displayName": provider.DisplayName,
		},
		"image": image,
		"usage": gin.H{
			"usageCount": usage.UsageCount,
			"lastUsedAt": usage.LastUsedAt,
		},
	})
}
