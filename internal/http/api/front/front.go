// Package front registers the end-user routes.
package front

import (
	"github.com/gin-gonic/gin"
	"github.com/pixelwork/pixelwork/internal/auth"
	handlers "github.com/pixelwork/pixelwork/internal/http/api/front/handlers"
	"gorm.io/gorm"
)

// RegisterFrontRoutes registers end-user routes and handlers.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, svc *auth.Service, generator handlers.Generator, production bool) {
	if r == nil || db == nil {
		return
	}

	loginHandler := handlers.NewLoginHandler(svc, production)
	r.POST("/auth/login", loginHandler.Login)

	modelsHandler := handlers.NewModelsHandler(db, svc)
	r.GET("/models", modelsHandler.List)

	generateHandler := handlers.NewGenerateHandler(db, svc, generator)
	r.POST("/generate", generateHandler.Generate)
}
