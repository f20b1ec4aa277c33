// Package admin registers the admin console routes.
package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/pixelwork/pixelwork/internal/auth"
	handlers "github.com/pixelwork/pixelwork/internal/http/api/admin/handlers"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers admin routes and handlers.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, svc *auth.Service, production bool) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	authHandler := handlers.NewAuthHandler(svc, production)
	r.POST("/admin/login", authHandler.Login)
	r.PUT("/admin/password", authHandler.UpdatePassword)

	providerHandler := handlers.NewProviderHandler(db, svc)
	r.GET("/admin/providers", providerHandler.List)
	r.POST("/admin/providers", providerHandler.Save)
	r.DELETE("/admin/providers/:id", providerHandler.Delete)

	userHandler := handlers.NewUserHandler(svc)
	r.GET("/admin/users", userHandler.List)
	r.POST("/admin/users", userHandler.Create)
	r.PATCH("/admin/users/:id", userHandler.Update)
	r.DELETE("/admin/users/:id", userHandler.Delete)
}
