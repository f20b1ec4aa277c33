// Package app wires configuration, storage, and the HTTP surface together.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixelwork/pixelwork/internal/auth"
	"github.com/pixelwork/pixelwork/internal/config"
	"github.com/pixelwork/pixelwork/internal/db"
	relayhttp "github.com/pixelwork/pixelwork/internal/http"
	"github.com/pixelwork/pixelwork/internal/http/api/admin"
	"github.com/pixelwork/pixelwork/internal/http/api/front"
	fronthandlers "github.com/pixelwork/pixelwork/internal/http/api/front/handlers"
	"github.com/pixelwork/pixelwork/internal/security"
	"github.com/pixelwork/pixelwork/internal/upstream"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// defaultPort is used when the config omits a listen port.
const defaultPort = 8318

// NewEngine builds the HTTP engine with all middleware and routes attached.
func NewEngine(conn *gorm.DB, codec *security.Codec, generator fronthandlers.Generator, production bool) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(relayhttp.RequestID())
	engine.Use(relayhttp.AccessLog())
	engine.Use(relayhttp.CORS())
	engine.Use(relayhttp.SessionGate(codec))

	svc := auth.NewService(conn, codec)
	admin.RegisterAdminRoutes(engine, conn, svc, production)
	front.RegisterFrontRoutes(engine, conn, svc, generator, production)
	return engine
}

// RunServer boots the relay server and blocks until ctx is canceled or the
// listener fails.
func RunServer(ctx context.Context, cfg config.Config) error {
	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	log.Infof("database ready (%s)", db.DialectName(conn))

	codec, errCodec := security.NewCodec(cfg.JWT.Secret)
	if errCodec != nil {
		return errCodec
	}

	gin.SetMode(gin.ReleaseMode)
	engine := NewEngine(conn, codec, upstream.NewClient(), cfg.Production)

	port := cfg.Port
	if port <= 0 {
		port = defaultPort
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, port)
	srv := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			log.Errorf("server shutdown error: %v", errShutdown)
		}
	}()

	log.Infof("starting server on %s", addr)
	if errListen := srv.ListenAndServe(); errListen != nil && errListen != http.ErrServerClosed {
		return errListen
	}
	return nil
}
