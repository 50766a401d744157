package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant_pos_backend/internal/config"
	"restaurant_pos_backend/internal/database"
	"restaurant_pos_backend/internal/events"
	"restaurant_pos_backend/internal/middleware"
	"restaurant_pos_backend/internal/router"
	"restaurant_pos_backend/internal/telemetry"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize Logger
	utils.InitLogger(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		utils.LogError(err, "Failed to set up tracing")
		os.Exit(1)
	}

	db, err := database.InitDB(ctx, cfg.Database)
	if err != nil {
		utils.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}
	defer db.Close()

	tokens, err := utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	if err != nil {
		utils.LogError(err, "Failed to create token issuer")
		os.Exit(1)
	}
	utils.LogDebug("Token issuer ready", map[string]interface{}{"ttl": tokens.TTL().String()})

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.Telemetry.ServiceName)
		if err != nil {
			// Events are best effort; the POS keeps working without them.
			utils.LogWarn(err, "NATS unavailable, events disabled", map[string]interface{}{"url": cfg.NATS.URL})
		} else {
			publisher = natsPublisher
			utils.LogInfo("Publishing events to NATS", map[string]interface{}{"url": cfg.NATS.URL})
		}
	}
	defer publisher.Close()

	gin.SetMode(cfg.Server.GinMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestID(), utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, router.Dependencies{
		DB:         db,
		Tokens:     tokens,
		Publisher:  publisher,
		ReceiptDir: cfg.Storage.ReceiptDir,
		UploadDir:  cfg.Storage.UploadDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Server.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Server forced to shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		utils.LogWarn(err, "Failed to flush traces")
	}
	utils.LogInfo("Server exited")
}
