package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/kasir-app/cart"
	"github.com/yeremiapane/kasir-app/config"
	"github.com/yeremiapane/kasir-app/database"
	"github.com/yeremiapane/kasir-app/models"
	"github.com/yeremiapane/kasir-app/queue"
	"github.com/yeremiapane/kasir-app/realtime"
	"github.com/yeremiapane/kasir-app/repository"
	"github.com/yeremiapane/kasir-app/router"
	"github.com/yeremiapane/kasir-app/services"
	"github.com/yeremiapane/kasir-app/utils"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize DB
	db, err := config.InitDB(cfg.DB)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db, logger); err != nil {
		logger.Fatalf("Failed to migrate: %v", err)
	}
	if err := database.SeedAdmin(db, cfg.SeedAdminEmail, cfg.SeedAdminPassword, logger); err != nil {
		logger.Fatalf("Failed to seed admin: %v", err)
	}
	if cfg.SeedMenu {
		products, err := database.SeedMenu(db)
		if err != nil {
			logger.Fatalf("Failed to seed menu: %v", err)
		}
		logger.WithField("products", len(products)).Info("Menu ready")
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	hub := realtime.NewHub(logger)
	transport, err := buildTransport(cfg, db, hub, tokens, logger)
	if err != nil {
		logger.Fatalf("Failed to build notification transport: %v", err)
	}
	codec, err := realtime.CodecByName(cfg.Realtime.Codec)
	if err != nil {
		logger.Fatalf("Invalid notification codec: %v", err)
	}
	fabric := realtime.NewFabric(transport, logger,
		realtime.WithCodec(codec),
		realtime.WithChannel(cfg.Realtime.Channel),
		realtime.WithConnectTimeout(cfg.Realtime.ConnectTimeout),
	)

	products := repository.NewProductRepository(db)
	staff := repository.NewStaffRepository(db)
	orders := repository.NewOrderRepository(db, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vm := queue.NewViewModel(orders, logger, cfg.QueueRefreshTimeout)
	vmDone := make(chan struct{})
	go func() {
		defer close(vmDone)
		vm.Run(ctx, fabric)
	}()

	service := services.NewOrderService(orders, products, fabric, logger)

	r := router.SetupRouter(router.Dependencies{
		Products:   products,
		Staff:      staff,
		Orders:     orders,
		Service:    service,
		Carts:      cart.NewStore(),
		Queue:      vm,
		Hub:        hub,
		Tokens:     tokens,
		Logger:     logger,
		CORSOrigin: cfg.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":          cfg.Port,
			"realtime_mode": cfg.Realtime.Mode,
			"codec":         codec.Name(),
		}).Info("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown failed")
	}

	<-vmDone
	_ = fabric.Close()
	hub.Close()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// buildTransport memilih jalur notifikasi sesuai REALTIME_MODE.
func buildTransport(cfg *config.Config, db *gorm.DB, hub *realtime.Hub, tokens *utils.TokenManager, logger *logrus.Logger) (realtime.Transport, error) {
	switch cfg.Realtime.Mode {
	case "remote":
		if cfg.Realtime.URL == "" {
			return nil, errors.New("REALTIME_URL is required in remote mode")
		}
		return realtime.NewWSTransport(cfg.Realtime.URL, relayHeader(tokens, "relay-"+cfg.Port)), nil
	case "store":
		return realtime.NewStoreTransport(db, logger, cfg.Realtime.PollInterval, cfg.Realtime.Retention), nil
	default:
		return hub.LocalTransport(), nil
	}
}

// relayHeader menandatangani token relay baru setiap kali transport dial ulang.
func relayHeader(tokens *utils.TokenManager, ref string) realtime.HeaderFunc {
	return func() (http.Header, error) {
		token, err := tokens.GenerateToken(0, ref, models.RoleRelay)
		if err != nil {
			return nil, err
		}
		header := http.Header{}
		header.Set("Authorization", "Bearer "+token)
		return header, nil
	}
}
