package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rainbowshop/backend/internal/config"
	"github.com/rainbowshop/backend/internal/es"
	"github.com/rainbowshop/backend/internal/events"
	"github.com/rainbowshop/backend/internal/handlers"
	"github.com/rainbowshop/backend/internal/logging"
	mwauth "github.com/rainbowshop/backend/internal/middleware/auth"
	authsvc "github.com/rainbowshop/backend/internal/service/auth"
	"github.com/rainbowshop/backend/internal/service/catalog"
	"github.com/rainbowshop/backend/internal/service/order"
	"github.com/rainbowshop/backend/internal/token"
	httpserver "github.com/rainbowshop/backend/internal/transport/http"
	"github.com/rainbowshop/backend/internal/transport/response"
	"github.com/rainbowshop/backend/internal/uploads"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel)
	ctx := logging.IntoContext(context.Background(), logger)

	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		logger.Error("db_init_failed", "error", err)
		os.Exit(1)
	}

	tokens := token.New([]byte(cfg.JWTSecret))

	files, err := uploads.NewStore(cfg.UploadDir, cfg.BaseURL)
	if err != nil {
		logger.Error("uploads_init_failed", "error", err)
		os.Exit(1)
	}

	prod := events.NewProducer(cfg.KafkaBrokers)
	if prod == nil {
		logger.Warn("kafka_disabled", "reason", "no brokers configured")
	}

	esClient, err := es.NewClient(cfg)
	if err != nil {
		logger.Error("es_init_failed", "error", err)
		os.Exit(1)
	}
	if esClient == nil {
		logger.Warn("search_fallback", "reason", "no ES_URL configured, using database search")
	}

	authService := &authsvc.AuthService{DB: db, Tokens: tokens}
	catalogService := &catalog.CatalogService{DB: db, ES: esClient, Files: files}
	orderService := &order.OrderService{DB: db}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), logger)))
			return next(c)
		}
	})
	e.HTTPErrorHandler = response.ErrorHandler(cfg.IsDevelopment())

	deps := httpserver.Deps{
		Gate:           &mwauth.Gate{DB: db, Tokens: tokens},
		AuthHandler:    &handlers.AuthHandler{Auth: authService, Producer: prod},
		ProductHandler: &handlers.ProductHandler{Catalog: catalogService, Files: files, Producer: prod},
		OrderHandler:   &handlers.OrderHandler{Orders: orderService, Producer: prod},
		UploadDir:      cfg.UploadDir,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server_started", "addr", srv.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db_close_error", "error", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}
