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

	_ "marketplace/api/swagger" // swagger docs
	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/exchange"
	"marketplace/internal/handler"
	"marketplace/internal/logger"
	"marketplace/internal/middleware"
	"marketplace/internal/repository"
	"marketplace/internal/service"
	"marketplace/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Marketplace Tax API
// @version         1.0
// @description     VAT rates, product tax flags, VAT calculation, exchange rates and checkout quotes.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = appLog.Sync() }()

	db, err := database.NewConnection(&cfg.Database, cfg.Logging.Level, appLog)
	if err != nil {
		appLog.Fatalw("database connection failed", "error", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			appLog.Warnw("failed to close database", "error", err)
		}
	}()

	// Set up WebSocket Hub; admins and storefronts subscribe to configuration changes
	wsHub := websocket.NewHub(appLog)
	go wsHub.Run()
	defer wsHub.Stop()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	countryVATRepo := repository.NewCountryVATRepository(db)
	productRepo := repository.NewProductRepository(db)
	exchangeRateRepo := repository.NewExchangeRateRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	rateStore := service.NewVATRateStore(countryVATRepo, cfg.DefaultVATRate(), appLog)
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
	if err := rateStore.Load(loadCtx); err != nil {
		appLog.Warnw("starting with default VAT rate only", "error", err, "default_rate", cfg.Tax.DefaultVATRate)
	}
	cancelLoad()
	productCache := service.NewProductTaxCache(productRepo, cfg.Tax.ProductCacheTTL, appLog)

	rateProvider := exchange.NewClient(cfg.Exchange, appLog)

	taxService := service.NewTaxService(rateStore, productCache, productRepo, txManager, auditRepo, wsHub, appLog)
	exchangeService := service.NewExchangeRateService(
		exchangeRateRepo, txManager, rateProvider,
		cfg.Exchange.BaseCurrency, cfg.Exchange.CacheTTL,
		auditRepo, wsHub, appLog,
	)
	checkoutService := service.NewCheckoutService(productRepo, taxService, exchangeService, cfg.Tax.DefaultCountry, appLog)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	secret := cfg.JWTSecretBytes()
	auth := middleware.NewAuth(secret)
	taxHandler := handler.NewTaxHandler(taxService, auth)
	exchangeHandler := handler.NewExchangeRateHandler(exchangeService, auth)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, auth)
	auditHandler := handler.NewAuditHandler(auditService, auth)

	// Set up Gin Router
	gin.SetMode(cfg.Server.GinMode)
	gin.DefaultWriter = appLog.GinWriter()
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(appLog), gin.Recovery())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "OK",
			"vat_rates":      len(rateStore.Rates(c.Request.Context())),
			"cached_product": productCache.Len(),
			"ws_clients":     wsHub.ClientCount(),
		})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, secret)
	})

	// API Routing
	taxHandler.RegisterRoutes(router.Group(""))
	exchangeHandler.RegisterRoutes(router.Group(""))
	checkoutHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Infow("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLog.Errorw("server forced to shutdown", "error", err)
	}
}
