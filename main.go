package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"magicweekends/config"
	"magicweekends/database"
	reconciliationRepo "magicweekends/database/repository/reconciliation"
	"magicweekends/handlers"
	"magicweekends/middleware"
	"magicweekends/routes"
	"magicweekends/services/booking"
	"magicweekends/services/bookingapi"
	"magicweekends/services/catalog"
	"magicweekends/services/gateway"
	"magicweekends/services/storage"
	"magicweekends/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.InitDB()
	utils.InitRedis()

	// Create the Gin router.
	router := gin.New()
	if err := router.SetTrustedProxies(config.TrustedProxyList()); err != nil {
		logger.Sugar().Fatalf("main: invalid TRUSTED_PROXIES: %v", err)
	}
	router.Use(middleware.RequestLogger())
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	reconRepo, err := reconciliationRepo.NewMongoReconciliationRepo(database.Database())
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize reconciliation repository: %v", err)
	}

	// services.
	trips := catalog.NewCachedTripProvider(
		catalog.NewHTTPTripProvider(config.AppConfig.BookingAPIURL, config.AppConfig.BookingAPITimeout),
		utils.GetCacheClient(),
		config.AppConfig.TripCacheTTL,
	)
	api := bookingapi.NewClient(config.AppConfig.BookingAPIURL, config.AppConfig.BookingAPITimeout)
	bridge := gateway.NewBridge(config.AppConfig.GatewayMerchantName, config.AppConfig.GatewayThemeColor)
	store := booking.NewRedisSessionStore(utils.GetWizardCacheClient(), config.AppConfig.WizardSessionTTL)
	if secret := config.AppConfig.SessionSecret; secret != "" {
		if store.Sealer, err = storage.NewSealer(secret); err != nil {
			logger.Sugar().Fatalf("main: failed to initialize session encryption: %v", err)
		}
	} else {
		logger.Warn("SESSION_ENCRYPTION_KEY not set, id proofs are stored unencrypted")
	}

	wizardService := booking.NewWizardService(store, trips, api, bridge, reconRepo, booking.Options{
		SessionTTL:   config.AppConfig.WizardSessionTTL,
		StaleAfter:   2 * config.AppConfig.BookingAPITimeout,
		SupportEmail: config.AppConfig.SupportEmail,
		SupportPhone: config.AppConfig.SupportPhone,
	})

	bookingHandler := handlers.NewBookingHandler(wizardService, logger)
	reconciliationHandler := handlers.NewReconciliationHandler(reconRepo)

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlers.NewHandlerBundle(bookingHandler, reconciliationHandler))

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	utils.StartHealthMonitor(monitorCtx,
		[]*redis.Client{utils.GetWizardCacheClient(), utils.GetCacheClient()},
		database.MongoClient,
		config.AppConfig.BookingAPIURL,
		30*time.Second,
	)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	wizardService.Stop()
	stopMonitor()
	if err := database.CloseDB(ctx); err != nil {
		logger.Sugar().Warnf("main: failed to close database: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
