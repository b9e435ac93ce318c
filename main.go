// File: farberge/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farberge/config"
	"farberge/cron"
	"farberge/database"
	bookingRepo "farberge/database/repository/booking"
	calendarRepo "farberge/database/repository/calendar"
	directoryRepo "farberge/database/repository/directory"
	"farberge/handlers"
	"farberge/middleware"
	"farberge/models"
	"farberge/routes"
	"farberge/services/booking"
	"farberge/services/slots"
	"farberge/services/tasks"
	"farberge/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.InitDB()
	utils.InitCache()
	stripe.Key = config.AppConfig.StripeKey

	template := models.SlotTemplate{
		DayStart:    config.AppConfig.DayStart,
		DayEnd:      config.AppConfig.DayEnd,
		SlotMinutes: config.AppConfig.SlotMinutes,
	}
	if _, err := template.Generate(); err != nil {
		logger.Fatal("main: invalid slot template", zap.Error(err))
	}

	// repositories.
	calendarStore := calendarRepo.NewMongoCalendarRepo()
	bookingStore := bookingRepo.NewMongoBookingRepo()
	directory := directoryRepo.NewMongoDirectory()
	if err := calendarStore.EnsureIndexes(); err != nil {
		logger.Fatal("main: calendar indexes", zap.Error(err))
	}
	if err := bookingStore.EnsureIndexes(); err != nil {
		logger.Fatal("main: booking indexes", zap.Error(err))
	}

	// services.
	slotService := &slots.DefaultSlotService{
		Repo:     calendarStore,
		Bookings: bookingStore,
		Template: template,
		Logger:   logger.Named("slots"),
	}

	queueClient := asynq.NewClient(cron.QueueRedisOpt())
	defer queueClient.Close()

	bookingService := &booking.DefaultBookingService{
		Bookings:     bookingStore,
		Holds:        slotService,
		Workers:      directory,
		Customers:    directory,
		Catalog:      directory,
		Expiry:       &tasks.AsynqExpiryScheduler{Client: queueClient},
		HoldDuration: config.AppConfig.HoldDuration,
		Logger:       logger.Named("booking"),
		Checkout: &booking.StripeCheckout{
			Currency:   config.AppConfig.StripeCurrency,
			SuccessURL: config.AppConfig.CheckoutSuccessURL,
			CancelURL:  config.AppConfig.CheckoutCancelURL,
		},
	}
	slotService.OnReclaim = bookingService.ExpireReclaimed
	webhook := &booking.StripeWebhook{
		Secret:   config.AppConfig.StripeWebhookSecret,
		Payments: bookingService,
		Dedupe:   &utils.RedisEventDeduper{Client: utils.GetCacheClient()},
		Logger:   logger.Named("webhook"),
	}

	// background work.
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	sweeper := &cron.Sweeper{
		Bookings: bookingStore,
		Expirer:  bookingService,
		Calendar: calendarStore,
		Holds:    slotService,
		Lease: &utils.RedisLease{
			Client: utils.GetCacheClient(),
			Key:    "lease:expiry-sweeper",
			Holder: uuid.New().String(),
		},
		Interval:  config.AppConfig.SweepInterval,
		BatchSize: config.AppConfig.SweepBatchSize,
		Logger:    logger.Named("sweeper"),
	}
	go sweeper.Run(bgCtx)

	expiryWorker := cron.NewExpiryWorker(bookingService, logger.Named("expiry-worker"))
	expiryWorker.Start(logger)

	utils.StartHealthMonitor(bgCtx, utils.GetCacheClient(), database.MongoClient, 60*time.Second)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewBookingHandler(bookingService),
		handlers.NewPaymentHandler(bookingService, webhook),
		handlers.NewTimeslotHandler(slotService),
	)
	routes.RegisterRoutes(router, handlerBundle, config.AllowedOrigins())

	// Start the HTTP server.
	srv := &http.Server{
		Addr:    "0.0.0.0:" + config.AppConfig.AppPort,
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

	stopBackground()
	expiryWorker.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if err := database.CloseDB(ctx); err != nil {
		logger.Sugar().Errorf("main: closing database: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
