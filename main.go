package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tilak5758/barber-salon-backend/config"
	"github.com/tilak5758/barber-salon-backend/cron"
	"github.com/tilak5758/barber-salon-backend/database"
	appointmentRepo "github.com/tilak5758/barber-salon-backend/database/repository/appointment"
	availabilityRepo "github.com/tilak5758/barber-salon-backend/database/repository/availability"
	barberRepo "github.com/tilak5758/barber-salon-backend/database/repository/barber"
	notificationRepo "github.com/tilak5758/barber-salon-backend/database/repository/notification"
	paymentRepo "github.com/tilak5758/barber-salon-backend/database/repository/payment"
	reviewRepo "github.com/tilak5758/barber-salon-backend/database/repository/review"
	userRepoPkg "github.com/tilak5758/barber-salon-backend/database/repository/user"
	"github.com/tilak5758/barber-salon-backend/handlers"
	"github.com/tilak5758/barber-salon-backend/middleware"
	"github.com/tilak5758/barber-salon-backend/routes"
	"github.com/tilak5758/barber-salon-backend/services/admin"
	"github.com/tilak5758/barber-salon-backend/services/availability"
	"github.com/tilak5758/barber-salon-backend/services/catalog"
	ai "github.com/tilak5758/barber-salon-backend/services/intelligence"
	"github.com/tilak5758/barber-salon-backend/services/notification"
	"github.com/tilak5758/barber-salon-backend/services/payment"
	"github.com/tilak5758/barber-salon-backend/services/review"
	"github.com/tilak5758/barber-salon-backend/services/scheduler"
	"github.com/tilak5758/barber-salon-backend/services/user"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.FirebaseInit()
	stripe.Key = config.AppConfig.StripeKey

	// Router and global middleware.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Repositories.
	users := userRepoPkg.NewMongoUserRepo()
	barbers := barberRepo.NewMongoBarberRepo()
	availabilities := availabilityRepo.NewMongoAvailabilityRepo()
	appointments := appointmentRepo.NewMongoAppointmentRepo()
	payments := paymentRepo.NewMongoPaymentRepo()
	reviews := reviewRepo.NewMongoReviewRepo()
	notifications := notificationRepo.NewMongoNotificationRepo()

	// Services.
	taskClient := cron.NewTaskClient()
	notificationSvc := notification.NewService(notifications, users, taskClient, logger)

	tokenStore := user.NewRedisTokenStore(utils.GetAuthCacheClient())
	userSvc := user.NewService(users, tokenStore, user.RedisOTP{}, logger)
	catalogSvc := catalog.NewService(barbers, users, logger)
	availabilitySvc := availability.NewService(availabilities, logger)
	schedulerSvc := scheduler.NewService(appointments, availabilities, barbers, notificationSvc, logger)
	reviewSvc := review.NewService(reviews, barbers, appointments, logger)
	adminSvc := admin.NewService(users, barbers, appointments, payments, logger)

	gateways := []payment.Gateway{payment.NewStripeGateway()}
	if config.AppConfig.MercadoPagoToken != "" {
		mp, err := payment.NewMercadoPagoGateway(config.AppConfig.MercadoPagoToken)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize mercadopago gateway: %v", err)
		}
		gateways = append(gateways, mp)
	}
	paymentSvc := payment.NewService(payments, appointments, schedulerSvc, notificationSvc,
		config.AppConfig.Currency, logger, gateways...)

	var gemini *ai.GeminiClient
	if config.AppConfig.GeminiAPIKey != "" {
		var err error
		gemini, err = ai.NewGeminiClient(config.AppConfig.GeminiAPIKey)
		if err != nil {
			logger.Sugar().Warnf("main: gemini unavailable, continuing without summaries: %v", err)
		}
	}
	ctxStore := ai.NewRedisContextStore(utils.GetCacheClient(), 30*24*time.Hour)
	aiSvc := ai.NewService(barbers, appointments, ctxStore, gemini, logger)

	// Background worker: reminders plus the slot reconcile sweep.
	cron.StartWorker(schedulerSvc, appointments, notificationSvc, logger)

	// Handlers.
	handlerBundle := &handlers.HandlerBundle{
		Auth:         handlers.NewAuthHandler(userSvc),
		User:         handlers.NewUserHandler(userSvc),
		Barber:       handlers.NewBarberHandler(catalogSvc),
		Availability: handlers.NewAvailabilityHandler(availabilitySvc, catalogSvc),
		Appointment:  handlers.NewAppointmentHandler(schedulerSvc),
		Payment:      handlers.NewPaymentHandler(paymentSvc),
		Webhook:      handlers.NewWebhookHandler(paymentSvc, logger),
		Review:       handlers.NewReviewHandler(reviewSvc),
		Notification: handlers.NewNotificationHandler(notificationSvc),
		Admin:        handlers.NewAdminHandler(adminSvc),
		Intelligence: handlers.NewIntelligenceHandler(aiSvc),
		UserRepo:     users,
	}
	routes.RegisterRoutes(router, handlerBundle)

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
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
