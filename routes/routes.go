package routes

import (
	"net/http"
	"time"

	"github.com/tilak5758/barber-salon-backend/handlers"
	"github.com/tilak5758/barber-salon-backend/middleware"
	"github.com/tilak5758/barber-salon-backend/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Lookup-by-id endpoints live under "/id/:id" so static siblings like "/me"
// never collide with the route param.

// RegisterAuthRoutes registers registration and session endpoints.
func RegisterAuthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/auth")
	{
		api.POST("/register", hb.Auth.Register)
		api.POST("/login", hb.Auth.Login)
		api.POST("/refresh", hb.Auth.Refresh)
		api.POST("/logout", hb.Auth.Logout)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(hb.UserRepo))
		protected.POST("/otp/request", hb.Auth.RequestMobileOTP)
		protected.POST("/otp/verify", hb.Auth.VerifyMobile)
	}
}

// RegisterUserRoutes registers profile endpoints.
func RegisterUserRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/users")
	api.Use(middleware.AuthMiddleware(hb.UserRepo))
	{
		api.GET("/me", hb.User.GetMe)
		api.GET("/id/:id", hb.User.GetByID)
		api.POST("/device-token", hb.User.RegisterDeviceToken)
	}
}

// RegisterBarberRoutes registers the barber catalog. Discovery is public;
// profile and catalog writes require the owner (or admin).
func RegisterBarberRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/barbers")
	{
		api.GET("", hb.Barber.List)
		api.GET("/id/:id", hb.Barber.Get)
		api.GET("/id/:id/services", hb.Barber.ListServices)
		api.GET("/id/:id/reviews", hb.Review.ListForBarber)
		api.GET("/id/:id/availability/:date", hb.Availability.GetDay)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(hb.UserRepo))
		protected.POST("/register", hb.Barber.Register)
		protected.GET("/me", hb.Barber.GetOwnProfile)
		protected.PUT("/id/:id", hb.Barber.Update)
		protected.POST("/id/:id/services", hb.Barber.CreateService)
		protected.PUT("/id/:id/services/:serviceId", hb.Barber.UpdateService)
		protected.PUT("/id/:id/availability/:date", hb.Availability.Publish)
		protected.POST("/id/:id/availability/:date/slots", hb.Availability.AddSlot)
		protected.DELETE("/id/:id/availability/:date/slots/:slotId", hb.Availability.RemoveSlot)
		protected.GET("/id/:id/appointments", hb.Appointment.ListForBarber)
		protected.POST("/id/:id/reviews", hb.Review.Create)
	}
}

// RegisterAppointmentRoutes registers the booking state machine.
func RegisterAppointmentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/appointments")
	api.Use(middleware.AuthMiddleware(hb.UserRepo))
	{
		api.POST("", hb.Appointment.Book)
		api.GET("", hb.Appointment.ListMine)
		api.GET("/id/:id", hb.Appointment.Get)
		api.POST("/id/:id/confirm", hb.Appointment.Confirm)
		api.POST("/id/:id/cancel", hb.Appointment.Cancel)
		api.POST("/id/:id/complete", hb.Appointment.Complete)
		api.POST("/id/:id/reschedule", hb.Appointment.Reschedule)
	}
}

// RegisterPaymentRoutes registers checkout and refunds, plus the
// unauthenticated provider webhook endpoints.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/payments")
	api.Use(middleware.AuthMiddleware(hb.UserRepo))
	{
		api.POST("/session", hb.Payment.CreateSession)
		api.GET("/id/:id", hb.Payment.Get)
		api.POST("/id/:id/refunds", hb.Payment.RequestRefund)
		api.GET("/id/:id/refunds", hb.Payment.ListRefunds)
	}

	// Webhooks authenticate by signature, not bearer token.
	webhooks := r.Group("/api/webhooks")
	{
		webhooks.POST("/stripe", hb.Webhook.Stripe)
		webhooks.POST("/mercadopago", hb.Webhook.MercadoPago)
	}
}

// RegisterReviewRoutes registers review edit endpoints. Creation and listing
// live under /api/barbers.
func RegisterReviewRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/reviews")
	api.Use(middleware.AuthMiddleware(hb.UserRepo))
	{
		api.PUT("/:reviewId", hb.Review.Update)
		api.DELETE("/:reviewId", hb.Review.Delete)
	}
}

// RegisterNotificationRoutes registers the inbox.
func RegisterNotificationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/notifications")
	api.Use(middleware.AuthMiddleware(hb.UserRepo))
	{
		api.GET("", hb.Notification.List)
		api.POST("/:id/read", hb.Notification.MarkRead)
	}
}

// RegisterAIRoutes registers recommendation endpoints.
func RegisterAIRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/ai")
	api.Use(middleware.AuthMiddleware(hb.UserRepo))
	{
		api.GET("/recommendations", hb.Intelligence.Recommend)
	}
}

// RegisterAdminRoutes registers admin-only endpoints.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/admin")
	api.Use(middleware.AuthMiddleware(hb.UserRepo), middleware.RequireRole(models.RoleAdmin))
	{
		api.GET("/dashboard", hb.Admin.Dashboard)
		api.PUT("/barbers/:id/verify", hb.Barber.SetVerified)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterAuthRoutes(r, hb)
	RegisterUserRoutes(r, hb)
	RegisterBarberRoutes(r, hb)
	RegisterAppointmentRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterReviewRoutes(r, hb)
	RegisterNotificationRoutes(r, hb)
	RegisterAIRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
}
