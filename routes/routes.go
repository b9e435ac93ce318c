package routes

import (
	"net/http"
	"time"

	"farberge/handlers"
	"farberge/middleware"
	"farberge/models"
	"farberge/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterBookingRoutes registers booking and payment endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/booking")
	{
		// Signature-verified, no JWT.
		bookingGroup.POST("/webhook/stripe", hb.StripeWebhook)

		authed := bookingGroup.Group("")
		authed.Use(middleware.JWTAuthMiddleware())

		customer := authed.Group("", middleware.RequireRole(models.RoleCustomer))
		customer.POST("/book-slot", hb.BookSlot)
		customer.POST("/initialize-payment", hb.InitializePayment)
		customer.GET("/customer-book-slot", hb.CustomerBookings)

		worker := authed.Group("", middleware.RequireRole(models.RoleWorker))
		worker.GET("/worker-book-slot", hb.WorkerBookings)
		worker.PATCH("/update-booking-status/:bookingId", hb.CompleteBooking)

		admin := authed.Group("", middleware.RequireRole(models.RoleAdmin))
		admin.PATCH("/cancel/:bookingId", hb.CancelBooking)
		admin.DELETE("/delete-booking/:bookingId", hb.DeleteBooking)

		authed.GET("/:bookingId", hb.GetBooking)
	}
}

// RegisterTimeslotRoutes registers worker calendar endpoints.
func RegisterTimeslotRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	timeslotGroup := r.Group("/api/timeslot")
	{
		timeslotGroup.GET("/get-one-worker-availability/:workerId", hb.WorkerAvailability)

		worker := timeslotGroup.Group("", middleware.JWTAuthMiddleware(), middleware.RequireRole(models.RoleWorker))
		worker.PATCH("/assign-off-day", hb.AssignOffDay)
		worker.PATCH("/update-availability", hb.UpdateAvailability)
	}
}

// RegisterHealthRoute registers the health and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "dependencies": utils.GetHealthStatus()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, allowedOrigins []string) {
	r.Use(cors.New(corsConfig(allowedOrigins)))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterTimeslotRoutes(r, hb)
}
