package routes

import (
	"net/http"
	"time"

	"magicweekends/config"
	"magicweekends/handlers"
	"magicweekends/middleware"
	"magicweekends/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterHealthRoute registers a health-check endpoint backed by the health monitor.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})
}

// RegisterBookingRoutes registers the wizard, checkout and booking record endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/booking")
	bookingGroup.Use(middleware.ForwardBearerToken(config.AppConfig.JWTSecret))
	{
		wizard := bookingGroup.Group("/wizard")
		wizard.POST("", hb.OpenWizard)
		wizard.GET("/:id", hb.GetWizard)
		wizard.DELETE("/:id", hb.CloseWizard)
		wizard.PUT("/:id/contact", hb.UpdateContact)
		wizard.PUT("/:id/travelers", hb.SetTravelerCount)
		wizard.PUT("/:id/travelers/:index", hb.UpdateTraveler)
		wizard.PUT("/:id/travelers/:index/id-proof", hb.UploadIDProof)
		wizard.PUT("/:id/payment-method", hb.SetPaymentMethod)
		wizard.POST("/:id/next", hb.NextStep)
		wizard.POST("/:id/back", hb.PreviousStep)
		wizard.POST("/:id/book", hb.Book)
		wizard.POST("/:id/payment/callback", hb.PaymentCallback)
		wizard.POST("/:id/payment/dismiss", hb.DismissCheckout)
		wizard.GET("/:id/confirmation", hb.Confirmation)

		bookingGroup.GET("/bookings", hb.MyBookings)
		bookingGroup.GET("/bookings/:bookingId", hb.GetBooking)
		bookingGroup.DELETE("/bookings/:bookingId", hb.CancelBooking)
	}
}

// RegisterAdminRoutes registers operator endpoints.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	if hb.ListReconciliation == nil {
		return
	}
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.AdminTokenMiddleware(config.AppConfig.AdminToken))
		adminGroup.GET("/reconciliation", hb.ListReconciliation)
		adminGroup.POST("/reconciliation/:id/resolve", hb.ResolveReconciliation)
	}
}

// RegisterRoutes sets up CORS and every route group.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
}
