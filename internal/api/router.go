package api

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/finvoice/finvoice/internal/api/v1"
	"github.com/finvoice/finvoice/internal/auth"
	"github.com/finvoice/finvoice/internal/config"
	"github.com/finvoice/finvoice/internal/logger"
	"github.com/finvoice/finvoice/internal/rest/middleware"
)

type Handlers struct {
	Health    *v1.HealthHandler
	Auth      *v1.AuthHandler
	User      *v1.UserHandler
	Customer  *v1.CustomerHandler
	Invoice   *v1.InvoiceHandler
	Payment   *v1.PaymentHandler
	History   *v1.HistoryHandler
	Dashboard *v1.DashboardHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger, provider *auth.Provider) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.RateLimitMiddleware(cfg),
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")

	// public auth routes
	authGroup := v1Group.Group("/auth")
	{
		authGroup.POST("/signup", handlers.Auth.Signup)
		authGroup.POST("/login", handlers.Auth.Login)
	}

	private := v1Group.Group("", middleware.AuthenticateMiddleware(provider, log))
	registerPrivateRoutes(private, handlers)

	return router
}

func registerPrivateRoutes(router *gin.RouterGroup, handlers Handlers) {
	router.GET("/auth/me", handlers.Auth.Me)

	users := router.Group("/users")
	{
		users.GET("/me", handlers.User.GetUser)
		users.PUT("/me", handlers.User.UpdateUser)
	}

	customers := router.Group("/customers")
	{
		customers.POST("", handlers.Customer.CreateCustomer)
		customers.GET("", handlers.Customer.ListCustomers)
		customers.GET("/:id", handlers.Customer.GetCustomer)
		customers.PUT("/:id", handlers.Customer.UpdateCustomer)
		customers.DELETE("/:id", handlers.Customer.DeleteCustomer)
	}

	invoices := router.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.PUT("/:id", handlers.Invoice.UpdateInvoice)
		invoices.POST("/:id/finalize", handlers.Invoice.FinalizeInvoice)
		invoices.DELETE("/:id", handlers.Invoice.DeleteInvoice)
	}

	payments := router.Group("/payments")
	{
		payments.POST("", handlers.Payment.RecordPayment)
		payments.GET("", handlers.Payment.ListPayments)
		payments.GET("/:id", handlers.Payment.GetPayment)
		payments.PUT("/:id", handlers.Payment.UpdatePayment)
		payments.DELETE("/:id", handlers.Payment.DeletePayment)
	}

	router.GET("/history", handlers.History.ListHistory)
	router.GET("/dashboard", handlers.Dashboard.GetDashboard)
}
