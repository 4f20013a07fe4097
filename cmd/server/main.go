package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/finvoice/finvoice/internal/api"
	v1 "github.com/finvoice/finvoice/internal/api/v1"
	"github.com/finvoice/finvoice/internal/auth"
	"github.com/finvoice/finvoice/internal/cache"
	"github.com/finvoice/finvoice/internal/config"
	"github.com/finvoice/finvoice/internal/domain/customer"
	"github.com/finvoice/finvoice/internal/domain/history"
	"github.com/finvoice/finvoice/internal/domain/invoice"
	"github.com/finvoice/finvoice/internal/domain/payment"
	"github.com/finvoice/finvoice/internal/domain/user"
	"github.com/finvoice/finvoice/internal/logger"
	"github.com/finvoice/finvoice/internal/postgres"
	"github.com/finvoice/finvoice/internal/repository"
	"github.com/finvoice/finvoice/internal/service"
	"github.com/finvoice/finvoice/internal/validator"
)

func init() {
	// All timestamps and calendar dates are handled in UTC
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			validator.NewValidator,
			config.NewConfig,
			provideLogger,
			auth.NewProvider,
			cache.NewInMemoryCache,

			postgres.NewDB,
			func(db *postgres.DB) postgres.IClient { return db },

			repository.NewUserRepository,
			repository.NewCustomerRepository,
			repository.NewInvoiceRepository,
			repository.NewPaymentRepository,
			repository.NewHistoryRepository,

			provideServiceParams,

			service.NewAuthService,
			service.NewUserService,
			service.NewCustomerService,
			service.NewInvoiceService,
			service.NewPaymentService,
			service.NewHistoryService,
			service.NewDashboardService,

			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}

func provideLogger(cfg *config.Configuration) (*logger.Logger, error) {
	return logger.NewLogger(logger.Config{Level: cfg.Logging.Level})
}

func provideServiceParams(
	log *logger.Logger,
	cfg *config.Configuration,
	db postgres.IClient,
	authProvider *auth.Provider,
	c cache.Cache,
	userRepo user.Repository,
	customerRepo customer.Repository,
	invoiceRepo invoice.Repository,
	paymentRepo payment.Repository,
	historyRepo history.Repository,
) service.ServiceParams {
	return service.ServiceParams{
		Logger:       log,
		Config:       cfg,
		DB:           db,
		Auth:         authProvider,
		Cache:        c,
		UserRepo:     userRepo,
		CustomerRepo: customerRepo,
		InvoiceRepo:  invoiceRepo,
		PaymentRepo:  paymentRepo,
		HistoryRepo:  historyRepo,
	}
}

func provideHandlers(
	log *logger.Logger,
	authService service.AuthService,
	userService service.UserService,
	customerService service.CustomerService,
	invoiceService service.InvoiceService,
	paymentService service.PaymentService,
	historyService service.HistoryService,
	dashboardService service.DashboardService,
) api.Handlers {
	return api.Handlers{
		Health:    v1.NewHealthHandler(),
		Auth:      v1.NewAuthHandler(authService, log),
		User:      v1.NewUserHandler(userService, log),
		Customer:  v1.NewCustomerHandler(customerService, log),
		Invoice:   v1.NewInvoiceHandler(invoiceService, log),
		Payment:   v1.NewPaymentHandler(paymentService, log),
		History:   v1.NewHistoryHandler(historyService, log),
		Dashboard: v1.NewDashboardHandler(dashboardService, log),
	}
}

func provideRouter(
	handlers api.Handlers,
	cfg *config.Configuration,
	log *logger.Logger,
	provider *auth.Provider,
) *gin.Engine {
	return api.NewRouter(handlers, cfg, log, provider)
}

func startServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	db *postgres.DB,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			db.Close()
			return nil
		},
	})
}
