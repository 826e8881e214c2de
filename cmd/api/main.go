package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/youssefhamdan/tijara-backend/api/routes"
	"github.com/youssefhamdan/tijara-backend/internal/cart"
	"github.com/youssefhamdan/tijara-backend/internal/catalog"
	checkoutsvc "github.com/youssefhamdan/tijara-backend/internal/checkout"
	"github.com/youssefhamdan/tijara-backend/internal/couriers"
	"github.com/youssefhamdan/tijara-backend/internal/customers"
	"github.com/youssefhamdan/tijara-backend/internal/email"
	"github.com/youssefhamdan/tijara-backend/internal/orders"
	"github.com/youssefhamdan/tijara-backend/internal/payments"
	"github.com/youssefhamdan/tijara-backend/internal/settings"
	"github.com/youssefhamdan/tijara-backend/internal/shipping"
	"github.com/youssefhamdan/tijara-backend/internal/support"
	"github.com/youssefhamdan/tijara-backend/internal/users"
	"github.com/youssefhamdan/tijara-backend/internal/wallet"
	"github.com/youssefhamdan/tijara-backend/pkg/config"
	"github.com/youssefhamdan/tijara-backend/pkg/db"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
	"github.com/youssefhamdan/tijara-backend/pkg/metrics"
	"github.com/youssefhamdan/tijara-backend/pkg/migrate"
	"github.com/youssefhamdan/tijara-backend/pkg/postcommit"
	"github.com/youssefhamdan/tijara-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	met := metrics.New(nil)
	runner := postcommit.NewRunner(logg)
	gdb := dbClient.DB()

	settingsService, err := settings.NewService(settings.NewRepository(gdb), cfg.Cashback)
	exitOnErr(logg, "settings service", err)

	catalogService, err := catalog.NewService(catalog.NewProductRepository(gdb), catalog.NewCategoryRepository(gdb))
	exitOnErr(logg, "catalog service", err)

	customerService, err := customers.NewService(customers.NewRepository(gdb), cfg.JWT, cfg.Password)
	exitOnErr(logg, "customer service", err)

	userService, err := users.NewService(users.NewRepository(gdb), cfg.JWT, cfg.Password)
	exitOnErr(logg, "user service", err)

	walletService, err := wallet.NewService(wallet.NewRepository(gdb), dbClient, met)
	exitOnErr(logg, "wallet service", err)

	shippingService, err := shipping.NewService(shipping.NewCityRepository(gdb))
	exitOnErr(logg, "shipping service", err)

	cartService, err := cart.NewService(cart.NewRepository(gdb), catalogService)
	exitOnErr(logg, "cart service", err)

	supportService, err := support.NewService(support.NewRepository(gdb))
	exitOnErr(logg, "support service", err)

	var mailer email.Mailer
	if cfg.Sendgrid.APIKey != "" {
		mailer, err = email.NewSendgridMailer(cfg.Sendgrid)
		exitOnErr(logg, "sendgrid mailer", err)
	} else {
		logg.Warn(context.Background(), "sendgrid api key missing, emails will be logged only")
		mailer = email.NewNoopMailer(logg)
	}
	emailService, err := email.NewService(mailer, settingsService, logg, met)
	exitOnErr(logg, "email service", err)

	alwaseet, err := couriers.NewAlwaseetClient(cfg.Alwaseet)
	exitOnErr(logg, "alwaseet client", err)
	barq, err := couriers.NewBarqClient(cfg.Barq)
	exitOnErr(logg, "barq client", err)
	courierRegistry, err := couriers.NewRegistry(alwaseet, barq)
	exitOnErr(logg, "courier registry", err)

	gateway, err := payments.NewHTTPGateway(cfg.Gateway)
	exitOnErr(logg, "payment gateway", err)

	orderRepo := orders.NewRepository(gdb)
	productRepo := catalog.NewProductRepository(gdb)

	orderService, err := orders.NewService(orders.Deps{
		Repo:     orderRepo,
		Tx:       dbClient,
		Wallet:   walletService,
		Settings: settingsService,
		Couriers: courierRegistry,
		Gateway:  gateway,
		Email:    emailService,
		Runner:   runner,
		Logger:   logg,
		Metrics:  met,
	})
	exitOnErr(logg, "order service", err)

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.Deps{
		Tx:        dbClient,
		Products:  productRepo,
		OrderRepo: orderRepo,
		Customers: customerService,
		Wallet:    walletService,
		Shipping:  shippingService,
		Settings:  settingsService,
		Cart:      cartService,
		Email:     emailService,
		Gateway:   gateway,
		Runner:    runner,
		Logger:    logg,
		Metrics:   met,
	})
	exitOnErr(logg, "checkout service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Customers: customerService,
			Users:     userService,
			Catalog:   catalogService,
			Cart:      cartService,
			Checkout:  checkoutService,
			Orders:    orderService,
			Couriers:  courierRegistry,
			Wallet:    walletService,
			Shipping:  shippingService,
			Settings:  settingsService,
			Support:   supportService,
		}),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}()

	stop, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-stop.Done()

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}

	// let in-flight confirmation and status emails finish before the process exits
	runner.Wait()
}

func exitOnErr(logg *logger.Logger, what string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+what, err)
		os.Exit(1)
	}
}
