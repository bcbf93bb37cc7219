package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"littlegrow/internal/config"
	"littlegrow/internal/database"
	"littlegrow/internal/events"
	"littlegrow/internal/handlers"
	"littlegrow/internal/metrics"
	"littlegrow/internal/models"
	"littlegrow/internal/notifications"
	"littlegrow/internal/repositories"
	"littlegrow/internal/services"
	"littlegrow/pkg/logger"
	"littlegrow/pkg/midtrans"
	"littlegrow/pkg/rabbitmq"
)

// application owns the process-wide resources behind the HTTP server.
type application struct {
	app        *fiber.App
	db         *database.Client
	dispatcher *notifications.Dispatcher
	mqClient   *rabbitmq.Client
	redis      *redis.Client
	log        *logger.Logger
}

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{ServiceName: "littlegrow", Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx := context.Background()

	a, err := newApplication(ctx, cfg, log, prometheus.NewRegistry())
	if err != nil {
		log.Error(ctx, "failed to start", err)
		os.Exit(1)
	}

	// --- Start HTTP Server ---
	ctx = log.WithField(ctx, "addr", cfg.AppPort)
	log.Info(ctx, "starting server")

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := a.app.Listen(cfg.AppPort); err != nil {
			log.Error(ctx, "server failed", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	log.Info(ctx, "shutting down server")
	if err := a.Shutdown(10 * time.Second); err != nil {
		log.Error(ctx, "error during shutdown", err)
	}
	log.Info(ctx, "server gracefully stopped")
}

func newApplication(ctx context.Context, cfg *config.Config, log *logger.Logger, reg *prometheus.Registry) (_ *application, err error) {
	a := &application{log: log}
	defer func() {
		if err != nil {
			err = multierr.Append(err, a.close())
		}
	}()

	// --- Database ---
	a.db, err = database.Open(database.Config{Driver: cfg.DBDriver, DSN: cfg.DatabaseDSN, MaxOpenConns: cfg.DBMaxOpenConns})
	if err != nil {
		return nil, err
	}
	if err = a.db.Migrate(ctx); err != nil {
		return nil, err
	}

	orderRepo := repositories.NewGORMOrderRepository(a.db.DB())
	productRepo := repositories.NewGORMProductRepository(a.db.DB())
	productService := services.NewProductService(productRepo)
	if cfg.SeedProducts {
		seedProducts(ctx, productService, log)
	}

	// --- RabbitMQ (optional) ---
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		a.mqClient, err = rabbitmq.NewClient(rabbitmq.Config{
			URL:    cfg.RabbitMQURL,
			Queues: []string{events.Queue, notifications.Queue},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		publisher = events.NewAMQPPublisher(a.mqClient)
	}

	// --- Cart store ---
	var cartStore repositories.CartStore = repositories.NewMemoryCartStore()
	if cfg.RedisURL != "" {
		a.redis, err = repositories.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		cartStore = repositories.NewRedisCartStore(a.redis)
	}

	// --- Metrics & notifications ---
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	transport, err := notificationTransport(cfg, log, a.mqClient)
	if err != nil {
		return nil, err
	}
	a.dispatcher = notifications.NewDispatcher(transport, cfg.NotifyTimeout, log, m)

	processor, err := midtrans.NewClient(midtrans.Config{
		BaseURL:   cfg.MidtransBaseURL,
		ServerKey: cfg.MidtransServerKey,
		Timeout:   cfg.ProcessorTimeout,
	})
	if err != nil {
		return nil, err
	}

	// --- Initialize Services ---
	authService := services.NewAuthService(cfg.JWTSecret)
	checkoutService := services.NewCheckoutService(a.db, orderRepo, productRepo, processor, cfg.ProcessorTimeout, a.dispatcher, publisher, cfg.EventPublishTimeout, log, cfg.OpsEmail)
	fulfillmentService := services.NewFulfillmentService(a.db, orderRepo, productRepo, a.dispatcher, publisher, cfg.EventPublishTimeout, log, m)
	cancellationService := services.NewCancellationService(a.db, orderRepo, a.dispatcher, publisher, cfg.EventPublishTimeout, log, m, cfg.OpsEmail)
	webhookService := services.NewWebhookService(processor.ServerKey(), fulfillmentService, log, m)
	orderService := services.NewOrderService(orderRepo, fulfillmentService, cancellationService, cfg.AdminCompleteAdjustsStock)
	cartService := services.NewCartService(cartStore, productRepo)

	// --- Initialize Fiber App ---
	a.app = fiber.New(fiber.Config{AppName: "littlegrow"})
	a.app.Use(recover.New())
	a.app.Use(requestid.New())
	a.app.Use(fiberlogger.New())

	a.app.Get("/health", a.handleHealth)
	a.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// --- API Routes ---
	handlers.Register(a.app.Group("/api/v1"), authService, handlers.Handlers{
		Auth:     handlers.NewAuthHandler(),
		Checkout: handlers.NewCheckoutHandler(checkoutService, log),
		Webhook:  handlers.NewWebhookHandler(webhookService, log),
		Order:    handlers.NewOrderHandler(orderService, cancellationService, log),
		Admin:    handlers.NewAdminHandler(orderService, productService, log),
		Cart:     handlers.NewCartHandler(cartService, log),
	})
	return a, nil
}

func notificationTransport(cfg *config.Config, log *logger.Logger, mqClient *rabbitmq.Client) (notifications.Transport, error) {
	switch cfg.NotifyTransport {
	case "resend":
		return notifications.NewResendTransport(cfg.ResendBaseURL, cfg.ResendAPIKey, cfg.MailFrom), nil
	case "amqp":
		if mqClient == nil {
			return nil, fmt.Errorf("NOTIFY_TRANSPORT=amqp requires RABBITMQ_URL")
		}
		return notifications.NewAMQPTransport(mqClient), nil
	default:
		return notifications.NewLogTransport(log), nil
	}
}

func (a *application) handleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	body := fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": "connected",
	}
	if err := a.db.Ping(ctx); err != nil {
		status = fiber.StatusServiceUnavailable
		body["status"] = "unhealthy"
		body["database"] = err.Error()
	}
	if a.redis != nil {
		body["cart_store"] = "redis"
		if err := a.redis.Ping(ctx).Err(); err != nil {
			status = fiber.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body["cart_store"] = err.Error()
		}
	}
	return c.Status(status).JSON(body)
}

// Shutdown stops accepting requests, drains in-flight notifications and
// releases every connection.
func (a *application) Shutdown(timeout time.Duration) error {
	err := a.app.ShutdownWithTimeout(timeout)
	a.dispatcher.Wait()
	return multierr.Append(err, a.close())
}

func (a *application) close() error {
	var err error
	if a.mqClient != nil {
		err = multierr.Append(err, a.mqClient.Close())
	}
	if a.redis != nil {
		err = multierr.Append(err, a.redis.Close())
	}
	if a.db != nil {
		err = multierr.Append(err, a.db.Close())
	}
	return err
}

// seedProducts populates the inventory with some initial data.
func seedProducts(ctx context.Context, service *services.ProductService, log *logger.Logger) {
	products := []models.Product{
		{ID: "monstera-deliciosa", Name: "Monstera Deliciosa", Price: decimal.NewFromInt(185000), Stock: 12},
		{ID: "snake-plant", Name: "Snake Plant", Price: decimal.NewFromInt(75000), Stock: 30},
		{ID: "golden-pothos", Name: "Golden Pothos", Price: decimal.NewFromInt(45000), Stock: 40},
	}

	created, err := service.Seed(ctx, products)
	if err != nil {
		log.Error(ctx, "error seeding products", err)
		return
	}
	log.Info(log.WithField(ctx, "created", created), "seeded products")
}
