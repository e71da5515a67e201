package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-logr/logr"

	"github.com/mealmesh/orders/internal/adapter/cache"
	"github.com/mealmesh/orders/internal/adapter/eventbus"
	"github.com/mealmesh/orders/internal/adapter/logger"
	"github.com/mealmesh/orders/internal/adapter/postgres"
	"github.com/mealmesh/orders/internal/adapter/rabbitmq"
	"github.com/mealmesh/orders/internal/app/courier"
	"github.com/mealmesh/orders/internal/app/orders"
	"github.com/mealmesh/orders/internal/app/tracking"
	"github.com/mealmesh/orders/internal/config"

	amqpAdapter "github.com/mealmesh/orders/internal/adapter/amqp"
	httpAdapter "github.com/mealmesh/orders/internal/adapter/http"
)

func main() {
	mode := flag.String("mode", "", "Service mode: order-service, courier-worker, notification-subscriber")
	port := flag.Int("port", 0, "HTTP port override")
	tenantID := flag.String("tenant-id", "", "Tenant the courier worker serves")
	courierName := flag.String("courier-name", "", "Courier name (for courier-worker)")
	travelTime := flag.Int("travel-time", 10, "Simulated travel time in seconds")
	heartbeatInterval := flag.Int("heartbeat-interval", 30, "Heartbeat interval in seconds")
	prefetch := flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}

	ctx := context.Background()

	lgr := logger.New(*mode)

	// Стартовые подключения с повторами
	var db postgres.DB
	err = retry.Do(func() error {
		db, err = postgres.Connect(ctx, cfg.Database)
		return err
	}, retry.Attempts(5), retry.Delay(2*time.Second))
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	lgr.Info("connected to PostgreSQL", "host", cfg.Database.Host, "db", cfg.Database.Database)

	var mqConn rabbitmq.Connection
	err = retry.Do(func() error {
		mqConn, err = rabbitmq.Connect(cfg.RabbitMQ)
		return err
	}, retry.Attempts(5), retry.Delay(2*time.Second))
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("connected to RabbitMQ", "host", cfg.RabbitMQ.Host)

	switch *mode {
	case "order-service":
		runOrderService(ctx, cfg, db, mqConn, lgr)

	case "courier-worker":
		if *tenantID == "" || *courierName == "" {
			log.Fatal("--tenant-id and --courier-name are required for courier-worker mode")
		}
		runCourierWorker(ctx, db, mqConn, lgr, *tenantID, *courierName, *travelTime, *heartbeatInterval, *prefetch)

	case "notification-subscriber":
		runNotificationSubscriber(ctx, mqConn, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func buildOrderService(db postgres.DB, mqConn rabbitmq.Connection, lgr logr.Logger) (*orders.Service, *postgres.OrderRepository) {
	orderRepo := postgres.NewOrderRepository(db)
	uow := postgres.NewUnitOfWork(db, orderRepo, lgr)

	bus := eventbus.NewMemoryBus()
	publisher := rabbitmq.NewPublisher(mqConn)
	bus.Register(publisher.PublishEvent)

	return orders.NewService(orderRepo, uow, bus, lgr), orderRepo
}

func runOrderService(ctx context.Context, cfg *config.Config, db postgres.DB, mqConn rabbitmq.Connection, lgr logr.Logger) {
	orderService, orderRepo := buildOrderService(db, mqConn, lgr)
	courierRepo := postgres.NewCourierRepository(db)

	statusCache := cache.NewRedisCache(cfg.Redis.Addr, "order-service")
	trackingService := tracking.NewService(orderRepo, courierRepo, statusCache, lgr)

	orderHandler := httpAdapter.NewOrderHandler(orderService, lgr)
	trackingHandler := httpAdapter.NewTrackingHandler(trackingService, lgr)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      httpAdapter.NewRouter(orderHandler, trackingHandler, lgr),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("order service started", "port", cfg.HTTP.Port)

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutting down order service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error(err, "error during shutdown")
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error(err, "server error")
	}
}

func runCourierWorker(ctx context.Context, db postgres.DB, mqConn rabbitmq.Connection, lgr logr.Logger,
	tenantID, courierName string, travelTime, heartbeatInterval, prefetch int) {
	orderService, _ := buildOrderService(db, mqConn, lgr)
	courierRepo := postgres.NewCourierRepository(db)

	courierService := courier.NewService(orderService, courierRepo, lgr, tenantID, courierName, travelTime, heartbeatInterval)

	consumer := rabbitmq.NewConsumer(mqConn, prefetch)
	courierHandler := amqpAdapter.NewCourierHandler(courierService, lgr)

	if err := courierService.Start(ctx); err != nil {
		log.Fatalf("Failed to start courier worker: %v", err)
	}

	lgr.Info("courier worker started", "tenant_id", tenantID, "courier", courierName, "prefetch", prefetch)

	go func() {
		if err := consumer.ConsumeReadyOrders(ctx, courierHandler.HandleReadyOrder); err != nil {
			lgr.Error(err, "error consuming ready orders")
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutting down courier worker")

	if err := courierService.Shutdown(ctx); err != nil {
		lgr.Error(err, "error during shutdown")
	}
}

func runNotificationSubscriber(ctx context.Context, mqConn rabbitmq.Connection, lgr logr.Logger) {
	consumer := rabbitmq.NewConsumer(mqConn, 1)
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr)

	lgr.Info("notification subscriber started")

	go func() {
		if err := consumer.ConsumeNotifications(ctx, notificationHandler.HandleNotification); err != nil {
			lgr.Error(err, "error consuming notifications")
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutting down notification subscriber")
}
