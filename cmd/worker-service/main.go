package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/cuongbtq/booking-core/internal/booking/expiry"
	"github.com/cuongbtq/booking-core/internal/booking/service"
	"github.com/cuongbtq/booking-core/internal/booking/storage"
	"github.com/cuongbtq/booking-core/internal/config"
	"github.com/cuongbtq/booking-core/internal/events"
	"github.com/cuongbtq/booking-core/internal/lock"
	"github.com/cuongbtq/booking-core/internal/notify"
	"github.com/cuongbtq/booking-core/internal/worker"
	"github.com/cuongbtq/booking-core/shared/logger"
	"github.com/cuongbtq/booking-core/shared/postgresql"
	"github.com/cuongbtq/booking-core/shared/rabbitmq"
	"github.com/cuongbtq/booking-core/shared/redis"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging, cfg.App.Name)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer rabbitClient.Close()

	locker, closeLocker := initLocker(&cfg.Redis, appLogger.Logger)
	defer closeLocker()

	loc, err := cfg.Booking.Location()
	if err != nil {
		return err
	}
	policy, err := expiry.NewPolicy(cfg.Booking.ExpiryTiers)
	if err != nil {
		return fmt.Errorf("invalid expiry policy: %w", err)
	}

	store := storage.NewPostgres(dbClient, appLogger.Logger)
	svc := service.New(&service.Config{
		Store:     store,
		Locker:    locker,
		Publisher: events.NewPublisher(rabbitClient, appLogger.Logger),
		Policy:    policy,
		Settings: service.Settings{
			ImmediateLead: cfg.Booking.ImmediateLead,
			SupportPhone:  cfg.Booking.SupportPhone,
		},
		Logger: appLogger.Logger,
	})

	dispatcher := notify.NewDispatcher(store, initNotifier(cfg, appLogger.Logger), &notify.Config{
		Location:       loc,
		NightStartHour: cfg.Booking.NightStartHour,
		NightEndHour:   cfg.Booking.NightEndHour,
		Logger:         appLogger.Logger,
	})

	workerInstance := worker.NewWorker(&worker.Config{
		Logger:         appLogger.Logger,
		Source:         rabbitClient,
		Handler:        dispatcher,
		Expirer:        svc,
		WorkerID:       cfg.Worker.ID,
		Concurrency:    cfg.Worker.Concurrency,
		PrefetchCount:  cfg.RabbitMQ.Consumer.PrefetchCount,
		EventTimeout:   cfg.Worker.EventTimeout,
		ExpiryInterval: cfg.Worker.ExpiryInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		if err := workerInstance.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	appLogger.Info("Worker service started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-errChan:
		appLogger.Error("Worker error",
			slog.Any("error", err),
		)
		return err
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		workerInstance.Stop()
		close(done)
	}()

	select {
	case <-done:
		appLogger.Info("Worker stopped gracefully")
	case <-shutdownCtx.Done():
		appLogger.Warn("Worker shutdown timeout exceeded, forcing exit")
	}

	appLogger.Info("Worker service shutdown complete")
	return nil
}

// initNotifier wires a transport per channel. Disabled channels only log what they would send.
func initNotifier(cfg *config.Config, logger *slog.Logger) notify.Channels {
	fallback := notify.NewLogNotifier(logger)
	ch := notify.Channels{Email: fallback, Push: fallback, SMS: fallback}

	if cfg.SMTP.Enabled {
		ch.Email = notify.NewSMTPNotifier(&notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			FromName: cfg.SMTP.FromName,
		}, logger)
	}
	if cfg.Push.Enabled {
		ch.Push = notify.NewPushNotifier(notify.PushConfig{
			URL:     cfg.Push.URL,
			AppID:   cfg.Push.AppID,
			APIKey:  cfg.Push.APIKey,
			Timeout: cfg.Push.Timeout,
		}, logger)
	}
	if cfg.SMS.Enabled {
		ch.SMS = notify.NewSMSNotifier(notify.SMSConfig{
			URL:     cfg.SMS.URL,
			APIKey:  cfg.SMS.APIKey,
			From:    cfg.SMS.From,
			Timeout: cfg.SMS.Timeout,
		}, logger)
	}

	logger.Info("Notification channels configured",
		slog.Bool("smtp", cfg.SMTP.Enabled),
		slog.Bool("push", cfg.Push.Enabled),
		slog.Bool("sms", cfg.SMS.Enabled),
	)
	return ch
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig, service string) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
		NoColor:      cfg.NoColor,
		Service:      service,
	})
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	return postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}, logger)
}

// initRabbitMQ initializes the RabbitMQ client that carries booking events
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	return rabbitmq.NewClient(&rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		DeadLetterExchange: cfg.Queue.DeadLetterExchange,
		DeadLetterQueue:    cfg.Queue.DeadLetterQueue,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}, logger)
}

// initLocker returns the Redis locker when Redis is enabled and reachable, and
// the in-process locker otherwise.
func initLocker(cfg *config.RedisConfig, logger *slog.Logger) (lock.Locker, func()) {
	if !cfg.Enabled {
		logger.Info("Redis disabled, using in-process job locks")
		return lock.NewLocal(), func() {}
	}

	client, err := redis.NewClient(&redis.Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	}, logger)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-process job locks",
			slog.Any("error", err),
		)
		return lock.NewLocal(), func() {}
	}

	return lock.NewRedis(client.GetClient(), lock.RedisConfig{TTL: cfg.LockTTL}, logger), func() {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close Redis client", slog.Any("error", err))
		}
	}
}
