package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lawaid/soulsystem-backend/common/logger"
	"github.com/lawaid/soulsystem-backend/common/middleware"
	"github.com/lawaid/soulsystem-backend/controllers"
	aws_pkg "github.com/lawaid/soulsystem-backend/pkg/aws"
	"github.com/lawaid/soulsystem-backend/repository"
	"github.com/lawaid/soulsystem-backend/routes"
	"github.com/lawaid/soulsystem-backend/services"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "soulsystem"

func main() {
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	awsCfg, awsErr := aws_pkg.LoadAWSConfig(ctx)

	// --- Logging ---
	var log *zap.Logger
	var cwWriter *aws_pkg.CloudWatchLogsClient
	if awsErr == nil && os.Getenv("CLOUDWATCH_ENABLED") == "true" {
		cwWriter, err = aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, serviceName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "CloudWatch logs disabled: %v\n", err)
			cwWriter = nil
		}
	}
	if cwWriter != nil {
		log, err = logger.InitializeWithWriter(cfg.Env, cwWriter)
	} else {
		log, err = logger.Initialize(cfg.Env)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if awsErr != nil {
		log.Warn("AWS config unavailable, AWS integrations disabled", zap.Error(awsErr))
	} else if endpoint := aws_pkg.Endpoint(); endpoint != "" {
		log.Info("Using custom AWS endpoint", zap.String("endpoint", endpoint), zap.String("region", awsCfg.Region))
	}

	// --- Secrets ---
	if cfg.UseSecretsManager {
		if awsErr != nil {
			log.Fatal("AWS_USE_SECRETS is set but AWS config failed", zap.Error(awsErr))
		}
		if err := cfg.ApplySecrets(ctx, aws_pkg.NewSecretsClient(awsCfg)); err != nil {
			log.Fatal("Failed to read secrets", zap.String("secret", secretsName), zap.Error(err))
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	// --- Registry ---
	store, closeStore, err := buildStore(ctx, cfg, awsCfg, awsErr)
	if err != nil {
		log.Fatal("Failed to initialize registry store", zap.String("backend", cfg.RegistryBackend), zap.Error(err))
	}
	registry := repository.NewRegistry(store, log.Named("registry"), cfg.RegistryMaxRetries)
	log.Info("Registry ready", zap.String("backend", cfg.RegistryBackend))

	// --- Events & metrics ---
	var metricsClient *aws_pkg.MetricsClient
	var snsClient aws_pkg.SNSPublisher
	if awsErr == nil {
		metricsClient = aws_pkg.NewMetricsClient(awsCfg)
		if cfg.EventsSNSTopicARN != "" {
			snsClient = aws_pkg.NewSNSClient(awsCfg)
		}
	}
	var recorder services.MetricsRecorder
	if metricsClient.IsEnabled() {
		recorder = metricsClient
	}
	notifier := services.NewNotifier(snsClient, cfg.EventsSNSTopicARN, recorder, log.Named("events"))

	// --- Dependency injection ---
	minter, err := services.NewSoulMarkMinter(cfg.SoulMarkSecret, services.CryptoNonce)
	if err != nil {
		log.Fatal("SoulMark minter init failed", zap.Error(err))
	}
	stripeSvc := services.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.StripeTimeout, log.Named("stripe"))
	var webhooks services.WebhookParser
	if cfg.StripeWebhookSecret != "" {
		webhooks = stripeSvc
	}

	orderService := services.NewOrderService(registry, notifier, services.NewUUID, services.SystemClock, log.Named("orders"))
	checkoutService := services.NewCheckoutService(registry, stripeSvc, notifier, cfg.BaseURL, log.Named("checkout"))
	paymentService := services.NewPaymentService(registry, stripeSvc, webhooks, minter, notifier, services.SystemClock, log.Named("payments"))
	identityService := services.NewIdentityService(registry, notifier, services.NewUUID, services.SystemClock, log.Named("identities"))

	// --- HTTP router ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	limiterCtx, stopLimiter := context.WithCancel(ctx)
	limiter := middleware.NewRateLimiter(middleware.PerMinute(cfg.RateLimitRPM), 50, 5*time.Minute)
	go limiter.Run(limiterCtx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.RateLimitMiddleware(limiter))
	r.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	routes.RegisterRoutes(r, routes.Controllers{
		Orders:     controllers.NewOrderController(orderService),
		Checkout:   controllers.NewCheckoutController(checkoutService),
		Payments:   controllers.NewPaymentController(paymentService),
		Identities: controllers.NewIdentityController(identityService),
	})

	// --- HTTP server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("SoulSystem service started", zap.String("port", cfg.Port), zap.String("base_url", cfg.BaseURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
	stopLimiter()
	notifier.Wait()
	registry.Close()
	closeStore()

	log.Info("SoulSystem service stopped gracefully")
}

// buildStore opens the configured registry backend. The returned func
// releases its connections.
func buildStore(ctx context.Context, cfg *Config, awsCfg sdkaws.Config, awsErr error) (repository.Store, func(), error) {
	noop := func() {}

	switch cfg.RegistryBackend {
	case backendS3, backendDynamoDB:
		if awsErr != nil {
			return nil, noop, awsErr
		}
	}

	switch cfg.RegistryBackend {
	case backendS3:
		return repository.NewS3Store(aws_pkg.NewS3Client(awsCfg), cfg.RegistryS3Bucket, cfg.RegistryS3Key), noop, nil
	case backendDynamoDB:
		return repository.NewDynamoStore(aws_pkg.NewDynamoDBClient(awsCfg), cfg.RegistryDynamoTable), noop, nil
	case backendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return repository.NewRedisStore(client, cfg.RegistryRedisKey), func() { _ = client.Close() }, nil
	default:
		return repository.NewFileStore(cfg.RegistryPath), noop, nil
	}
}
