// Package platform собирает HTTP API платформы: сервисы, маршруты и сервер.
package platform

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/elearning-platform/internal/cache"
	"github.com/magabrotheeeer/elearning-platform/internal/config"
	"github.com/magabrotheeeer/elearning-platform/internal/grpc/server"
	"github.com/magabrotheeeer/elearning-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/metrics"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/sl"
	"github.com/magabrotheeeer/elearning-platform/internal/mediastore"
	"github.com/magabrotheeeer/elearning-platform/internal/paymentprovider"
	"github.com/magabrotheeeer/elearning-platform/internal/rabbitmq"
	access "github.com/magabrotheeeer/elearning-platform/internal/services/access"
	auth "github.com/magabrotheeeer/elearning-platform/internal/services/auth"
	catalog "github.com/magabrotheeeer/elearning-platform/internal/services/catalog"
	dashboardservice "github.com/magabrotheeeer/elearning-platform/internal/services/dashboard"
	healthyservice "github.com/magabrotheeeer/elearning-platform/internal/services/healthy"
	promotion "github.com/magabrotheeeer/elearning-platform/internal/services/promotion"
	purchaseservice "github.com/magabrotheeeer/elearning-platform/internal/services/purchase"
	subscription "github.com/magabrotheeeer/elearning-platform/internal/services/subscription"
	user "github.com/magabrotheeeer/elearning-platform/internal/services/user"
	webhook "github.com/magabrotheeeer/elearning-platform/internal/services/webhook"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// Publisher публикует уведомления.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

type App struct {
	server       *http.Server
	healthServer *server.HealthServer
	grpcAddress  string
	logger       *slog.Logger
	db           *repository.Storage
	cache        *cache.Cache
	amqpConn     *amqp.Connection
	amqpCh       *amqp.Channel
}

// New собирает приложение поверх уже открытого хранилища db.
// Redis и RabbitMQ необязательны: без адреса кэш и публикация отключаются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *repository.Storage) (*App, error) {
	app := &App{
		logger:      logger,
		db:          db,
		grpcAddress: cfg.GRPCHealthAddress,
	}

	var catalogCache catalog.Cache = cache.Noop{}
	if cfg.AddressRedis != "" {
		c, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			logger.Warn("redis unavailable, catalog cache disabled", sl.Err(err))
		} else {
			app.cache = c
			catalogCache = c
		}
	}

	var publisher Publisher = rabbitmq.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.closeResources()
			return nil, err
		}
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
		if err != nil {
			_ = conn.Close()
			app.closeResources()
			return nil, err
		}
		app.amqpConn, app.amqpCh = conn, ch
		publisher = rabbitmq.NewPublisher(ch)
	} else {
		logger.Warn("rabbitmq url is empty, notifications disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	gateway := paymentprovider.NewClient(cfg.PayPal.BaseURL(), cfg.PayPalClientID, cfg.PayPalClientSecret)
	media := mediastore.NewCloudinary(cfg.Cloudinary)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	subscriptionService := subscription.NewSubscriptionService(db, m, logger)
	accessService := access.NewAccessService(db, logger)
	promotionService := promotion.NewPromotionService(db, logger)
	authService := auth.NewAuthService(db, subscriptionService, jwtMaker, publisher, cfg.FrontendURL, cfg.ResetTokenTTL, logger)

	deps := Deps{
		Log:           logger,
		Auth:          authService,
		Users:         user.NewUserService(db, subscriptionService, logger),
		Catalog:       catalog.NewCatalogService(db, catalogCache, media, cfg.CacheTTL, logger),
		Access:        accessService,
		Purchases:     purchaseservice.NewPurchaseService(db, promotionService, accessService, gateway, m, cfg.PayPalCurrency, cfg.FrontendURL, logger),
		Subscriptions: subscriptionService,
		Webhooks:      webhook.NewWebhookService(db, subscriptionService, gateway, publisher, m, cfg.PayPalWebhookID, logger),
		Promotions:    promotionService,
		Healthy:       healthyservice.NewHealthyService(db, media, logger),
		Dashboard:     dashboardservice.NewDashboardService(repository.NewDashboard(db), logger),
		DB:            db.DB,
		Metrics:       m,
		Gatherer:      reg,
		Cookie: middlewarectx.CookieSettings{
			Name:   cfg.CookieName,
			Secure: cfg.CookieSecure,
			TTL:    cfg.TokenTTL,
		},
		CORSOrigins: cfg.CORSAllowedOrigins,
		RateRPS:     cfg.RateLimitRPS,
		RateBurst:   cfg.RateLimitBurst,
	}

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      NewRouter(deps),
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	if cfg.GRPCHealthAddress != "" {
		app.healthServer = server.NewHealthServer(db, 10*time.Second, logger)
	}

	return app, nil
}

// Handler корневой обработчик HTTP.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run обслуживает запросы до отмены ctx, затем плавно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	if a.healthServer != nil {
		lis, err := net.Listen("tcp", a.grpcAddress)
		if err != nil {
			a.logger.Error("failed to listen gRPC health address", sl.Err(err))
		} else {
			go func() {
				if err := a.healthServer.Serve(ctx, lis); err != nil {
					a.logger.Error("gRPC health server stopped", sl.Err(err))
				}
			}()
		}
	}

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		runErr = a.server.Shutdown(timeoutCtx)
	}
	a.closeResources()
	return runErr
}

func (a *App) closeResources() {
	if a.amqpCh != nil {
		if err := a.amqpCh.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
}
