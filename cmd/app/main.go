package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/flightshop/api"
	"github.com/Domenick1991/flightshop/config"
	"github.com/Domenick1991/flightshop/internal/audit"
	"github.com/Domenick1991/flightshop/internal/bootstrap"
	"github.com/Domenick1991/flightshop/internal/cache"
	"github.com/Domenick1991/flightshop/internal/kafka"
	"github.com/Domenick1991/flightshop/internal/logging"
	"github.com/Domenick1991/flightshop/internal/pricing"
	"github.com/Domenick1991/flightshop/internal/service/booking"
	"github.com/Domenick1991/flightshop/internal/service/flights"
	sessionsvc "github.com/Domenick1991/flightshop/internal/service/session"
	"github.com/Domenick1991/flightshop/internal/supplier"
	"github.com/Domenick1991/flightshop/internal/token"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const publishAttempts = 3

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.Log, "flightshop-api")
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("open session store")
	}
	defer stores.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		log.WithError(err).Warn("kafka unavailable, notifications will fail until it recovers")
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Supplier.CacheTTL)
	checks := append(stores.Checks, bootstrap.Check{Name: "redis", Fn: redisCache.Ping})

	markup, err := pricing.NewMarkup(cfg.Markup.Fee)
	if err != nil {
		log.WithError(err).Fatal("markup fee")
	}

	tokens := token.NewGenerator(cfg.Session.Secret)
	if tokens.UsesDefaultSecret() {
		log.Warn("SESSION_SECRET is not set, session tokens are signed with the built-in default secret")
	}

	auditOpts := []audit.Option{
		audit.WithTimeout(cfg.Session.AuditTimeout),
		audit.WithRetention(cfg.Session.EventRetention),
	}
	if cfg.Kafka.SecurityEventsTopic != "" {
		auditOpts = append(auditOpts, audit.WithPublisher(producer, cfg.Kafka.SecurityEventsTopic))
	}
	securityLog := audit.NewSecurityLogger(stores.Events, log.WithField("component", "audit"), auditOpts...)

	sessions := sessionsvc.NewManager(stores.Sessions, tokens, markup, securityLog,
		sessionsvc.WithTTL(cfg.Session.TTL),
		sessionsvc.WithStoreTimeout(cfg.Session.StoreTimeout),
		sessionsvc.WithLogger(log.WithField("component", "sessions")),
	)
	if err := sessions.Init(ctx); err != nil {
		log.WithError(err).Fatal("prepare session store")
	}
	if err := stores.Orders.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Fatal("prepare order ledger")
	}

	supplierClient := supplier.NewClient(cfg.Supplier)
	searchService := flights.NewSearchService(supplierClient, redisCache, sessions,
		flights.WithMaxOffers(cfg.Session.MaxOffers),
		flights.WithLogger(log.WithField("component", "search")),
	)
	bookingService := booking.NewBookingService(
		sessions,
		supplierClient,
		kafka.Retrying{Producer: producer, Attempts: publishAttempts},
		cfg.Kafka.NotificationsTopic,
		booking.WithCheckoutLocker(redisCache, 0),
		booking.WithOrderStore(stores.Orders),
		booking.WithLogger(log.WithField("component", "booking")),
	)

	router := api.NewRouter(api.Handlers{
		Search:     api.NewSearchHandler(searchService),
		Orders:     api.NewOrderHandler(bookingService, stores.Orders),
		Sessions:   api.NewSessionHandler(sessions),
		AdminToken: cfg.Admin.Token,
	}, log)

	if err := bootstrap.Run(ctx, cfg, router, log, checks...); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
