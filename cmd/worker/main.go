package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightshop/config"
	"github.com/Domenick1991/flightshop/internal/audit"
	"github.com/Domenick1991/flightshop/internal/bootstrap"
	"github.com/Domenick1991/flightshop/internal/email"
	"github.com/Domenick1991/flightshop/internal/kafka"
	"github.com/Domenick1991/flightshop/internal/logging"
	sessionsvc "github.com/Domenick1991/flightshop/internal/service/session"
	"github.com/Domenick1991/flightshop/internal/worker"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.Log, "flightshop-worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("open session store")
	}
	defer stores.Close()

	securityLog := audit.NewSecurityLogger(stores.Events, log.WithField("component", "audit"),
		audit.WithRetention(cfg.Session.EventRetention))
	// Sweeping only; the worker never issues sessions.
	sessions := sessionsvc.NewManager(stores.Sessions, nil, nil, securityLog,
		sessionsvc.WithStoreTimeout(cfg.Session.StoreTimeout),
		sessionsvc.WithLogger(log.WithField("component", "sessions")),
	)

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
		defer consumer.Close()

		sender := email.NewSender(cfg.Email, log.WithField("component", "email"))
		handler := kafka.BookingEventHandler(log, worker.TicketNotifier(sender, log))
		go func() {
			if err := consumer.Consume(ctx, handler); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("consumer stopped")
				stop()
			}
		}()
	} else {
		log.Warn("no kafka brokers configured, ticket emails disabled")
	}

	interval := time.Duration(cfg.Worker.ExpirationSweepMinutes) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	log.WithField("interval", interval.String()).Info("worker started")

	worker.NewSweeper(log).
		Add("sessions", sessions).
		Add("security_events", securityLog).
		Run(ctx, interval)

	log.Info("worker stopped")
}
