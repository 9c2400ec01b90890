package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/library-space-reservation/internal/config"
	"github.com/iliyamo/library-space-reservation/internal/database"
	"github.com/iliyamo/library-space-reservation/internal/engine"
	"github.com/iliyamo/library-space-reservation/internal/event"
	"github.com/iliyamo/library-space-reservation/internal/handler"
	"github.com/iliyamo/library-space-reservation/internal/logger"
	"github.com/iliyamo/library-space-reservation/internal/notify"
	"github.com/iliyamo/library-space-reservation/internal/queue"
	"github.com/iliyamo/library-space-reservation/internal/repository"
	"github.com/iliyamo/library-space-reservation/internal/router"
	"github.com/iliyamo/library-space-reservation/internal/stats"
	"github.com/iliyamo/library-space-reservation/internal/sweeper"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env always wins

	cfg := config.Load()
	sync := logger.Init(cfg.Env)
	defer sync()
	log := zap.S()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and response caching disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	spaces := repository.NewSpaceRepo(db)
	reservations := repository.NewReservationRepo(db)
	waitlist := repository.NewWaitlistRepo(db)
	feedback := repository.NewFeedbackRepo(db)
	statsRepo := repository.NewStatsRepo(db)

	bus := event.NewBus()
	gateway := notify.NewGateway(users)

	eng := engine.New(spaces, reservations, waitlist, feedback, bus, gateway, engine.Config{
		SlotDuration: cfg.SlotDuration,
		CheckInGrace: cfg.CheckInGrace,
	})
	stats.NewAggregator(statsRepo, bus)
	queue.MirrorBus(bus)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sw := sweeper.New(reservations, gateway, bus, sweeper.Config{
		CheckInGrace:  cfg.CheckInGrace,
		ReminderLead:  cfg.ReminderLead,
		NoShowEvery:   cfg.NoShowSweepEvery,
		ReminderEvery: cfg.ReminderEvery,
	})
	go sw.Run(ctx)

	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Warnw("notification consumer stopped", "error", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, users, tokens),
		Space:       handler.NewSpaceHandler(spaces),
		Reservation: handler.NewReservationHandler(cfg, eng, reservations, waitlist),
		CheckIn:     handler.NewCheckInHandler(cfg, eng),
		Admin:       handler.NewAdminHandler(eng, reservations, statsRepo),
		Feedback:    handler.NewFeedbackHandler(eng, feedback),
	}, cfg, rdb)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		_ = e.Shutdown(context.Background())
	}()

	addr := ":" + cfg.Port
	log.Infow("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Infow("server stopped", "reason", err)
	}
}
