package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/changefeed"
	"github.com/BruksfildServices01/barber-agenda/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-agenda/internal/db"
	"github.com/BruksfildServices01/barber-agenda/internal/handlers"
	infraRepo "github.com/BruksfildServices01/barber-agenda/internal/infra/repository"
	"github.com/BruksfildServices01/barber-agenda/internal/infra/session"
	"github.com/BruksfildServices01/barber-agenda/internal/infra/storage"
	"github.com/BruksfildServices01/barber-agenda/internal/logger"
	"github.com/BruksfildServices01/barber-agenda/internal/middleware"
	"github.com/BruksfildServices01/barber-agenda/internal/realtime"
	"github.com/BruksfildServices01/barber-agenda/internal/routes"
	"github.com/BruksfildServices01/barber-agenda/internal/timezone"
	ucAppointment "github.com/BruksfildServices01/barber-agenda/internal/usecase/appointment"
	ucBooking "github.com/BruksfildServices01/barber-agenda/internal/usecase/booking"
)

const tokenTTL = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := dbpkg.NewDB(cfg, zl)
	if err != nil {
		return err
	}

	clock := timezone.NewClock(cfg.Timezone)

	auditDispatcher := audit.NewDispatcher(audit.New(db), zl.Named("audit"))
	defer auditDispatcher.Close()

	// ======================================================
	// CHANGE FEED
	// ======================================================
	var (
		feed      changefeed.Feed
		publisher changefeed.Publisher
	)
	switch cfg.ChangeFeed {
	case config.ChangeFeedRabbitMQ:
		feed = changefeed.NewAMQPFeed(cfg.RabbitMQURL, zl.Named("amqp"))
		amqpPub := changefeed.NewAMQPPublisher(cfg.RabbitMQURL, zl.Named("amqp"))
		defer func() { _ = amqpPub.Close() }()
		publisher = amqpPub
	case config.ChangeFeedMemory:
		mem := changefeed.NewMemoryFeed()
		feed, publisher = mem, mem
	default:
		// o trigger do banco publica; nada a fazer no commit
		feed = changefeed.NewPgFeed(cfg.DBUrl, dbpkg.NotifyChannel, zl.Named("pgfeed"))
		publisher = changefeed.NopPublisher{}
	}

	// ======================================================
	// BOOKING SESSIONS
	// ======================================================
	var bookings ucBooking.Store
	if cfg.RedisEnabled() {
		client, err := session.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		bookings = session.NewRedisStore(client, cfg.BookingTTL, cfg.BookingLockTTL)
	} else {
		zl.Warn("REDIS_ADDR not set, booking sessions kept in memory")
		bookings = session.NewMemoryStore(cfg.BookingTTL)
	}

	// ======================================================
	// PHOTOS
	// ======================================================
	var (
		blobs  storage.BlobStore = storage.DisabledStore{}
		photos handlers.PhotoStore
	)
	if cfg.StorageEnabled() {
		s3Store := storage.NewS3Store(cfg)
		blobs, photos = s3Store, s3Store
	}

	// ======================================================
	// LIVE
	// ======================================================
	loader := ucAppointment.NewListAppointmentsByDate(infraRepo.NewAppointmentGormRepository(db))
	hub := realtime.NewHub(feed, loader, realtime.OptionsFrom(cfg), zl)
	hubDone := hub.Start(ctx)

	// ======================================================
	// HTTP
	// ======================================================
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(zl))
	r.Use(middleware.RequestLogger(zl.Named("http")))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins()))

	routes.RegisterRoutes(r, routes.Deps{
		DB:       db,
		Log:      zl,
		Clock:    clock,
		Tokens:   auth.NewTokens(cfg.JWTSecret, tokenTTL),
		Audit:    auditDispatcher,
		Events:   publisher,
		Hub:      hub,
		Bookings: bookings,
		Blobs:    blobs,
		Photos:   photos,
	})

	// sem WriteTimeout: o SSE fica aberto
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server running", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// ctx já foi cancelado: o hub encerra as sessões e o SSE solta as conexões
	<-hubDone
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
