package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv" // optional .env loading for local runs

	"github.com/iliyamo/game-storefront/internal/config"     // Internal config loader
	"github.com/iliyamo/game-storefront/internal/database"   // MySQL connection and migrations
	"github.com/iliyamo/game-storefront/internal/handler"    // HTTP handlers
	"github.com/iliyamo/game-storefront/internal/logger"     // logrus setup
	"github.com/iliyamo/game-storefront/internal/media"      // upload storage
	"github.com/iliyamo/game-storefront/internal/middleware" // response cache
	"github.com/iliyamo/game-storefront/internal/queue"      // purchase events
	"github.com/iliyamo/game-storefront/internal/repository" // MySQL stores
	"github.com/iliyamo/game-storefront/internal/router"     // Internal router setup
	"github.com/iliyamo/game-storefront/internal/service"    // domain services
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; the environment wins

	cfg := config.Load()
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn := database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	db, err := database.Open(ctx, dsn)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	if cfg.DBMigrate {
		if err := database.Migrate(dsn, log); err != nil {
			log.WithError(err).Fatal("database migration failed")
		}
	}

	users := repository.NewUserRepo(db)
	games := repository.NewGameRepo(db)
	purchases := repository.NewPurchaseRepo(db)

	if err := service.EnsureAdmin(ctx, users, cfg.BcryptCost, log); err != nil {
		log.WithError(err).Fatal("admin bootstrap failed")
	}

	// Redis is optional: without it every catalog read hits MySQL.
	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		log.WithError(err).Warn("redis unavailable, response cache disabled")
	} else {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, log)

	var events service.EventPublisher
	if ev := config.LoadEventsConfig(); ev.Enabled {
		pub := queue.NewPublisher(ev.URL, ev.Buffer, log)
		go pub.Run(ctx)
		go queue.NewAuditConsumer(ev.URL, ev.AuditLog, log).Run(ctx)
		events = pub
	}

	files := media.NewStore(cfg.UploadRoot)
	identity := service.NewIdentityService(users, service.IdentityConfig{
		Secret:     cfg.JWTSecret,
		BcryptCost: cfg.BcryptCost,
		SessionTTL: cfg.SessionTTL,
		LongTTL:    cfg.LongTTL,
	}, log)
	catalog := service.NewCatalogService(games, purchases, files, cache, log)
	ledger := service.NewPurchaseLedger(games, purchases, events, log)

	e := router.New(router.Deps{
		Auth:               handler.NewAuthHandler(identity, log),
		Games:              handler.NewGameHandler(catalog, log),
		Purchases:          handler.NewPurchaseHandler(ledger, cfg.TrustLegacyHeaders, log),
		Upload:             handler.NewUploadHandler(files, log),
		Authenticator:      identity,
		Cache:              cache,
		Log:                log,
		TrustLegacyHeaders: cfg.TrustLegacyHeaders,
		UploadRoot:         cfg.UploadRoot,
		PublicDir:          cfg.PublicDir,
	})
	if cfg.TrustLegacyHeaders {
		log.Warn("trusting user_id and is_admin request headers")
	}

	addr := ":" + cfg.Port
	go func() {
		log.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
