package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/httpserver"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/live"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/repo"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/search"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/service"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/cache"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/config"
	pkgdb "github.com/primaverasorvetes810-collab/studio-sub000/pkg/db"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/events"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/middleware/csrf"
	loggingmw "github.com/primaverasorvetes810-collab/studio-sub000/pkg/middleware/logging"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/objectstore"
)

const tokenPurgeInterval = time.Hour

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")
	config.MustNonEmptyBytes(cfg.AdminGateSecret, "ADMIN_GATE_SECRET")
	config.MustOneOf([]string{"ADMIN_GATE_PASSWORD_HASH", "ADMIN_GATE_PASSWORD"}, cfg.AdminGatePasswordHash, cfg.AdminGatePassword)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("timezone %q: %v", cfg.Timezone, err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := pkgdb.Open(openCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	r := &repo.GormRepo{DB: db}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		publisher = prod
	}
	defer publisher.Close()

	hub := live.NewHub()
	var notifier service.Notifier = hub
	var readCache cache.Cache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rc.Close()
		readCache = rc

		bridge := &live.RedisBridge{Client: rc.Client, Hub: hub}
		notifier = bridge
		go func() {
			if err := bridge.Run(ctx); err != nil {
				logger.Error("live_bridge_stopped", "error", err)
			}
		}()
	}

	var index service.ProductIndex
	if cfg.ESURL != "" {
		es, err := search.NewElastic(ctx, search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			logger.Warn("elasticsearch_unavailable", "reason", "searching the database instead", "error", err)
		} else {
			index = es
		}
	}

	var store objectstore.Store
	if cfg.MinioEndpoint != "" {
		m, err := objectstore.NewMinio(ctx, objectstore.MinioConfig{
			Endpoint:       cfg.MinioEndpoint,
			AccessKey:      cfg.MinioAccessKey,
			SecretKey:      cfg.MinioSecretKey,
			Bucket:         cfg.MinioBucket,
			PublicURL:      cfg.MinioPublicURL,
			UseSSL:         cfg.MinioUseSSL,
			PublicPrefixes: []string{objectstore.PrefixCarousel, objectstore.PrefixProducts},
		})
		if err != nil {
			log.Fatalf("minio: %v", err)
		}
		store = m
	}

	gate, err := service.NewAdminGate(cfg.AdminGatePasswordHash, cfg.AdminGatePassword, cfg.AdminGateSecret, cfg.AdminGateTTL)
	if err != nil {
		log.Fatalf("admin gate: %v", err)
	}

	authSvc := &service.AuthService{Repo: r, JWTSecret: cfg.JWTAccessSecret, RefreshSecret: cfg.JWTRefreshSecret}
	orderSvc := &service.OrderService{Repo: r, Events: publisher, Notifier: notifier}
	catalogSvc := &service.CatalogService{
		Repo: r, Cache: readCache, CacheTTL: cfg.CacheTTL, Events: publisher, Index: index, Store: store,
	}
	if index != nil {
		go func() {
			if err := catalogSvc.Reindex(ctx); err != nil {
				logger.Error("index_rebuild_failed", "error", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Secure())
	if len(cfg.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowCredentials: true,
			AllowHeaders:     []string{echo.HeaderContentType, "X-CSRF-Token"},
			ExposeHeaders:    []string{"X-CSRF-Token"},
		}))
	} else {
		e.Use(echomw.CORS())
	}
	if cfg.CSRFEnabled {
		e.Use(csrf.Middleware(csrf.Config{
			Secure:            cfg.CookieSecure,
			TrustedOrigins:    cfg.CORSOrigins,
			EnforceSameOrigin: true,
			SkipPaths:         []string{"/health/live", "/health/ready"},
		}))
	}
	e.Use(echomw.BodyLimit("10M"))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc, Secure: cfg.CookieSecure},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalogSvc},
		CartHandler:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: r, Events: publisher}},
		OrderHandler:   &httpserver.OrderHTTP{Svc: orderSvc, Hub: hub},
		AdminHandler: &httpserver.AdminHTTP{
			Auth:       authSvc,
			Gate:       gate,
			Orders:     orderSvc,
			BackOffice: &service.BackOffice{Repo: r, Loc: loc},
			Hub:        hub,
			Secure:     cfg.CookieSecure,
		},
		CarouselHandler: &httpserver.CarouselHTTP{Svc: &service.CarouselService{
			Repo: r, Cache: readCache, CacheTTL: cfg.CacheTTL, Events: publisher, Store: store,
		}},
		JWTSecret:    cfg.JWTAccessSecret,
		CookieSecure: cfg.CookieSecure,
		Ready:        r.Ping,
	})

	go purgeTokens(ctx, authSvc)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("%s listening on %s", cfg.ServiceName, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	if err := pkgdb.Close(db); err != nil {
		log.Printf("db close error: %v", err)
	}

	log.Println("shutdown complete")
}

// purgeTokens deletes expired refresh tokens until ctx is done.
func purgeTokens(ctx context.Context, auth *service.AuthService) {
	l := logging.FromContext(ctx).With("component", "token_janitor")
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := auth.PurgeTokens(ctx)
			if err != nil {
				l.Error("token_purge_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("tokens_purged", "count", n)
			}
		}
	}
}
