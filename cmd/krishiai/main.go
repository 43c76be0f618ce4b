package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container
	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/krishiai/internal/adapter/driven/gemini"
	"github.com/ericfisherdev/krishiai/internal/adapter/driven/market"
	"github.com/ericfisherdev/krishiai/internal/adapter/driven/objectstore"
	sqliteadapter "github.com/ericfisherdev/krishiai/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/krishiai/internal/adapter/driven/weather"
	httphandler "github.com/ericfisherdev/krishiai/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/krishiai/internal/adapter/driving/web"
	"github.com/ericfisherdev/krishiai/internal/application"
	"github.com/ericfisherdev/krishiai/internal/config"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.SecretKey == nil {
		return errors.New("KRISHIAI_SECRET_KEY is required: generate one with `openssl rand -hex 32`")
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"gemini_model", cfg.GeminiModel,
		"market_live", cfg.HasMarketAPI(),
		"tracked_commodities", cfg.TrackedCommodities,
	)

	sessionKey, err := cfg.DeriveKey(config.PurposeSessions)
	if err != nil {
		return err
	}
	credentialKey, err := cfg.DeriveKey(config.PurposeCredentials)
	if err != nil {
		return err
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		return err
	}
	slog.Info("migrations complete", "schema_version", version)

	// 5. Wire driven adapters.
	userStore := sqliteadapter.NewUserRepo(db)
	diagnosisStore := sqliteadapter.NewDiagnosisRepo(db)
	chatStore := sqliteadapter.NewChatRepo(db)
	guideStore := sqliteadapter.NewCropGuideRepo(db)
	priceStore := sqliteadapter.NewMarketPriceRepo(db)
	credentialStore := sqliteadapter.NewCredentialRepo(db, credentialKey)

	keys := application.NewKeySource(credentialStore, cfg.GeminiAPIKey, cfg.GeminiAPIKeys, slog.Default())
	if resolved, err := keys.AIKeys(ctx); err == nil {
		slog.Info("gemini keys resolved", "count", len(resolved))
	}
	ai := gemini.NewClient(keys, cfg.GeminiModel, slog.Default())
	weatherClient := weather.NewClient(cfg.WeatherURL)

	// Leave the interfaces nil rather than holding a typed nil pointer.
	var marketClient driven.MarketClient
	if cfg.HasMarketAPI() {
		marketClient = market.NewClient(cfg.MarketURL, cfg.MarketAPIKey, slog.Default())
	} else {
		slog.Info("no market api key configured, prices are served from stored snapshots")
	}

	images, err := openImageStore(ctx, cfg)
	if err != nil {
		return err
	}

	// 6. Application services.
	sessions, err := application.NewSessionIssuer(sessionKey, cfg.SessionTTL)
	if err != nil {
		return err
	}
	authSvc := application.NewAuthService(userStore)
	diagnosisSvc := application.NewDiagnosisService(ai, diagnosisStore, images, slog.Default())
	guideSvc := application.NewCropGuideService(ai, guideStore, slog.Default())
	marketSvc := application.NewMarketService(marketClient, priceStore, nil, slog.Default())
	healthSvc := application.NewHealthService(db.Reader, keys, marketClient != nil, images != nil)

	// 7. HTTP handlers: JSON API and web shell share one mux.
	apiHandler := httphandler.NewHandler(httphandler.Services{
		Auth:      authSvc,
		Sessions:  sessions,
		Diagnoses: diagnosisSvc,
		Chat:      application.NewChatService(ai, diagnosisStore, chatStore),
		Crops:     application.NewCropService(ai),
		Guides:    guideSvc,
		Market:    marketSvc,
		Weather:   application.NewWeatherService(weatherClient),
		Health:    healthSvc,
	}, cfg.SecureCookies, slog.Default())

	mux := http.NewServeMux()
	httphandler.RegisterRoutes(mux, apiHandler)
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(
		apiHandler, authSvc, sessions, diagnosisSvc, guideSvc, cfg.SecureCookies, slog.Default(),
	))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.ApplyMiddleware(mux, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 8. Run the server and background refresher until a signal arrives.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	if marketClient != nil {
		refresher := application.NewPriceRefreshService(marketSvc, priceStore, cfg.TrackedCommodities, cfg.PriceRefreshInterval, slog.Default())
		g.Go(func() error {
			refresher.Start(gctx)
			return nil
		})
	}

	slog.Info("krishiai started", "listen_addr", cfg.ListenAddr)

	err = g.Wait()
	slog.Info("shutdown complete")
	return err
}

// openImageStore picks the diagnosis photo archive: S3 when a bucket is
// configured, a local directory when KRISHIAI_IMAGE_DIR is set, otherwise none.
func openImageStore(ctx context.Context, cfg *config.Config) (driven.ImageStore, error) {
	switch {
	case cfg.S3Bucket != "":
		store, err := objectstore.NewS3Store(ctx, objectstore.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("archiving diagnosis photos to s3", "bucket", cfg.S3Bucket)
		return store, nil
	case cfg.ImageDir != "":
		store, err := objectstore.NewDiskStore(cfg.ImageDir)
		if err != nil {
			return nil, err
		}
		slog.Info("archiving diagnosis photos to disk", "dir", cfg.ImageDir)
		return store, nil
	}
	slog.Info("no photo archive configured, diagnosis photos are not kept")
	return nil, nil
}
