package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/BaamPark/WebLabelMV/internal/api"
	"github.com/BaamPark/WebLabelMV/internal/auth"
	"github.com/BaamPark/WebLabelMV/internal/config"
	"github.com/BaamPark/WebLabelMV/internal/database"
	"github.com/BaamPark/WebLabelMV/internal/frames"
	"github.com/BaamPark/WebLabelMV/internal/logger"
	"github.com/BaamPark/WebLabelMV/internal/metrics"
	"github.com/BaamPark/WebLabelMV/internal/mongostore"
	"github.com/BaamPark/WebLabelMV/internal/storage"
	"github.com/BaamPark/WebLabelMV/internal/tracing"
	"github.com/BaamPark/WebLabelMV/internal/video"
	"go.uber.org/zap"
)

type stores struct {
	users       api.UserStore
	projects    api.ProjectStore
	annotations api.AnnotationStore
	close       func(context.Context) error
}

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.JaegerEndpoint != "" {
		tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
		if err != nil {
			log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	st, err := openStores(ctx, cfg, log)
	fatalOnErr(err, "open store")

	localStorage, err := storage.NewLocalStorage(cfg.VideoRoot)
	fatalOnErr(err, "init video storage")

	ff := video.NewFFmpeg(video.Config{
		FFmpegPath:    cfg.FFmpegPath,
		FFprobePath:   cfg.FFprobePath,
		JPEGQuality:   cfg.JPEGQuality,
		DecodeTimeout: cfg.DecodeTimeout,
	}, log.With(zap.String("component", "ffmpeg")))
	if err := ff.CheckTools(); err != nil {
		log.Warn("ffmpeg tools not found, frame requests will fail", zap.Error(err))
	}

	app := &api.App{
		Users:       st.users,
		Projects:    st.projects,
		Annotations: st.annotations,
		Storage:     localStorage,
		Frames:      frames.NewService(localStorage, ff, ff, log.With(zap.String("component", "frames"))),
		Tokens:      auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Logger:      log,
		CORSOrigin:  cfg.CORSOrigin,
	}

	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: api.NewRouter(app),
	}

	go func() {
		log.Info("server starting",
			zap.Int("port", cfg.Port),
			zap.String("db_type", cfg.DBType),
			zap.String("video_root", cfg.VideoRoot),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	metricsSrv.Shutdown(shutdownCtx)
	if err := st.close(shutdownCtx); err != nil {
		log.Error("store close", zap.Error(err))
	}
	cancel()
	log.Info("server stopped")
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	if cfg.DBType == "mongo" {
		ms, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, log.With(zap.String("component", "mongo")))
		if err != nil {
			return nil, err
		}
		return &stores{users: ms, projects: ms, annotations: ms, close: ms.Close}, nil
	}

	db, err := database.NewDB(database.Config{
		Type:       cfg.DBType,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		Name:       cfg.DBName,
		SQLitePath: cfg.DBPath,
	})
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(cfg.MigrationsPath, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &stores{
		users:       database.NewUserRepository(db),
		projects:    database.NewProjectRepository(db),
		annotations: database.NewAnnotationRepository(db),
		close:       func(context.Context) error { return db.Close() },
	}, nil
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}
