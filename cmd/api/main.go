// Command api runs the video editor rendering backend.
package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/engine"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/httpapi"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/jobstore"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/media"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/pkg/logger"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/pkg/shutdown"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/storage"
)

func main() {
	log := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Format:      getEnv("LOG_FORMAT", "json"),
		ServiceName: "buttercut-api",
		AddSource:   getEnv("LOG_SOURCE", "false") == "true",
	})

	log.Info("starting buttercut API", "version", "0.1.0")

	httpPort := getEnv("HTTP_PORT", "8080")
	dataDir := getEnv("DATA_DIR", "data")
	uploadDir := getEnv("UPLOAD_DIR", dataDir+"/uploads")
	resultsDir := getEnv("RESULTS_DIR", dataDir+"/results")

	maxConcurrent := getEnvInt(log, "MAX_CONCURRENT_JOBS", 3)
	retentionHours := getEnvInt(log, "JOB_RETENTION_HOURS", 24)
	maxUploadMB := getEnvInt(log, "MAX_UPLOAD_SIZE_MB", 512)
	retention := time.Duration(retentionHours) * time.Hour

	for _, dir := range []string{uploadDir, resultsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.LogFatal("failed to create data directory", err, "dir", dir)
		}
	}

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	store := newStore(ctx, log, shutdownMgr, retention)

	archive, err := storage.NewProvider()
	if err != nil {
		log.LogFatal("failed to initialize archive provider", err)
	}
	if archive != nil {
		log.Info("archive provider initialized", "provider", archive.Provider())
	} else {
		log.Info("archiving disabled")
	}

	eng := engine.New(engine.Deps{
		Store:         store,
		Prober:        media.NewFFprobe(getEnv("FFPROBE_PATH", "ffprobe")),
		Runner:        media.NewRunner(),
		Archive:       archive,
		Log:           log,
		FFmpegPath:    getEnv("FFMPEG_PATH", "ffmpeg"),
		ResultsDir:    resultsDir,
		MaxConcurrent: maxConcurrent,
	})

	// Jobs submitted under this context; canceled when shutdown begins so
	// in-flight renders stop instead of outliving the server.
	jobCtx, cancelJobs := context.WithCancel(ctx)
	shutdownMgr.Register("engine", func(ctx context.Context) error {
		cancelJobs()
		eng.Drain()
		return nil
	})

	sweeper := jobstore.NewSweeper(store, retention, time.Hour, log, uploadDir, resultsDir)
	sweepCtx, cancelSweep := context.WithCancel(ctx)
	go sweeper.Run(sweepCtx)
	shutdownMgr.RegisterSimple("sweeper", cancelSweep)

	router := httpapi.NewRouter(httpapi.Deps{
		Store:          store,
		Engine:         eng,
		Archive:        archive,
		Log:            log,
		BaseCtx:        jobCtx,
		UploadDir:      uploadDir,
		MaxUploadBytes: int64(maxUploadMB) << 20,
	})

	server := &http.Server{
		Addr:         "0.0.0.0:" + httpPort,
		Handler:      router,
		ReadTimeout:  5 * time.Minute, // uploads can be large
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait()
}

// newStore builds the job store backend named by JOB_STORE: memory (default),
// redis, or postgres.
func newStore(ctx context.Context, log *logger.Logger, shutdownMgr *shutdown.Manager, retention time.Duration) jobstore.Store {
	backend := getEnv("JOB_STORE", "memory")

	switch backend {
	case "memory":
		log.Info("using in-memory job store")
		return jobstore.NewMemoryStore()

	case "redis":
		addr := mustEnv(log, "REDIS_ADDR")
		log.Info("connecting to Redis", "addr", addr)
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.LogFatal("failed to ping Redis", err)
		}
		shutdownMgr.Register("redis", func(ctx context.Context) error {
			return rdb.Close()
		})
		return jobstore.NewRedisStore(rdb, retention)

	case "postgres":
		dbURL := mustEnv(log, "DATABASE_URL")
		log.Info("connecting to PostgreSQL")
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			log.LogFatal("failed to connect to PostgreSQL", err)
		}
		if err := pool.Ping(ctx); err != nil {
			log.LogFatal("failed to ping PostgreSQL", err)
		}
		shutdownMgr.Register("postgres", func(ctx context.Context) error {
			pool.Close()
			return nil
		})

		store := jobstore.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			log.LogFatal("failed to ensure jobs schema", err)
		}
		return store

	default:
		log.Error("unknown job store backend", "backend", backend)
		os.Exit(1)
		return nil
	}
}

func getEnv(key, defaultValue string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	return v
}

func getEnvInt(log *logger.Logger, key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn("invalid integer env, using default", "key", key, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return v
}

func mustEnv(log *logger.Logger, key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		log.Error("missing required environment variable", "key", key)
		os.Exit(1)
	}
	return v
}
