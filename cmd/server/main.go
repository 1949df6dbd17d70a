package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/corepadel/internal/auth"
	"github.com/mmynk/corepadel/internal/config"
	"github.com/mmynk/corepadel/internal/events"
	"github.com/mmynk/corepadel/internal/metrics"
	"github.com/mmynk/corepadel/internal/middleware"
	"github.com/mmynk/corepadel/internal/reservation"
	"github.com/mmynk/corepadel/internal/service"
	"github.com/mmynk/corepadel/internal/storage"
	"github.com/mmynk/corepadel/internal/storage/postgres"
	"github.com/mmynk/corepadel/internal/storage/sqlite"
	"github.com/mmynk/corepadel/pkg/logging"
)

// apiPrefix marks Connect procedure paths; everything else is static.
const apiPrefix = "/corepadel.v1."

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.SetupWith(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Storage initialized", "driver", cfg.DBDriver)

	revoker, err := openRevoker(ctx, cfg)
	if err != nil {
		return err
	}

	publisher, err := openPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	m := metrics.New()
	writer := reservation.NewWriter(store,
		reservation.WithPublisher(publisher),
		reservation.WithMetrics(m),
		reservation.WithLogger(logger),
		reservation.WithLocation(loc),
		reservation.WithOrigin(cfg.PublicOrigin),
		reservation.WithWindow(cfg.BookingWindowDays),
	)

	sessions := auth.NewSessions(auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL), revoker)
	svcs := service.NewServices(service.Deps{
		Store:         store,
		Writer:        writer,
		Authenticator: auth.NewPasswordAuthenticator(store),
		Sessions:      sessions,
		Logger:        logger,
	})

	mux := http.NewServeMux()
	svcs.Register(mux, connect.WithInterceptors(
		middleware.OptionalAuth(sessions),
		m.Interceptor(),
		middleware.LoggingInterceptor(logger),
	))
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	staticDir, err := filepath.Abs(cfg.StaticPath)
	if err != nil {
		return fmt.Errorf("resolve static path: %w", err)
	}
	logger.Info("Serving static files", "path", staticDir)
	mux.Handle("/", staticHandler(staticDir))

	go reservation.NewCompleter(writer).Run(ctx, cfg.CompletionInterval)

	// h2c serves HTTP/2 without TLS, which Connect clients expect.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(corsMiddleware(mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.DBDriver == config.DriverPostgres {
		s, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openRevoker(ctx context.Context, cfg config.Config) (auth.Revoker, error) {
	if cfg.RedisAddr == "" {
		return auth.NewMemoryRevoker(), nil
	}
	client, err := auth.NewRedisClient(ctx, auth.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
	})
	if err != nil {
		return nil, err
	}
	return auth.NewRedisRevoker(client), nil
}

func openPublisher(cfg config.Config, logger *slog.Logger) (events.Publisher, error) {
	if cfg.RabbitURL == "" {
		return events.NewLogPublisher(logger), nil
	}
	p, err := events.NewAMQPPublisher(cfg.RabbitURL, cfg.BookingExchange)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// staticHandler serves the web client. Unknown paths, including the
// /booking/<token> share links, fall back to index.html.
func staticHandler(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, apiPrefix) {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}
		filePath := filepath.Join(dir, filepath.Clean(urlPath))
		if info, err := os.Stat(filePath); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		http.ServeFile(w, r, filePath)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
