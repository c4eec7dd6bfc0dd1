package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/star/orrery/internal/api"
	"github.com/star/orrery/internal/cache"
	"github.com/star/orrery/internal/config"
	"github.com/star/orrery/internal/control"
	"github.com/star/orrery/internal/propagation"
	"github.com/star/orrery/internal/session"
	"github.com/star/orrery/internal/stream"
	"github.com/star/orrery/web"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	level.Set(cfg.LogLevel)

	provider := propagation.NewKeplerProvider()
	sess := session.New(cfg.Session, provider, logger.With("component", "session"))

	prop := propagation.NewPropagator(provider, cfg.Prop, logger.With("component", "propagation"))
	kfCache := cache.NewKeyframeCache(cfg.Cache, prop, sess, logger.With("component", "cache"))

	streamHandler := stream.NewHandler(kfCache, sess, cfg.Stream, logger.With("component", "stream"))
	controlHandler := control.NewHandler(sess, cfg.Control, logger.With("component", "control"))

	srv := api.NewServer(api.Config{
		Addr:        cfg.HTTP.Addr,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		TrustProxy:  cfg.HTTP.TrustProxy,
		Auth:        cfg.Auth,
		RateLimit:   cfg.RateLimit,
		Scale:       cfg.Session.Scale,
	}, api.Deps{
		Provider: provider,
		Session:  sess,
		Cache:    kfCache,
		Stream:   streamHandler,
		Control:  controlHandler,
		Web:      web.Content,
	}, logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sess.Run(ctx)
	go kfCache.Start(ctx)

	// Forget idle rate limit buckets.
	if lim := srv.Limiter(); lim != nil {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if n := lim.Cleanup(); n > 0 {
						logger.Debug("rate limiter cleanup", "removed", n, "tracked", lim.Len())
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		st := sess.Snapshot()
		logger.Info("starting server",
			"addr", cfg.HTTP.Addr,
			"auth_enabled", cfg.Auth.Enabled,
			"start_jd", float64(st.JD),
			"playing", st.Playing,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
