package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload" // load .env before config
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/ticket-escrow/internal/clock"
	"github.com/iliyamo/ticket-escrow/internal/config"
	"github.com/iliyamo/ticket-escrow/internal/handler"
	"github.com/iliyamo/ticket-escrow/internal/logger"
	"github.com/iliyamo/ticket-escrow/internal/middleware"
	"github.com/iliyamo/ticket-escrow/internal/queue"
	"github.com/iliyamo/ticket-escrow/internal/registry"
	"github.com/iliyamo/ticket-escrow/internal/router"
	"github.com/iliyamo/ticket-escrow/internal/ticketing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log, flush, err := logger.Init(cfg.Env, cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer flush()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		flush()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.NewSystem()
	st, err := openStorage(ctx, cfg, clk)
	if err != nil {
		return err
	}
	defer st.close()
	log.Info("storage ready", zap.String("driver", cfg.StorageDriver))

	policy, err := ticketing.ParseCancelPolicy(cfg.CancelPolicy)
	if err != nil {
		return err
	}
	opts := []ticketing.Option{ticketing.WithLogger(log), ticketing.WithCancelPolicy(policy)}

	if cfg.AMQP.Enabled {
		pub, err := queue.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, log)
		if err != nil {
			return err
		}
		defer func() { _ = pub.Close() }()
		opts = append(opts, ticketing.WithNotifier(pub))

		if cfg.AMQP.Consume {
			consumer := &queue.Consumer{URL: cfg.AMQP.URL, Queue: cfg.AMQP.Queue, LogDir: cfg.AMQP.ActivityLogDir, Log: log}
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("activity consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	engine := ticketing.NewEngine(st.ticketing, clk, opts...)
	reg := registry.NewService(st.registry)

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		st.pingers = append(st.pingers, redisPinger{rdb})
	} else if cfg.Redis.Enabled {
		log.Warn("redis unreachable, rate limiting and caching disabled", zap.String("addr", cfg.Redis.Addr))
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(requestLogger(log))

	guards := router.Guards{
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(cfg.RateLimit, rdb, log),
		Cache:     middleware.NewRedisCache(cfg.Cache, rdb),
	}
	router.RegisterRoutes(e, handler.Health(st.pingers...))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, st.users, st.tokens), guards)
	router.RegisterEvents(e, handler.NewEventHandler(engine, reg, cfg.RequestTimeout), guards)
	router.RegisterPublic(e, handler.NewRegistryHandler(reg, cfg.RequestTimeout), guards)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Duration("grace", cfg.ShutdownGrace))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				log.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}
