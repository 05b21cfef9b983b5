package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"worker-analysis/config"
	"worker-analysis/constant"
	"worker-analysis/handler"
	"worker-analysis/pkg/rabbitmq"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	deps, err := buildDependencies(ctx, cfg)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to build dependencies")
	}

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
	} else {
		startConsumer(ctx, cfg, deps, conn)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(ctx))
	addHealth(r)
	addMetrics(r)
	handler.NewHTTPHandler(deps.pipeline, deps.records, deps.reports, deps.prompts, cfg.Server.MaxUploadSize).Register(r)

	srv := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func startConsumer(ctx context.Context, cfg *config.Config, deps *dependencies, conn *amqp.Connection) {
	publisher, err := rabbitmq.NewPublisher(conn, cfg.Queue, rabbitmq.AnalysisQueue.Exchange)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to create result publisher")
		return
	}

	serviceDeps := handler.ServiceDependencies{
		Analyzer:  deps.pipeline,
		Storage:   deps.storage,
		Publisher: publisher,
	}

	analysisConsumer := rabbitmq.NewConsumer[handler.ServiceDependencies](conn, cfg.Queue, rabbitmq.AnalysisQueue, cfg.Server.Workers, handler.AnalysisHandler)
	go func() {
		defer publisher.Close()
		err := analysisConsumer.Consume(ctx, serviceDeps)
		if err != nil && !errors.Is(err, context.Canceled) {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Analysis consumer error")
		}
	}()
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func addMetrics(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// requestLogger puts the root logger on every request context and logs
// each request once it is served.
func requestLogger(ctx context.Context) gin.HandlerFunc {
	logger := zerolog.Ctx(ctx)
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request served")
	}
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
