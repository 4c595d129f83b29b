package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/babyccino/pipeline-orchestrator/internal/classifier"
	"github.com/babyccino/pipeline-orchestrator/internal/config"
	"github.com/babyccino/pipeline-orchestrator/internal/extractor"
	"github.com/babyccino/pipeline-orchestrator/internal/gateway"
	"github.com/babyccino/pipeline-orchestrator/internal/llm"
	"github.com/babyccino/pipeline-orchestrator/internal/metrics"
	"github.com/babyccino/pipeline-orchestrator/internal/orchestration"
	"github.com/babyccino/pipeline-orchestrator/internal/session"

	_ "github.com/babyccino/pipeline-orchestrator/docs" // swagger docs
)

// @title Pipeline Orchestrator API
// @version 1.0
// @description Conversational requirements pipeline for single-function code generation.
// @description
// @description Chat turns are classified into function intent, the intent is validated
// @description deterministically, and completed specifications flow through test proposal,
// @description user approval, and code generation with verification.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "pipeline-orchestrator",
		Short: "Conversational requirements pipeline for code generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	shutdownTracer, err := initTracer()
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer()

	pm, err := metrics.NewPipelineMetrics()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	ollamaClient := llm.NewOllamaClient(cfg.Ollama.BaseURL, cfg.Ollama.Model, logger)
	codegenClient := orchestration.NewCodegenClient(cfg.Codegen.BaseURL, cfg.GenerateTimeout(), logger)

	cls := classifier.New(ollamaClient, logger)
	ext := extractor.New(logger)
	sessions := session.NewManager()
	pipeline := orchestration.NewService(cls, ext, codegenClient, pm, logger, cfg.ClassifyTimeout(), cfg.GenerateTimeout())

	handler := gateway.NewHandler(pipeline, sessions, ollamaClient, codegenClient, pm, logger)
	stream := gateway.NewSessionStream(sessions, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gateway.RequestLogger(logger))

	// Health checks at the root for the deployment standard.
	router.GET("/health", handler.Health)
	router.GET("/ready", handler.Ready)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	api.POST("/sessions", handler.CreateSession)
	api.GET("/sessions/:id", handler.GetSession)
	api.DELETE("/sessions/:id", handler.DeleteSession)
	api.POST("/sessions/:id/messages", handler.PostMessage)
	api.POST("/sessions/:id/generate", handler.Generate)
	api.POST("/sessions/:id/approve", handler.Approve)
	api.POST("/sessions/:id/cancel", handler.Cancel)
	api.GET("/ws/sessions/:id", stream.Stream)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GenerateTimeout() + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting pipeline orchestrator",
			zap.String("port", cfg.Server.Port),
			zap.String("ollama_url", cfg.Ollama.BaseURL),
			zap.String("model", cfg.Ollama.Model),
			zap.String("codegen_url", cfg.Codegen.BaseURL),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// initTracer initializes OpenTelemetry tracing
func initTracer() (func(), error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}, nil
}
