package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/ragmesh"
	"github.com/hupe1980/ragmesh/config"
	"github.com/hupe1980/ragmesh/coordinator"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/model"
	anthropicmodel "github.com/hupe1980/ragmesh/model/anthropic"
	openaimodel "github.com/hupe1980/ragmesh/model/openai"
	"github.com/hupe1980/ragmesh/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.LogLevel)
	logCfg.Format = cfg.LogFormat
	if cfg.IsDevelopment() {
		logCfg.Format = "text"
	}
	logger := logging.New(logCfg)

	mesh := ragmesh.New(func(o *ragmesh.Options) {
		o.Logger = logger
		o.Completer = newCompleter(cfg)
		o.Coordinator = func(co *coordinator.Options) {
			co.TopK = cfg.TopK
			co.IngestionTimeout = cfg.IngestionTimeout
			co.RetrievalTimeout = cfg.RetrievalTimeout
			co.GenerationTimeout = cfg.GenerationTimeout
		}
	})

	srv := server.New(mesh.Coordinator(), mesh.Extractors(), func(o *server.Options) {
		o.MaxUploadBytes = cfg.MaxUploadBytes
		o.Logger = logger
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // question workflows can span several stage timeouts
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting ragmesh server", "port", cfg.Port, "env", cfg.Env, "model_provider", cfg.ModelProvider)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func newCompleter(cfg *config.Config) model.Completer {
	switch cfg.ModelProvider {
	case "openai":
		return openaimodel.NewCompleter(func(o *openaimodel.Options) {
			if cfg.ModelName != "" {
				o.Model = cfg.ModelName
			}
		})
	case "anthropic":
		return anthropicmodel.NewCompleter(func(o *anthropicmodel.Options) {
			if cfg.ModelName != "" {
				o.Model = anthropic.Model(cfg.ModelName)
			}
		})
	default:
		return model.NewMockCompleter()
	}
}
