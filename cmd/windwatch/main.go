package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/MackenzieBowal/windwatch/internal/adapter/geojson"
	httpadapter "github.com/MackenzieBowal/windwatch/internal/adapter/http"
	"github.com/MackenzieBowal/windwatch/internal/adapter/jsonl"
	kafkaadapter "github.com/MackenzieBowal/windwatch/internal/adapter/kafka"
	"github.com/MackenzieBowal/windwatch/internal/config"
	"github.com/MackenzieBowal/windwatch/internal/mapmodel"
	"github.com/MackenzieBowal/windwatch/internal/observability"
	"github.com/MackenzieBowal/windwatch/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var sinks []pipeline.Sink
	if cfg.OutputPath != "" {
		sinks = append(sinks, geojson.NewFileWriter(cfg.OutputPath, logger))
		logger.Info("geojson output enabled", "path", cfg.OutputPath)
	}
	var writer *kafkaadapter.Writer
	if len(cfg.KafkaBrokers) > 0 {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, writer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	source := jsonl.FileSource{BirdPath: cfg.BirdDataPath, WindPath: cfg.WindDataPath}
	p := pipeline.New(source, mapConfig(cfg), sinks, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.HTTPEnabled {
		_, err := p.Run(ctx)
		closeWriter(writer, logger)
		if err != nil {
			os.Exit(1)
		}
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, metrics, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Build the map. Sink failures are logged by the pipeline and do not stop
	// the API from serving the built model.
	go func() {
		m, err := p.Run(ctx)
		if m == nil {
			logger.Error("map unavailable", "error", err)
			stop()
			return
		}
		srv.SetModel(m)
		logger.Info("map serving", "cells", m.Grid().Len(), "layer", m.Layer())
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	closeWriter(writer, logger)

	logger.Info("shutdown complete")
}

func mapConfig(cfg *config.Config) mapmodel.Config {
	return mapmodel.Config{
		Region:       cfg.Region,
		GridSize:     cfg.GridSize,
		BufferRadius: cfg.BufferRadius,
		MaxCells:     cfg.MaxCells,
		Coefficients: cfg.Coefficients,
		Layer:        cfg.InitialLayer,
	}
}

func closeWriter(w *kafkaadapter.Writer, logger *slog.Logger) {
	if w == nil {
		return
	}
	if err := w.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
}
