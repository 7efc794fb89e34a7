package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/inverlab/finagent/extract"
	"github.com/inverlab/finagent/server"
)

// preloadDocuments are indexed at startup so a fresh install answers basic
// macro questions before any ingestion has happened.
var preloadDocuments = []struct {
	content string
	source  string
}{
	{"Relatório Focus projeta inflação de 3.9% para 2024.", "Focus"},
	{"Ata do COPOM registra manutenção da taxa Selic em 13.75%.", "COPOM"},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		a, err := buildApp(cfg, logger)
		if err != nil {
			return err
		}

		preload(cmd.Context(), a)

		srv := server.New(a.runner, func(o *server.Options) {
			o.APIKey = cfg.Server.APIKey
			o.HealthCheck = a.health
			o.Logger = logger
		})

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			logger.Info("server.shutdown", "signal", sig.String())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(ctx)
	},
}

// preload seeds the document index with the canned macro snippets and, when
// configured, every readable document under the preload directory. Failures
// are logged and skipped so a missing key or unreadable file cannot block
// startup.
func preload(ctx context.Context, a *app) {
	for _, doc := range preloadDocuments {
		if err := a.store.Ingest(ctx, doc.content, doc.source); err != nil {
			a.logger.Error("preload.failed", "source", doc.source, "error", err)
			return
		}
	}
	a.logger.Info("preload.done", "documents", len(preloadDocuments))

	dir := a.cfg.Retrieval.PreloadDir
	if dir == "" {
		return
	}
	extractor := extract.NewExtractor()
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		text, err := extractor.Extract(path)
		if err != nil {
			a.logger.Warn("preload.extract_failed", "path", path, "error", err)
			return nil
		}
		if strings.TrimSpace(text) == "" {
			return nil
		}
		if err := a.store.Ingest(ctx, text, filepath.Base(path)); err != nil {
			a.logger.Warn("preload.ingest_failed", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		a.logger.Warn("preload.walk_failed", "dir", dir, "error", err)
	}
}
