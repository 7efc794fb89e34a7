package main

import (
	"context"
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/inverlab/finagent/agent"
	"github.com/inverlab/finagent/cache"
	"github.com/inverlab/finagent/config"
	"github.com/inverlab/finagent/core"
	"github.com/inverlab/finagent/logging"
	"github.com/inverlab/finagent/model"
	"github.com/inverlab/finagent/model/anthropic"
	"github.com/inverlab/finagent/model/openai"
	"github.com/inverlab/finagent/retrieval"
	"github.com/inverlab/finagent/runner"
	"github.com/inverlab/finagent/session"
	"github.com/inverlab/finagent/tool"
)

// app bundles the wired components shared by the subcommands.
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	sessions core.SessionStore
	store    *retrieval.Store
	registry *tool.Registry
	runner   *runner.Runner
	health   func(ctx context.Context) error
}

func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}

func newLogger(cfg *config.Config) logging.Logger {
	level := cfg.Logging.Level
	if cfg.Debug {
		level = "debug"
	}
	return logging.New(&logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
}

// buildApp wires the full service: stores, embedder, tools, reasoner, loop.
func buildApp(cfg *config.Config, logger logging.Logger) (*app, error) {
	sessions, err := session.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	backend, err := retrieval.NewSQLiteBackend(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open document index: %w", err)
	}

	store, err := buildRetrievalStore(cfg, backend, logger)
	if err != nil {
		return nil, err
	}

	registry, err := buildRegistry(cfg, store, logger)
	if err != nil {
		return nil, err
	}

	reasoner, err := buildReasoner(cfg)
	if err != nil {
		return nil, err
	}

	ag := agent.New(reasoner, registry, func(o *agent.Options) {
		o.MaxModelCalls = cfg.Model.MaxModelCalls
		o.HistoryWindow = cfg.Model.HistoryWindow
		o.Logger = logger
	})
	run := runner.New(ag, sessions, func(o *runner.Options) {
		o.Logger = logger
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		sessions: sessions,
		store:    store,
		registry: registry,
		runner:   run,
		health:   sessions.Ping,
	}, nil
}

// buildRetrievalStore assembles the embedding pipeline over the document
// backend. The embedder is always OpenAI-backed; the reasoner provider does
// not change the embedding space of already-indexed documents.
func buildRetrievalStore(cfg *config.Config, backend retrieval.Backend, logger logging.Logger) (*retrieval.Store, error) {
	var clientOpts []option.RequestOption
	if cfg.Model.Provider == "openai" && cfg.Model.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.Model.APIKey))
	}
	client := openaisdk.NewClient(clientOpts...)
	var embedder model.Embedder = openai.NewEmbedderFromClient(&client, func(o *openai.EmbedderOptions) {
		o.Model = cfg.Embedding.Model
	})
	if cfg.Embedding.CacheSize > 0 {
		cached, err := model.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("embedding cache: %w", err)
		}
		embedder = cached
	}
	return retrieval.NewStore(embedder, backend, func(o *retrieval.StoreOptions) {
		o.ChunkSize = cfg.Retrieval.ChunkSize
		o.ChunkOverlap = cfg.Retrieval.ChunkOverlap
		o.Logger = logger
	}), nil
}

// buildRegistry registers the four capabilities with their dispatch policies.
func buildRegistry(cfg *config.Config, store *retrieval.Store, logger logging.Logger) (*tool.Registry, error) {
	registry := tool.NewRegistry(cache.New(), logger)

	docSearch := tool.NewDocumentSearchTool(store, func(o *tool.DocumentSearchOptions) {
		o.Threshold = cfg.Retrieval.MatchThreshold
		o.TopK = cfg.Retrieval.TopK
	})
	if err := registry.Register(docSearch, withTimeout(cfg)); err != nil {
		return nil, err
	}

	webSearch := tool.NewWebSearchTool(cfg.Tools.TavilyAPIKey, func(o *tool.WebSearchOptions) {
		o.Logger = logger
	})
	if err := registry.Register(webSearch, withTimeout(cfg)); err != nil {
		return nil, err
	}

	macro := tool.NewMacroSeriesTool(func(o *tool.MacroSeriesOptions) {
		o.Logger = logger
	})
	if err := registry.Register(macro, func(o *tool.RegisterOptions) {
		o.Timeout = cfg.Tools.Timeout
		o.CacheTTL = cfg.Tools.MacroCacheTTL
	}); err != nil {
		return nil, err
	}

	stock := tool.NewStockPriceTool(cfg.Tools.AlphaVantageAPIKey, func(o *tool.StockPriceOptions) {
		o.Logger = logger
	})
	if err := registry.Register(stock, withTimeout(cfg)); err != nil {
		return nil, err
	}

	logger.Info("tools.registered", "tools", registry.Names())
	return registry, nil
}

func withTimeout(cfg *config.Config) func(o *tool.RegisterOptions) {
	return func(o *tool.RegisterOptions) {
		o.Timeout = cfg.Tools.Timeout
	}
}

func buildReasoner(cfg *config.Config) (model.Reasoner, error) {
	switch cfg.Model.Provider {
	case "openai", "":
		var clientOpts []option.RequestOption
		if cfg.Model.APIKey != "" {
			clientOpts = append(clientOpts, option.WithAPIKey(cfg.Model.APIKey))
		}
		client := openaisdk.NewClient(clientOpts...)
		return openai.NewReasonerFromClient(&client, func(o *openai.Options) {
			if cfg.Model.Name != "" {
				o.Model = cfg.Model.Name
			}
			o.Temperature = cfg.Model.Temperature
		}), nil
	case "anthropic":
		return anthropic.NewReasoner(func(o *anthropic.Options) {
			if cfg.Model.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Model.Name)
			}
			o.Temperature = cfg.Model.Temperature
			o.APIKey = cfg.Model.APIKey
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}
