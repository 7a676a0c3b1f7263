package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/courseforge/courseforge/analyzer"
	"github.com/courseforge/courseforge/builder"
	"github.com/courseforge/courseforge/cache"
	"github.com/courseforge/courseforge/config"
	"github.com/courseforge/courseforge/generator"
	"github.com/courseforge/courseforge/llm"
	llmanthropic "github.com/courseforge/courseforge/llm/anthropic"
	llmollama "github.com/courseforge/courseforge/llm/ollama"
	llmopenai "github.com/courseforge/courseforge/llm/openai"
	cflogger "github.com/courseforge/courseforge/logger"
	"github.com/courseforge/courseforge/migrations"
	"github.com/courseforge/courseforge/pipeline"
	"github.com/courseforge/courseforge/search"
)

const defaultMigrationsPath = "migrations"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath     = flag.String("config", "", "Path to YAML config file")
		dbPath         = flag.String("db", "", "Path to SQLite cache database (overrides config)")
		migrationsPath = flag.String("migrations", defaultMigrationsPath, "Path to database migrations directory")
		logFile        = flag.String("logfile", "", "Path to log file. If not set, logs to stderr")
		pretty         = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is not set)")
		noCache        = flag.Bool("no-cache", false, "Skip the course cache entirely")
	)
	flag.Parse()

	if *logFile != "" && *pretty {
		return fmt.Errorf("--logfile and --pretty are mutually exclusive")
	}

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		return fmt.Errorf("usage: courseforge [flags] <topic query>")
	}

	// Best effort: local development credentials.
	_ = godotenv.Load()

	logger, err := cflogger.InitWithOptions(*logFile, *pretty)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *dbPath != "" {
		cfg.Cache.Path = *dbPath
	}

	logger.Info().
		Str("db", cfg.Cache.Path).
		Str("query", query).
		Msg("courseforge starting")

	gateway, err := buildGateway(cfg, logger)
	if err != nil {
		return err
	}

	retriever := buildRetriever(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *cache.Store
	var scheduler *cron.Cron
	if !*noCache {
		db, err := sql.Open("sqlite3", cfg.Cache.Path)
		if err != nil {
			return fmt.Errorf("failed to open cache database: %w", err)
		}
		defer db.Close()

		if err := migrations.RunMigrations(db, *migrationsPath, logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		store = cache.NewStore(db, cfg.Cache.TTL(), logger)
		if _, err := store.PurgeExpired(ctx); err != nil {
			logger.Warn().Err(err).Msg("Startup cache purge failed")
		}

		scheduler = cron.New()
		if _, err := scheduler.AddFunc(cfg.Cache.PurgeSchedule, func() {
			if _, err := store.PurgeExpired(context.Background()); err != nil {
				logger.Warn().Err(err).Msg("Scheduled cache purge failed")
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule cache purge: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	orch := pipeline.New(
		analyzer.New(gateway, retriever, logger),
		builder.New(gateway, logger),
		generator.New(gateway, logger),
		cacheOrNil(store),
		logger,
	)

	result := orch.GenerateCourse(ctx, query, func(p pipeline.Progress) {
		if p.CurrentModule != "" {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s (%s)\n", p.Percent, p.Message, p.CurrentModule)
			return
		}
		fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", p.Percent, p.Message)
	})

	usage := gateway.Usage()
	logger.Info().
		Int64("requests", usage.RequestsToday).
		Int64("tokens", usage.TokensToday).
		Int64("errors", usage.ErrorsToday).
		Msg("Gateway usage for this run")

	if result.Err != nil {
		return result.Err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result.Course); err != nil {
		return fmt.Errorf("failed to encode course: %w", err)
	}

	logger.Info().
		Bool("cached", result.Cached).
		Dur("elapsed", result.GenerationTime).
		Msg("Course written to stdout")
	return nil
}

// buildGateway wires the configured providers into the gateway's
// priority-ordered fallback list. Providers with missing credentials are
// skipped so a single API key is enough to run.
func buildGateway(cfg *config.Config, logger zerolog.Logger) (*llm.Gateway, error) {
	var providers []llm.ProviderModels
	for _, pref := range cfg.Gateway.Preferences {
		switch pref.Provider {
		case "anthropic":
			if cfg.Providers.Anthropic.APIKey == "" {
				logger.Debug().Str("provider", pref.Provider).Msg("Skipping provider without credentials")
				continue
			}
			client, err := llmanthropic.NewClient(cfg.Providers.Anthropic.APIKey, logger)
			if err != nil {
				return nil, fmt.Errorf("failed to create anthropic client: %w", err)
			}
			providers = append(providers, llm.ProviderModels{Provider: client, Models: pref.Models})
		case "openai":
			if cfg.Providers.OpenAI.APIKey == "" {
				logger.Debug().Str("provider", pref.Provider).Msg("Skipping provider without credentials")
				continue
			}
			client, err := llmopenai.NewClient(cfg.Providers.OpenAI.APIKey, cfg.Providers.OpenAI.BaseURL, cfg.Providers.OpenAI.Organization)
			if err != nil {
				return nil, fmt.Errorf("failed to create openai client: %w", err)
			}
			providers = append(providers, llm.ProviderModels{Provider: client, Models: pref.Models})
		case "ollama":
			client, err := llmollama.NewClient(cfg.Providers.Ollama.Host)
			if err != nil {
				logger.Warn().Err(err).Msg("Skipping unreachable ollama host")
				continue
			}
			providers = append(providers, llm.ProviderModels{Provider: client, Models: pref.Models})
		default:
			return nil, fmt.Errorf("unknown provider %q in gateway preferences", pref.Provider)
		}
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no usable providers configured; set ANTHROPIC_API_KEY, OPENAI_API_KEY, or OLLAMA_HOST")
	}

	return llm.NewGateway(providers, llm.GatewayOptions{
		ThrottleInterval: cfg.Gateway.ThrottleInterval(),
		BaseDelay:        cfg.Gateway.BaseDelay(),
	}, logger), nil
}

// buildRetriever wires the configured search backends. Unconfigured backends
// are left nil; the retriever tolerates missing backends.
func buildRetriever(cfg *config.Config, logger zerolog.Logger) *search.Retriever {
	var primary search.BundleBackend
	if cfg.Search.Knowledge.Endpoint != "" {
		primary = search.NewKnowledgeAPI(cfg.Search.Knowledge.Endpoint, cfg.Search.Knowledge.APIKey, logger)
	}

	encyclopedia := search.NewWikipedia(cfg.Search.WikipediaEndpoint, logger)

	var web search.Backend
	if cfg.Search.Web.Endpoint != "" {
		web = search.NewWebSearch(cfg.Search.Web.Endpoint, cfg.Search.Web.APIKey, logger)
	}

	return search.NewRetriever(primary, encyclopedia, web, cfg.Search.ResultLimit, logger)
}

// cacheOrNil keeps a disabled cache as an untyped nil so the orchestrator's
// nil check works.
func cacheOrNil(store *cache.Store) pipeline.CourseCache {
	if store == nil {
		return nil
	}
	return store
}
