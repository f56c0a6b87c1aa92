// Package main provides the CLI entry point for the tutor runtime server.
//
// Start the server:
//
//	tutor-server serve --config tutor.yaml
//
// # Environment Variables
//
//   - TUTOR_DEBUG: enable debug mode (verbose logging, relaxed CORS)
//   - ANTHROPIC_API_KEY / OPENAI_API_KEY: LLM provider credentials
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/noble-ngs/tutor-runtime/internal/agents"
	"github.com/noble-ngs/tutor-runtime/internal/config"
	"github.com/noble-ngs/tutor-runtime/internal/curriculum"
	"github.com/noble-ngs/tutor-runtime/internal/generative"
	"github.com/noble-ngs/tutor-runtime/internal/httpapi"
	"github.com/noble-ngs/tutor-runtime/internal/llmprovider"
	"github.com/noble-ngs/tutor-runtime/internal/orchestrator"
	"github.com/noble-ngs/tutor-runtime/internal/ratelimit"
	"github.com/noble-ngs/tutor-runtime/internal/sandbox"
	"github.com/noble-ngs/tutor-runtime/internal/sessionmemory"
	"github.com/noble-ngs/tutor-runtime/internal/supervisor"
	"github.com/noble-ngs/tutor-runtime/internal/turnrunner"
	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tutor-server",
		Short: "Serve the math tutoring agent runtime",
	}
	root.AddCommand(buildServeCmd())
	root.AddCommand(buildVersionCmd())
	return root
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("tutor-server %s (commit %s, built %s)\n", version, commit, date)
			return nil
		},
	}
}

func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tutor runtime HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tutor.yaml", "path to YAML configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging and relaxed CORS")

	return cmd
}

func runServe(ctx context.Context, configPath string, debugFlag bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("tutor-server: load config: %w", err)
	}
	if debugFlag {
		cfg.Debug = true
	}
	if cfg.Debug {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	logger := slog.Default()

	logger.Info("starting tutor-server", "version", version, "commit", commit, "config", configPath, "debug", cfg.Debug)

	runtime, err := buildRuntime(cfg, logger)
	if err != nil {
		return fmt.Errorf("tutor-server: build runtime: %w", err)
	}
	defer runtime.sweeper.Stop()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := httpapi.NewHTTPServer(addr, runtime.api)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, draining in-flight requests")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("tutor-server: http server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown error", "error", err)
	}

	logger.Info("tutor-server stopped gracefully")
	return nil
}

// runtimeComponents bundles everything built from config so main can
// shut it down in reverse order of construction.
type runtimeComponents struct {
	api     *httpapi.Server
	sweeper *sessionmemory.Sweeper
}

// buildRuntime wires the full component graph: LLM provider, curriculum
// catalog, generative engine, orchestrator, agents registry, supervisor,
// session memory, rate limiter, and the turn runner, following the
// teacher's pattern of assembling long-lived singletons once at startup
// and handing them to the HTTP layer.
func buildRuntime(cfg config.Config, logger *slog.Logger) (*runtimeComponents, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	catalog, err := curriculum.LoadCatalog(cfg.Patterns.CatalogDir)
	if err != nil {
		return nil, fmt.Errorf("load curriculum catalog: %w", err)
	}
	patternEngine := curriculum.NewEngine(catalog, time.Now().UnixNano())
	genEngine := generative.NewEngine(provider, patternEngine, logger)

	preferences, err := orchestrator.LoadPreferenceTable(cfg.Patterns.PreferencesFile)
	if err != nil {
		logger.Warn("no preference table loaded, falling back to ratio-only selection", "error", err)
		preferences = nil
	}
	orch := orchestrator.New(patternEngine, genEngine, preferences, cfg.AIRatio, time.Now().UnixNano())

	tools := agents.Tools{
		Questions: &orchestratorQuestionAdapter{orch: orch},
		Catalog:   patternEngine,
		Provider:  provider,
	}

	sup := supervisor.New(provider)

	summarizer := &sessionmemory.LLMSummarizer{Provider: provider}
	memory := sessionmemory.New(summarizer, nil, logger)
	memory.SetIdleTimeout(cfg.Session.IdleTimeout)
	sweeper := sessionmemory.NewSweeper(memory, logger)
	if err := sweeper.Start(); err != nil {
		return nil, fmt.Errorf("start session sweeper: %w", err)
	}

	runner := turnrunner.New(sup, provider, tools, memory, logger, cfg.Session.PerSessionLockWait, cfg.Session.TurnDeadline)

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		MaxRequests:   cfg.RateLimitMaxRequests,
		WindowSeconds: cfg.RateLimitWindowSeconds,
		Enabled:       true,
	})

	health := httpapi.Health{
		LLM: func(ctx context.Context) bool { return provider != nil },
		Sandbox: func(ctx context.Context) bool {
			_, err := sandbox.Eval(ctx, "1+1", nil, cfg.Sandbox.EvalTimeout)
			return err == nil
		},
		Patterns: func(ctx context.Context) bool { return catalog != nil },
	}

	api := httpapi.New(runner, orch, limiter, cfg.Debug, cfg.CORSOrigins, health, logger)

	return &runtimeComponents{api: api, sweeper: sweeper}, nil
}

// buildProvider constructs the one LLM backend named by
// llm.default_provider: "openai" selects OpenAI, anything else (including
// empty) selects Anthropic. Which provider has a key is not consulted.
func buildProvider(cfg config.Config) (llmprovider.Provider, error) {
	name := cfg.LLM.DefaultProvider
	if name == "" {
		name = "anthropic"
	}
	providerCfg := cfg.LLM.Providers[name]

	switch name {
	case "openai":
		return llmprovider.NewOpenAIProvider(providerCfg.APIKey, providerCfg.DefaultModel)
	default:
		return llmprovider.NewAnthropicProvider(llmprovider.AnthropicConfig{
			APIKey:       providerCfg.APIKey,
			BaseURL:      providerCfg.BaseURL,
			DefaultModel: providerCfg.DefaultModel,
		})
	}
}

// orchestratorQuestionAdapter bridges agents.QuestionGenerator's untyped
// forceSource string (as the model supplies it in a tool call's JSON
// arguments) to orchestrator.Orchestrator.Generate's typed Source,
// treating any value other than "pattern"/"ai" as no preference.
type orchestratorQuestionAdapter struct {
	orch *orchestrator.Orchestrator
}

func (a *orchestratorQuestionAdapter) Generate(ctx context.Context, concept string, marks int, difficulty float64, forceSource string) (*tutor.Question, error) {
	return a.orch.Generate(ctx, concept, marks, difficulty, orchestrator.Source(forceSource))
}
