package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/resume-builder/internal/agent"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/export"
	"github.com/jonathan/resume-builder/internal/fetch"
	"github.com/jonathan/resume-builder/internal/jobs"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/metrics"
	"github.com/jonathan/resume-builder/internal/profiles"
	"github.com/jonathan/resume-builder/internal/server"
	"github.com/jonathan/resume-builder/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var (
	servePort  int
	serveNoPDF bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the resume builder: accounts, profiles,
builder sessions with agent chat, HTML previews and PDF export.

Configuration comes from RESUME_* environment variables and an optional
YAML file named by RESUME_CONFIG. A database is required.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides RESUME_PORT)")
	serveCmd.Flags().BoolVar(&serveNoPDF, "no-pdf", false, "Disable PDF export")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := database.Migrate(ctx); err != nil {
		return err
	}

	profileSvc := profiles.NewService(profiles.NewPostgresStore(database), fetch.NewGitHubScraper())

	client, closeAgent, err := newAgentClient(ctx, cfg, profileSvc)
	if err != nil {
		return err
	}
	defer closeAgent()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.New(metrics.WithRegistry(registry))
	manager := session.NewManager(client, profileSvc,
		session.WithSnapshots(database),
		session.WithMetrics(recorder),
		session.WithIdleTimeout(cfg.SessionIdleTimeout),
	)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepIdle(sweepCtx, cfg.SessionIdleTimeout, manager, client)

	deps := server.Deps{
		Users:       database,
		Revocations: database,
		Profiles:    profileSvc,
		Sessions:    manager,
		Snapshots:   database,
		Postings:    jobs.NewService(database),
		Metrics:     recorder,
		Ping:        database.Ping,
	}
	if !serveNoPDF {
		deps.PDF = export.NewChromeRenderer(cfg.ChromePath)
	}

	srv, err := server.New(cfg, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}

// newAgentClient uses the remote agent when RESUME_AGENT_URL is set and
// falls back to answering in-process with Gemini.
func newAgentClient(ctx context.Context, cfg *config.Config, profileSvc *profiles.Service) (agent.Client, func(), error) {
	if cfg.AgentURL != "" {
		log.Printf("[agent] using remote agent at %s", cfg.AgentURL)
		return agent.NewHTTPClient(cfg.AgentURL, cfg.AgentTimeout), func() {}, nil
	}
	if cfg.GeminiAPIKey == "" {
		return nil, nil, fmt.Errorf("either RESUME_AGENT_URL or GEMINI_API_KEY is required")
	}

	llmCfg := llm.DefaultConfig().WithModel(llm.TierGenerate, cfg.GeminiModel)
	gemini, err := llm.NewGeminiClient(ctx, llmCfg, cfg.GeminiAPIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	log.Printf("[agent] answering in-process with %s", llmCfg.GetModel(llm.TierGenerate))
	return agent.NewLLMAgent(gemini, profileSvc.Lookup), func() { _ = gemini.Close() }, nil
}

// sweepIdle drops idle builder sessions and, for the in-process agent,
// their conversations until ctx is done.
func sweepIdle(ctx context.Context, idle time.Duration, manager *session.Manager, client agent.Client) {
	if idle <= 0 {
		return
	}
	conversations, _ := client.(*agent.LLMAgent)

	ticker := time.NewTicker(idle / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.Sweep()
			if conversations != nil {
				conversations.Sweep(idle)
			}
		}
	}
}
