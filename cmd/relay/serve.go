package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/relay/internal/client"
	"github.com/ShayCichocki/relay/internal/config"
	"github.com/ShayCichocki/relay/internal/journal"
	"github.com/ShayCichocki/relay/internal/orchestrator"
	"github.com/ShayCichocki/relay/internal/proxy"
	"github.com/ShayCichocki/relay/internal/registry"
	"github.com/ShayCichocki/relay/internal/router"
	"github.com/ShayCichocki/relay/internal/server"
	"github.com/ShayCichocki/relay/internal/version"
)

var serveVerbose bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the orchestrator",
	Long: `Starts the orchestrator: discovers the configured specialists,
then serves the streaming endpoint and the agent card.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Enable debug logging")
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(serveVerbose)

	completions, err := newCompletionClient(&cfg.LLM)
	if err != nil {
		return err
	}
	if completions == nil {
		logger.Warn("no completion backend configured; direct answers are degraded")
	}

	var sink orchestrator.EventSink
	if cfg.Journal.Enabled {
		path := cfg.Journal.Path
		if path == "" {
			path = journal.DefaultPath()
		}
		j, err := journal.Open(path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer j.Close()
		logger.Info("journaling events", "path", j.Path())
		sink = j
	}

	agents := client.New(logger)
	reg := registry.New(agents, logger)
	// Discovery runs alongside the listener; early turns block on the
	// registry barrier instead of racing it.
	go reg.Discover(context.Background(), cfg.Specialists.Addresses)

	engine := orchestrator.New(orchestrator.Config{
		Registry:    reg,
		Router:      router.New(completions, logger),
		Proxy:       proxy.New(agents, logger),
		Completions: completions,
		Journal:     sink,
		Logger:      logger,
	})

	card := orchestrator.Card("http://localhost"+cfg.Server.Addr, version.Get())
	return server.New(engine, card, logger).ListenAndServe(cfg.Server.Addr)
}
