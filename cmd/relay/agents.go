package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/relay/internal/client"
	"github.com/ShayCichocki/relay/internal/config"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Probe the configured specialists and print their cards",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgents()
	},
}

func runAgents() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	c := client.New(nil)
	for _, addr := range cfg.Specialists.Addresses {
		card, err := c.FetchCard(context.Background(), addr)
		if err != nil {
			color.Red("✗ %s: %v", addr, err)
			continue
		}
		color.Green("✓ %s — %s (v%s)", addr, card.Name, card.Version)
		for _, skill := range card.Skills {
			fmt.Printf("    %s: %s\n", skill.ID, skill.Description)
		}
	}
	return nil
}
