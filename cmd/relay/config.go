package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/relay/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default user config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigInit()
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Printf("user config: %s\n\n", config.GetUserConfigPath())
	fmt.Printf("server.addr:            %s\n", cfg.Server.Addr)
	fmt.Printf("specialists.addresses:  %s\n", strings.Join(cfg.Specialists.Addresses, ", "))
	fmt.Printf("llm.backend:            %s\n", cfg.LLM.Backend)
	if cfg.LLM.Model != "" {
		fmt.Printf("llm.model:              %s\n", cfg.LLM.Model)
	}
	if cfg.LLM.Endpoint != "" {
		fmt.Printf("llm.endpoint:           %s\n", cfg.LLM.Endpoint)
	}
	fmt.Printf("llm.api_key set:        %v\n", cfg.LLM.APIKey != "")
	fmt.Printf("journal.enabled:        %v\n", cfg.Journal.Enabled)
	if cfg.Journal.Path != "" {
		fmt.Printf("journal.path:           %s\n", cfg.Journal.Path)
	}
	return nil
}

const configTemplate = `# relay configuration
server:
  addr: ":8080"

specialists:
  addresses:
    - "http://localhost:8081"
    - "http://localhost:8082"
    - "http://localhost:8083"

llm:
  backend: anthropic        # openai | anthropic | bedrock | none
  model: ""
  api_key: "${ANTHROPIC_API_KEY}"

journal:
  enabled: false
`

func runConfigInit() error {
	path := config.GetUserConfigPath()
	if _, err := os.Stat(path); err == nil {
		color.Yellow("config already exists at %s", path)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("%s wrote %s\n", color.GreenString("✓"), path)
	return nil
}
