package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/relay/internal/config"
	"github.com/ShayCichocki/relay/internal/server"
	"github.com/ShayCichocki/relay/internal/specialist"
	"github.com/ShayCichocki/relay/internal/version"
)

var specialistAddr string

var specialistCmd = &cobra.Command{
	Use:   "specialist [calc|weather|dataset]",
	Short: "Start one of the bundled specialist agents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSpecialist(args[0])
	},
}

func init() {
	specialistCmd.Flags().StringVar(&specialistAddr, "addr", "", "Listen address (defaults per specialist)")
}

func runSpecialist(name string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(false)

	var agent *specialist.Agent
	var addr string
	switch name {
	case "calc":
		addr = cfg.Specialists.CalcAddr
		agent = specialist.NewAgent(
			specialist.CalculatorCard("http://localhost"+addr, version.Get()),
			specialist.Calculator{}, logger)
	case "weather":
		addr = cfg.Specialists.WeatherAddr
		agent = specialist.NewAgent(
			specialist.WeatherCard("http://localhost"+addr, version.Get()),
			specialist.Weather{}, logger)
	case "dataset":
		addr = cfg.Specialists.DatasetAddr
		agent = specialist.NewAgent(
			specialist.DatasetCard("http://localhost"+addr, version.Get()),
			specialist.Dataset{}, logger)
	default:
		return fmt.Errorf("unknown specialist %q (want calc, weather or dataset)", name)
	}
	if specialistAddr != "" {
		addr = specialistAddr
	}

	return server.New(agent, agent.Card(), logger).ListenAndServe(addr)
}
