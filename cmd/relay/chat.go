package main

import (
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/relay/internal/client"
	"github.com/ShayCichocki/relay/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat client",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func runChat() error {
	return tui.Run(client.New(nil), serverURL)
}
