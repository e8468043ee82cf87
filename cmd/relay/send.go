package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/relay/internal/client"
	"github.com/ShayCichocki/relay/internal/protocol"
)

var sendTaskID string

var sendCmd = &cobra.Command{
	Use:   "send [text]",
	Short: "Send one message and print the streamed reply",
	Long: `Sends one message to the orchestrator and prints events as they
arrive. Use --task to answer a question a previous turn paused on.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSend(strings.Join(args, " "))
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendTaskID, "task", "", "Task ID to continue (for input-required replies)")
}

func runSend(text string) error {
	msg := protocol.NewUserMessage(text)
	msg.TaskID = sendTaskID

	events, errs := client.New(nil).Stream(context.Background(), serverURL, protocol.MessageSendParams{
		Message: msg,
		Configuration: &protocol.SendConfiguration{
			AcceptedOutputModes: []string{"text"},
			Blocking:            false,
		},
	})

	dim := color.New(color.Faint)
	for ev := range events {
		switch e := ev.(type) {
		case *protocol.Task:
			dim.Printf("task %s (%s)\n", e.ID, e.Status.State)

		case *protocol.ArtifactUpdateEvent:
			name := e.Artifact.Name
			if name == "" {
				name = e.Artifact.ArtifactID
			}
			color.Cyan("artifact %s:", name)
			for _, p := range e.Artifact.Parts {
				if p.Kind == protocol.PartKindText {
					fmt.Print(p.Text)
				}
			}

		case *protocol.StatusUpdateEvent:
			text := ""
			if e.Status.Message != nil {
				text = e.Status.Message.Text()
			}
			if !e.Final {
				if text != "" {
					dim.Println(text)
				}
				continue
			}

			printFinal(e, text)
		}
	}
	if err := <-errs; err != nil {
		return err
	}
	return nil
}

func printFinal(e *protocol.StatusUpdateEvent, text string) {
	switch e.Status.State {
	case protocol.TaskStateCompleted:
		fmt.Print(text)
		if !strings.HasSuffix(text, "\n") {
			fmt.Println()
		}
	case protocol.TaskStateInputRequired:
		color.Yellow("%s", text)
		fmt.Printf("reply with: relay send --task %s <answer>\n", e.TaskID)
	case protocol.TaskStateCanceled:
		color.Yellow("canceled: %s", text)
	default:
		color.Red("%s: %s", e.Status.State, text)
	}

	if e.Status.Message == nil {
		return
	}
	dim := color.New(color.Faint)
	if len(e.Status.Message.IntentPath) > 0 {
		dim.Printf("via %s\n", strings.Join(e.Status.Message.IntentPath, " -> "))
	}
	for i, c := range e.Status.Message.Citations {
		dim.Printf("  [%d] %s (%s)\n", i+1, c.Label, c.Kind)
	}
}
