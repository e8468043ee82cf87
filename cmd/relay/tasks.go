package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/relay/internal/config"
	"github.com/ShayCichocki/relay/internal/journal"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks [task-id]",
	Short: "Inspect the event journal",
	Long: `Prints journaled events. With no argument, shows the journal
location and event count; with a task ID, lists that task's events in
append order. Requires journaling to have been enabled on the server.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID := ""
		if len(args) == 1 {
			taskID = args[0]
		}
		return runTasks(taskID)
	},
}

func runTasks(taskID string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	path := cfg.Journal.Path
	if path == "" {
		path = journal.DefaultPath()
	}

	j, err := journal.Open(path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	if taskID == "" {
		n, err := j.Count()
		if err != nil {
			return err
		}
		fmt.Printf("journal: %s\n%d events recorded\n", j.Path(), n)
		return nil
	}

	entries, err := j.TaskEvents(taskID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		color.Yellow("no journaled events for task %s", taskID)
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %-16s %s\n", e.RecordedAt.Format("15:04:05.000"), e.Kind, e.Payload)
	}
	return nil
}
