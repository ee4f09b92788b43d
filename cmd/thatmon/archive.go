package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"thatmon/internal/output"
	"thatmon/internal/storage"
)

func newArchiveCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Browse archived log snapshots",
	}
	cmd.AddCommand(newArchiveListCmd(e), newArchiveShowCmd(e), newArchivePruneCmd(e))
	return cmd
}

func newArchiveListCmd(e *env) *cobra.Command {
	var (
		format string
		filter storage.Filter
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			archive, err := e.openArchive()
			if err != nil {
				return err
			}
			defer archive.Close()
			entries, err := archive.List(filter)
			if err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), f, output.Entries(entries))
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "table", "Output format: table, json or yaml")
	cmd.Flags().Int64Var(&filter.ProjectID, "project", 0, "Project id")
	cmd.Flags().Int64Var(&filter.TaskID, "task", 0, "Task id")
	cmd.Flags().Int64Var(&filter.SubtaskID, "subtask", 0, "Subtask id")
	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "Maximum number of entries (0 = all)")
	return cmd
}

func newArchiveShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print an archived snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := e.openArchive()
			if err != nil {
				return err
			}
			defer archive.Close()
			entry, err := archive.Load(args[0])
			if err != nil {
				return err
			}
			output.FormatEntry(cmd.OutOrStdout(), entry)
			return nil
		},
	}
}

func newArchivePruneCmd(e *env) *cobra.Command {
	var (
		projectID, taskID, subtaskID int64
		keep                         int
	)
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Keep only the newest snapshots of one target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == 0 || taskID == 0 {
				return fmt.Errorf("--project and --task are required")
			}
			archive, err := e.openArchive()
			if err != nil {
				return err
			}
			defer archive.Close()
			n, err := archive.Prune(projectID, taskID, subtaskID, keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d\n", n)
			return nil
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "Project id")
	cmd.Flags().Int64Var(&taskID, "task", 0, "Task id")
	cmd.Flags().Int64Var(&subtaskID, "subtask", 0, "Subtask id (0 = task mode snapshots)")
	cmd.Flags().IntVar(&keep, "keep", 0, "Snapshots to keep")
	return cmd
}
