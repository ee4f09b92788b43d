package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"thatmon/internal/api"
	"thatmon/internal/config"
	"thatmon/internal/models"
	"thatmon/internal/output"
)

type listFlags struct {
	format string
	limit  int
	offset int
}

func (f *listFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "output", "o", "table", "Output format: table, json or yaml")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Maximum number of results (0 = server default)")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "Number of results to skip")
}

func (f *listFlags) page() api.Pagination {
	return api.Pagination{Limit: f.limit, Offset: f.offset}
}

func newProjectsCmd(e *env) *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(flags.format)
			if err != nil {
				return err
			}
			projects, err := e.client().ListProjects(cmd.Context(), flags.page())
			if err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), format, output.Projects(projects))
		},
	}
	flags.bind(cmd)
	return cmd
}

func newTasksCmd(e *env) *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:   "tasks <project-id>",
		Short: "List the tasks of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(flags.format)
			if err != nil {
				return err
			}
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			tasks, err := e.client().ListProjectTasks(cmd.Context(), projectID, flags.page())
			if err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), format, output.Tasks(tasks))
		},
	}
	flags.bind(cmd)
	return cmd
}

func newSubtasksCmd(e *env) *cobra.Command {
	var (
		flags  listFlags
		taskID int64
	)
	cmd := &cobra.Command{
		Use:   "subtasks <project-id>",
		Short: "List the subtasks of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(flags.format)
			if err != nil {
				return err
			}
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			subtasks, err := e.client().ListProjectSubtasks(cmd.Context(), projectID, flags.page())
			if err != nil {
				return err
			}
			if taskID != 0 {
				filtered := subtasks[:0]
				for _, st := range subtasks {
					if st.TaskID == taskID {
						filtered = append(filtered, st)
					}
				}
				subtasks = filtered
			}
			return output.Print(cmd.OutOrStdout(), format, output.Subtasks(subtasks))
		},
	}
	flags.bind(cmd)
	cmd.Flags().Int64Var(&taskID, "task", 0, "Only subtasks of this task")
	return cmd
}

func newModelsCmd(e *env) *cobra.Command {
	var (
		format  string
		filter  string
		current string
	)
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models a project can default to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			catalog, err := e.catalog()
			if err != nil {
				return err
			}
			if catalog == nil {
				return errors.New("models.base_url or models.api_key is not configured")
			}
			list, err := catalog.List(cmd.Context())
			if err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), f, output.Models{List: models.Filter(list, filter), Current: current})
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "table", "Output format: table, json or yaml")
	cmd.Flags().StringVar(&filter, "filter", "", "Only models whose id contains this text")
	cmd.Flags().StringVar(&current, "current", "", "Mark this model id")
	return cmd
}

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the project config file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Write ./.thatmon/config.json with defaults",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.InitProjectConfigScaffold()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-url <base-url>",
			Short: "Set server.base_url in ./.thatmon/config.json",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cwd, err := os.Getwd()
				if err != nil {
					return err
				}
				return config.WriteServerBaseURL(cwd, args[0])
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the resolved config as YAML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg := e.cfg
				if cfg.Server.Token != "" {
					cfg.Server.Token = "***"
				}
				if cfg.Models.APIKey != "" {
					cfg.Models.APIKey = "***"
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return err
				}
				return enc.Close()
			},
		},
	)
	return cmd
}
