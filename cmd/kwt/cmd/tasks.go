package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/keyword-tracker/internal/api/client"
	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

func tasksCmd() *cobra.Command {
	tasksRoot := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tracking tasks",
		Long: "Manage tasks. Each active task has its keywords re-estimated on\n" +
			"every batch run, and every run appends one metrics log entry.",
	}

	tasksRoot.AddCommand(
		taskListCmd(),
		taskGetCmd(),
		taskCreateCmd(),
		taskPauseCmd(),
		taskResumeCmd(),
		taskDeleteCmd(),
		taskRunCmd(),
	)

	return tasksRoot
}

func taskListCmd() *cobra.Command {
	var f apiclient.TaskFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Example: `  kwt tasks list
  kwt tasks list --status active --owner alice --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := newClient().ListTasks(cmd.Context(), f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput() {
				return outputJSON(out, tasks)
			}
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks found.")
				return nil
			}
			return printTaskTable(out, tasks)
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "filter by status (active, paused)")
	cmd.Flags().StringVar(&f.Owner, "owner", "", "filter by owner")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "maximum number of tasks")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "number of tasks to skip")

	return cmd
}

func taskGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Short:   "Show task details",
		Example: `  kwt tasks get 6f1c0c1e-7f3a-4c55-9d1e-2b7f7f0a9c11`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := newClient().GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), t)
			}
			return printTaskDetail(cmd.OutOrStdout(), t)
		},
	}
}

func taskCreateCmd() *cobra.Command {
	var (
		name     string
		owner    string
		keywords []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new task",
		Long: "Create an active task. It is picked up by the next batch run,\n" +
			"or can be run immediately with 'kwt tasks run'.",
		Example: `  kwt tasks create --name cameras --owner alice \
    --keyword "vintage camera" --keyword "film camera"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name == "" || owner == "" || len(keywords) == 0 {
				return fmt.Errorf("--name, --owner and at least one --keyword are required")
			}
			t, err := newClient().CreateTask(cmd.Context(), name, owner, strings.Join(keywords, ","))
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), t)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task created: %s (%s)\n", t.Name, t.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "task name")
	cmd.Flags().StringVar(&owner, "owner", "", "task owner")
	cmd.Flags().StringArrayVar(&keywords, "keyword", nil, "keyword to track (repeatable)")

	return cmd
}

func taskPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "pause <id>",
		Short:   "Pause a task",
		Example: `  kwt tasks pause 6f1c0c1e-7f3a-4c55-9d1e-2b7f7f0a9c11`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().PauseTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s paused.\n", args[0])
			return nil
		},
	}
}

func taskResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "resume <id>",
		Short:   "Resume a paused task",
		Example: `  kwt tasks resume 6f1c0c1e-7f3a-4c55-9d1e-2b7f7f0a9c11`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().ResumeTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s resumed.\n", args[0])
			return nil
		},
	}
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete a task and its logs",
		Example: `  kwt tasks delete 6f1c0c1e-7f3a-4c55-9d1e-2b7f7f0a9c11`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s deleted.\n", args[0])
			return nil
		},
	}
}

func taskRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "run <id>",
		Short:   "Run a single task now",
		Long:    "Estimates every keyword of the task and appends one metrics log entry.",
		Example: `  kwt tasks run 6f1c0c1e-7f3a-4c55-9d1e-2b7f7f0a9c11`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := newClient().RunTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput() {
				return outputJSON(out, l)
			}
			return printLogTable(out, []domain.MetricsLog{*l})
		},
	}
}

func logsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "logs <task-id>",
		Short: "Show metrics log history for a task",
		Example: `  kwt logs 6f1c0c1e-7f3a-4c55-9d1e-2b7f7f0a9c11
  kwt logs 6f1c0c1e-7f3a-4c55-9d1e-2b7f7f0a9c11 --limit 5 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := newClient().ListLogs(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput() {
				return outputJSON(out, logs)
			}
			if len(logs) == 0 {
				fmt.Fprintln(out, "No log entries found.")
				return nil
			}
			return printLogTable(out, logs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of entries, newest first")

	return cmd
}
