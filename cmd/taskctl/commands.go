package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tasks",
	Long: `List all tasks in insertion order.

Examples:
  taskctl list
  taskctl list --server http://tasks.internal:8080`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := newClient().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), renderTasks(tasks))
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <description...>",
	Short: "Add a task",
	Long: `Add a new incomplete task. All arguments are joined with spaces.

Examples:
  taskctl add buy milk
  taskctl add "call the dentist"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := newClient().Add(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("failed to add task: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", renderTask(task))
		return nil
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		task, err := newClient().Complete(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to complete task %d: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Completed %s\n", renderTask(task))
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Remove a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		task, err := newClient().Remove(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to remove task %d: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", renderTask(task))
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <text...>",
	Short: "Send a free-form instruction through the language model",
	Long: `Send a free-form instruction to the server. The model picks a task
command, the server executes it and the resulting task list is printed.

Examples:
  taskctl ask remind me to water the plants
  taskctl ask "I finished the second one"
  taskctl ask what is on my list`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := newClient().Ask(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("failed to route instruction: %w", err)
		}
		out := cmd.OutOrStdout()
		call, err := json.Marshal(resp.Call)
		if err != nil {
			return fmt.Errorf("failed to encode call: %w", err)
		}
		fmt.Fprintln(out, dimStyle.Render(string(call)))
		fmt.Fprint(out, renderTasks(resp.Tasks))
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := newClient().Health(cmd.Context())
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), errorStyle.Render("✗ unreachable"))
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d tasks\n", healthyStyle.Render("✓ "+health.Status), health.Tasks)
		return nil
	},
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}
