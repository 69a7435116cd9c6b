package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskmaster/internal/taskstore"
)

type addTaskInput struct {
	Description string `json:"description" jsonschema:"Task description, surrounding whitespace is trimmed"`
}

type taskIDInput struct {
	TaskID int `json:"task_id" jsonschema:"ID of an existing task"`
}

type listTasksInput struct{}

type routeTextInput struct {
	Text string `json:"text" jsonschema:"Free-form instruction such as 'add buy milk' or 'finish the second task'"`
}

type taskOutput struct {
	Task taskstore.Task `json:"task" jsonschema:"The affected task"`
}

type listTasksOutput struct {
	Tasks []taskstore.Task `json:"tasks" jsonschema:"All tasks in insertion order"`
	Count int              `json:"count" jsonschema:"Number of tasks"`
}

type routeTextOutput struct {
	Call   map[string]any   `json:"call" jsonschema:"Command object parsed from the model output"`
	Result any              `json:"result" jsonschema:"Result of executing the command"`
	Tasks  []taskstore.Task `json:"tasks" jsonschema:"Task list after execution"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "add_task",
		Description: "Append a new incomplete task",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args addTaskInput) (*mcp.CallToolResult, taskOutput, error) {
		done := s.instrument(ctx, "add_task")
		task, err := s.store.Append(args.Description)
		done(err)
		if err != nil {
			return nil, taskOutput{}, err
		}
		return textResult(fmt.Sprintf("Added task #%d: %s", task.ID, task.Description)), taskOutput{Task: task}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List all tasks in insertion order",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listTasksInput) (*mcp.CallToolResult, listTasksOutput, error) {
		done := s.instrument(ctx, "list_tasks")
		tasks := s.store.ListAll()
		done(nil)
		return textResult(fmt.Sprintf("%d tasks", len(tasks))), listTasksOutput{Tasks: tasks, Count: len(tasks)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task as completed",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args taskIDInput) (*mcp.CallToolResult, taskOutput, error) {
		done := s.instrument(ctx, "complete_task")
		task, err := s.store.MarkComplete(args.TaskID)
		done(err)
		if err != nil {
			return nil, taskOutput{}, err
		}
		return textResult(fmt.Sprintf("Completed task #%d", task.ID)), taskOutput{Task: task}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_task",
		Description: "Remove a task",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args taskIDInput) (*mcp.CallToolResult, taskOutput, error) {
		done := s.instrument(ctx, "delete_task")
		task, err := s.store.Remove(args.TaskID)
		done(err)
		if err != nil {
			return nil, taskOutput{}, err
		}
		return textResult(fmt.Sprintf("Deleted task #%d", task.ID)), taskOutput{Task: task}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "route_text",
		Description: "Interpret a natural-language instruction with the language model and execute the resulting task command",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args routeTextInput) (*mcp.CallToolResult, routeTextOutput, error) {
		done := s.instrument(ctx, "route_text")
		res, err := s.router.Route(ctx, args.Text)
		done(err)
		if err != nil {
			return nil, routeTextOutput{}, err
		}
		fn, _ := res.Call["function"].(string)
		return textResult(fmt.Sprintf("Executed %s, %d tasks", fn, len(res.Tasks))), routeTextOutput{
			Call:   res.Call,
			Result: res.Result,
			Tasks:  res.Tasks,
		}, nil
	})
}

// instrument starts metrics for one tool call and returns the function that
// finishes them.
func (s *Server) instrument(ctx context.Context, tool string) func(error) {
	finish := s.metrics.Start(ctx, tool)
	return func(err error) {
		finish(err)
		if err != nil {
			s.logger.Debug("tool failed", zap.String("tool", tool), zap.Error(err))
		}
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
