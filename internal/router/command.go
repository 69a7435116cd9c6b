package router

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/fyrsmithlabs/taskmaster/internal/apperr"
)

// Function names a command the model may emit.
type Function string

const (
	FuncAddTask      Function = "addTask"
	FuncViewTasks    Function = "viewTasks"
	FuncCompleteTask Function = "completeTask"
	FuncDeleteTask   Function = "deleteTask"
)

// Command is one of AddTask, ViewTasks, CompleteTask or DeleteTask.
type Command interface {
	Function() Function
	isCommand()
}

// AddTask appends a new task.
type AddTask struct {
	Description string
}

// ViewTasks lists every task.
type ViewTasks struct{}

// CompleteTask marks a task done.
type CompleteTask struct {
	TaskID int
}

// DeleteTask removes a task.
type DeleteTask struct {
	TaskID int
}

func (AddTask) Function() Function      { return FuncAddTask }
func (ViewTasks) Function() Function    { return FuncViewTasks }
func (CompleteTask) Function() Function { return FuncCompleteTask }
func (DeleteTask) Function() Function   { return FuncDeleteTask }

func (AddTask) isCommand()      {}
func (ViewTasks) isCommand()    {}
func (CompleteTask) isCommand() {}
func (DeleteTask) isCommand()   {}

const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["function"],
  "properties": {
    "function": {"type": "string"},
    "parameters": {"type": ["object", "null"]}
  },
  "additionalProperties": false
}`

var envelope = jsonschema.MustCompileString("command.schema.json", envelopeSchema)

// ParseCommand validates a decoded command object and converts it into a
// Command. Every failure is an InvalidInput error.
func ParseCommand(call map[string]any) (Command, error) {
	if err := envelope.Validate(call); err != nil {
		return nil, schemaError(err)
	}

	fn, _ := call["function"].(string)
	params, _ := call["parameters"].(map[string]any)
	if params == nil {
		params = map[string]any{}
	}

	switch Function(fn) {
	case FuncAddTask:
		desc, err := descriptionParam(params)
		if err != nil {
			return nil, err
		}
		return AddTask{Description: desc}, nil
	case FuncViewTasks:
		return ViewTasks{}, nil
	case FuncCompleteTask:
		id, err := taskIDParam(params)
		if err != nil {
			return nil, err
		}
		return CompleteTask{TaskID: id}, nil
	case FuncDeleteTask:
		id, err := taskIDParam(params)
		if err != nil {
			return nil, err
		}
		return DeleteTask{TaskID: id}, nil
	default:
		return nil, apperr.InvalidInput("unknown function: %s", fn)
	}
}

// schemaError reports the first leaf cause of a validation failure.
func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return apperr.InvalidInput("invalid command: %v", err)
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return apperr.InvalidInput("invalid command: %s: %s", loc, ve.Message)
}

func descriptionParam(params map[string]any) (string, error) {
	var desc string
	switch v := params["description"].(type) {
	case nil:
	case string:
		desc = v
	case json.Number:
		desc = v.String()
	case float64:
		desc = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		desc = strconv.FormatBool(v)
	default:
		return "", apperr.InvalidInput("description must be a string")
	}

	desc = strings.TrimSpace(desc)
	if desc == "" {
		return "", apperr.InvalidInput("description required")
	}
	return desc, nil
}

func taskIDParam(params map[string]any) (int, error) {
	raw, ok := params["task_id"]
	if !ok || raw == nil {
		return 0, apperr.InvalidInput("task_id required")
	}

	switch v := raw.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
		if f, err := v.Float64(); err == nil {
			if id, ok := integral(f); ok {
				return id, nil
			}
		}
	case float64:
		if id, ok := integral(v); ok {
			return id, nil
		}
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, nil
		}
	}
	return 0, apperr.InvalidInput("task_id must be an integer")
}

func integral(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int(f), true
}
