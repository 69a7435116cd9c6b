package router

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/taskmaster/internal/apperr"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		call map[string]any
		want Command
	}{
		{
			name: "add task",
			call: map[string]any{"function": "addTask", "parameters": map[string]any{"description": "  buy milk "}},
			want: AddTask{Description: "buy milk"},
		},
		{
			name: "add task numeric description",
			call: map[string]any{"function": "addTask", "parameters": map[string]any{"description": json.Number("42")}},
			want: AddTask{Description: "42"},
		},
		{
			name: "view tasks without parameters",
			call: map[string]any{"function": "viewTasks"},
			want: ViewTasks{},
		},
		{
			name: "view tasks null parameters",
			call: map[string]any{"function": "viewTasks", "parameters": nil},
			want: ViewTasks{},
		},
		{
			name: "view tasks ignores parameters",
			call: map[string]any{"function": "viewTasks", "parameters": map[string]any{"filter": "all"}},
			want: ViewTasks{},
		},
		{
			name: "complete task json number",
			call: map[string]any{"function": "completeTask", "parameters": map[string]any{"task_id": json.Number("3")}},
			want: CompleteTask{TaskID: 3},
		},
		{
			name: "complete task integral float",
			call: map[string]any{"function": "completeTask", "parameters": map[string]any{"task_id": 3.0}},
			want: CompleteTask{TaskID: 3},
		},
		{
			name: "complete task json number with fraction zero",
			call: map[string]any{"function": "completeTask", "parameters": map[string]any{"task_id": json.Number("3.0")}},
			want: CompleteTask{TaskID: 3},
		},
		{
			name: "delete task decimal string",
			call: map[string]any{"function": "deleteTask", "parameters": map[string]any{"task_id": " 7 "}},
			want: DeleteTask{TaskID: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.call)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Function(), got.Function())
		})
	}
}

func TestParseCommand_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		call    map[string]any
		wantMsg string
	}{
		{
			name:    "unknown function",
			call:    map[string]any{"function": "doStuff", "parameters": map[string]any{}},
			wantMsg: "unknown function: doStuff",
		},
		{
			name:    "missing function",
			call:    map[string]any{"parameters": map[string]any{}},
			wantMsg: "invalid command",
		},
		{
			name:    "function not a string",
			call:    map[string]any{"function": json.Number("1")},
			wantMsg: "invalid command: /function",
		},
		{
			name:    "parameters not an object",
			call:    map[string]any{"function": "viewTasks", "parameters": "none"},
			wantMsg: "invalid command: /parameters",
		},
		{
			name:    "extra top-level field",
			call:    map[string]any{"function": "viewTasks", "parameters": map[string]any{}, "reason": "because"},
			wantMsg: "invalid command",
		},
		{
			name:    "blank description",
			call:    map[string]any{"function": "addTask", "parameters": map[string]any{"description": "   "}},
			wantMsg: "description required",
		},
		{
			name:    "missing description",
			call:    map[string]any{"function": "addTask"},
			wantMsg: "description required",
		},
		{
			name:    "object description",
			call:    map[string]any{"function": "addTask", "parameters": map[string]any{"description": map[string]any{"x": "y"}}},
			wantMsg: "description must be a string",
		},
		{
			name:    "missing task id",
			call:    map[string]any{"function": "completeTask", "parameters": map[string]any{}},
			wantMsg: "task_id required",
		},
		{
			name:    "fractional task id",
			call:    map[string]any{"function": "deleteTask", "parameters": map[string]any{"task_id": json.Number("2.5")}},
			wantMsg: "task_id must be an integer",
		},
		{
			name:    "word task id",
			call:    map[string]any{"function": "deleteTask", "parameters": map[string]any{"task_id": "second"}},
			wantMsg: "task_id must be an integer",
		},
		{
			name:    "bool task id",
			call:    map[string]any{"function": "completeTask", "parameters": map[string]any{"task_id": true}},
			wantMsg: "task_id must be an integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommand(tt.call)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
