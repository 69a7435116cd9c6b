package router

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/taskmaster/internal/apperr"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{
			name: "bare object",
			raw:  `{"function":"viewTasks","parameters":{}}`,
			want: map[string]any{"function": "viewTasks", "parameters": map[string]any{}},
		},
		{
			name: "fenced with language tag",
			raw:  "```json\n{\"function\":\"viewTasks\",\"parameters\":{}}\n```",
			want: map[string]any{"function": "viewTasks", "parameters": map[string]any{}},
		},
		{
			name: "fenced without language tag",
			raw:  "```\n{\"function\":\"viewTasks\"}\n```",
			want: map[string]any{"function": "viewTasks"},
		},
		{
			name: "surrounding whitespace",
			raw:  "\n\t  {\"function\":\"viewTasks\"}  \n",
			want: map[string]any{"function": "viewTasks"},
		},
		{
			name: "embedded in prose",
			raw:  `Sure! {"function":"addTask","parameters":{"description":"call mom"}} thanks`,
			want: map[string]any{
				"function":   "addTask",
				"parameters": map[string]any{"description": "call mom"},
			},
		},
		{
			name: "span across newlines",
			raw:  "Here you go:\n{\n  \"function\": \"completeTask\",\n  \"parameters\": {\"task_id\": 3}\n}\nDone.",
			want: map[string]any{
				"function":   "completeTask",
				"parameters": map[string]any{"task_id": json.Number("3")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"prose", "not json at all"},
		{"empty", ""},
		{"array", `[1, 2, 3]`},
		{"broken span", `ok {"function": } bye`},
		{"reversed braces", "} nothing {"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractJSON(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrMalformedResponse)
			assert.Contains(t, err.Error(), "model did not return valid JSON")
		})
	}
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripFence("```json {\"a\":1} ```"))
	assert.Equal(t, `plain {"a":1}`, stripFence(`plain {"a":1}`))
}

func TestParseObject(t *testing.T) {
	obj, err := parseObject(`{"task_id": 12345678901}`)
	require.NoError(t, err)
	assert.Equal(t, json.Number("12345678901"), obj["task_id"])

	_, err = parseObject(`"just a string"`)
	assert.ErrorIs(t, err, errNotObject)

	_, err = parseObject(`{"a":1} trailing`)
	assert.Error(t, err)

	_, err = parseObject(`{"a":`)
	assert.Error(t, err)
}

func TestBraceSpan(t *testing.T) {
	span, ok := braceSpan(`x {"a":{"b":1}} y }`)
	require.True(t, ok)
	assert.Equal(t, `{"a":{"b":1}} y }`, span)

	_, ok = braceSpan("no braces")
	assert.False(t, ok)

	_, ok = braceSpan("only { open")
	assert.False(t, ok)
}
