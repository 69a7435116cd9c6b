package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/taskmaster/internal/apperr"
)

var (
	fenceOpen  = regexp.MustCompile("^```[\\w+-]*[ \\t]*\\r?\\n?")
	fenceClose = regexp.MustCompile("\\s*```$")

	errNotObject = errors.New("top-level JSON value is not an object")
	errNoBraces  = errors.New("no JSON object found in output")
)

// ExtractJSON pulls a command object out of raw model output.
//
// The chain is: trim, strip a surrounding code fence, parse directly, then
// parse the span from the first '{' to the last '}'. When every step fails
// the result is a MalformedResponse error.
func ExtractJSON(raw string) (map[string]any, error) {
	s := stripFence(strings.TrimSpace(raw))

	obj, err := parseObject(s)
	if err == nil {
		return obj, nil
	}

	span, ok := braceSpan(s)
	if !ok {
		return nil, apperr.MalformedResponse("model did not return valid JSON", errNoBraces)
	}

	obj, err = parseObject(span)
	if err != nil {
		return nil, apperr.MalformedResponse("model did not return valid JSON", err)
	}
	return obj, nil
}

// stripFence removes a ```lang ... ``` wrapper. Text without an opening
// fence is returned unchanged.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// parseObject decodes s as exactly one JSON object. Numbers stay json.Number
// so integral ids are not rounded through float64.
func parseObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return obj, nil
}

// braceSpan returns the greedy substring from the first '{' to the last '}'.
func braceSpan(s string) (string, bool) {
	b := []byte(s)
	start := bytes.IndexByte(b, '{')
	end := bytes.LastIndexByte(b, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
