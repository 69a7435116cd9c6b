package logging

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const redacted = "[REDACTED]"

// redactingCore masks fields before they reach any output. Keys are matched
// case-insensitively by substring; string values are matched by pattern.
type redactingCore struct {
	zapcore.Core
	keys     []string
	patterns []*regexp.Regexp
}

func newRedactingCore(core zapcore.Core, cfg RedactionConfig) (*redactingCore, error) {
	rc := &redactingCore{Core: core}
	for _, k := range cfg.Fields {
		rc.keys = append(rc.keys, strings.ToLower(k))
	}
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		rc.patterns = append(rc.patterns, re)
	}
	return rc, nil
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{
		Core:     c.Core.With(c.redact(fields)),
		keys:     c.keys,
		patterns: c.patterns,
	}
}

func (c *redactingCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *redactingCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	e.Message = c.redactValue(e.Message)
	return c.Core.Write(e, c.redact(fields))
}

func (c *redactingCore) redact(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		switch {
		case c.sensitiveKey(f.Key):
			out[i] = zap.String(f.Key, redacted)
		case f.Type == zapcore.StringType:
			out[i] = zap.String(f.Key, c.redactValue(f.String))
		case f.Type == zapcore.ErrorType:
			if err, ok := f.Interface.(error); ok {
				out[i] = zap.String(f.Key, c.redactValue(err.Error()))
			} else {
				out[i] = f
			}
		default:
			out[i] = f
		}
	}
	return out
}

func (c *redactingCore) sensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, k := range c.keys {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}

func (c *redactingCore) redactValue(s string) string {
	for _, re := range c.patterns {
		s = re.ReplaceAllString(s, redacted)
	}
	return s
}
