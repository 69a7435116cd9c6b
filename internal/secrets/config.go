package secrets

import (
	"fmt"
	"regexp"
)

// Config configures a Scrubber.
type Config struct {
	Rules []Rule
	// Replacement substitutes each redacted span. Defaults to "[REDACTED]".
	Replacement string
	// AllowList patterns exempt matching spans from redaction.
	AllowList []string
}

// Rule is one credential pattern.
type Rule struct {
	ID          string
	Description string
	Pattern     string
	// Keywords gate the rule: at least one must appear in the text.
	Keywords []string
}

// DefaultConfig returns the built-in rule set.
func DefaultConfig() *Config {
	return &Config{
		Rules:       DefaultRules(),
		Replacement: "[REDACTED]",
	}
}

type compiledRule struct {
	id       string
	pattern  *regexp.Regexp
	keywords []*regexp.Regexp
}

func (c *Config) compile() ([]compiledRule, []*regexp.Regexp, error) {
	rules := make([]compiledRule, 0, len(c.Rules))
	for i, rule := range c.Rules {
		if rule.ID == "" {
			return nil, nil, fmt.Errorf("rule %d: ID is required", i)
		}
		if rule.Pattern == "" {
			return nil, nil, fmt.Errorf("rule %s: pattern is required", rule.ID)
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, nil, fmt.Errorf("rule %s: invalid pattern: %w", rule.ID, err)
		}
		cr := compiledRule{id: rule.ID, pattern: re}
		for _, kw := range rule.Keywords {
			cr.keywords = append(cr.keywords, regexp.MustCompile("(?i)"+regexp.QuoteMeta(kw)))
		}
		rules = append(rules, cr)
	}

	allow := make([]*regexp.Regexp, 0, len(c.AllowList))
	for i, p := range c.AllowList {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("allow_list %d: invalid pattern: %w", i, err)
		}
		allow = append(allow, re)
	}
	return rules, allow, nil
}
