package secrets

import (
	"cmp"
	"regexp"
	"slices"
)

// Finding locates one redacted credential. The matched text is not kept.
type Finding struct {
	RuleID string `json:"rule_id"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// Result is the outcome of scrubbing one text.
type Result struct {
	Text     string    `json:"text"`
	Findings []Finding `json:"findings,omitempty"`
}

// HasFindings reports whether anything was redacted.
func (r Result) HasFindings() bool {
	return len(r.Findings) > 0
}

// RuleIDs returns the distinct rule IDs that matched, in first-seen order.
func (r Result) RuleIDs() []string {
	var ids []string
	for _, f := range r.Findings {
		if !slices.Contains(ids, f.RuleID) {
			ids = append(ids, f.RuleID)
		}
	}
	return ids
}

// Scrubber redacts credentials from text. It is safe for concurrent use.
type Scrubber struct {
	rules       []compiledRule
	allow       []*regexp.Regexp
	replacement string
}

// New compiles cfg. A nil cfg uses DefaultConfig.
func New(cfg *Config) (*Scrubber, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	rules, allow, err := cfg.compile()
	if err != nil {
		return nil, err
	}
	s := &Scrubber{rules: rules, allow: allow, replacement: cfg.Replacement}
	if s.replacement == "" {
		s.replacement = "[REDACTED]"
	}
	return s, nil
}

// Scrub replaces every credential in text. Overlapping matches from
// different rules collapse into one replacement.
func (s *Scrubber) Scrub(text string) Result {
	var findings []Finding
	for _, rule := range s.rules {
		if !rule.applies(text) {
			continue
		}
		for _, m := range rule.pattern.FindAllStringIndex(text, -1) {
			if s.allowed(text[m[0]:m[1]]) {
				continue
			}
			findings = append(findings, Finding{RuleID: rule.id, Start: m[0], End: m[1]})
		}
	}
	if len(findings) == 0 {
		return Result{Text: text}
	}

	spans := slices.Clone(findings)
	slices.SortFunc(spans, func(a, b Finding) int { return cmp.Compare(a.Start, b.Start) })

	out := make([]byte, 0, len(text))
	pos := 0
	for i := 0; i < len(spans); {
		start, end := spans[i].Start, spans[i].End
		for i++; i < len(spans) && spans[i].Start <= end; i++ {
			end = max(end, spans[i].End)
		}
		out = append(out, text[pos:start]...)
		out = append(out, s.replacement...)
		pos = end
	}
	out = append(out, text[pos:]...)

	return Result{Text: string(out), Findings: findings}
}

func (r compiledRule) applies(text string) bool {
	if len(r.keywords) == 0 {
		return true
	}
	for _, kw := range r.keywords {
		if kw.MatchString(text) {
			return true
		}
	}
	return false
}

func (s *Scrubber) allowed(match string) bool {
	for _, re := range s.allow {
		if re.MatchString(match) {
			return true
		}
	}
	return false
}
