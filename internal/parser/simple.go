package parser

import (
	"fmt"
	"regexp"

	"github.com/specialistvlad/evalgrid/internal/model"
)

type simpleOptions struct {
	SuccessPatterns []string `yaml:"success_patterns"`
	ErrorPatterns   []string `yaml:"error_patterns"`
	CaseSensitive   bool     `yaml:"case_sensitive"`
	// Literal treats patterns as plain substrings.
	Literal bool `yaml:"literal"`
}

// simpleParser classifies a run from pattern hits over stdout and stderr.
// It always yields exactly one record.
type simpleParser struct {
	success []*regexp.Regexp
	errors  []*regexp.Regexp
}

func newSimple(opts map[string]any) (Parser, error) {
	var o simpleOptions
	if err := decodeOptions(opts, &o); err != nil {
		return nil, err
	}
	success, err := compilePatterns(o.SuccessPatterns, o.CaseSensitive, o.Literal)
	if err != nil {
		return nil, fmt.Errorf("success_patterns: %w", err)
	}
	errs, err := compilePatterns(o.ErrorPatterns, o.CaseSensitive, o.Literal)
	if err != nil {
		return nil, fmt.Errorf("error_patterns: %w", err)
	}
	return &simpleParser{success: success, errors: errs}, nil
}

func compilePatterns(patterns []string, caseSensitive, literal bool) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if literal {
			p = regexp.QuoteMeta(p)
		}
		if !caseSensitive {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func anyMatch(patterns []*regexp.Regexp, texts ...string) bool {
	for _, re := range patterns {
		for _, t := range texts {
			if re.MatchString(t) {
				return true
			}
		}
	}
	return false
}

func (p *simpleParser) Parse(out Output) ([]model.MetricRecord, error) {
	successFound := anyMatch(p.success, out.Stdout, out.Stderr)
	errorFound := anyMatch(p.errors, out.Stdout, out.Stderr)

	// The exit code only decides when no pattern of either kind is configured.
	var ok bool
	if len(p.success) == 0 && len(p.errors) == 0 {
		ok = out.ExitCode == 0
	} else {
		ok = successFound && !errorFound
	}

	status := "failure"
	if ok {
		status = "success"
	}
	return []model.MetricRecord{{
		"status":                 status,
		"success_patterns_found": successFound,
		"error_patterns_found":   errorFound,
		"exit_code":              out.ExitCode,
	}}, nil
}
