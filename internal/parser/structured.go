package parser

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/specialistvlad/evalgrid/internal/model"
)

type structuredOptions struct {
	Pattern  string   `yaml:"pattern"`
	Patterns []string `yaml:"patterns"`
	Input    string   `yaml:"input"`
	// RawFields are kept as strings even when they look numeric.
	RawFields []string `yaml:"raw_fields"`
	// Static fields are copied into every record.
	Static map[string]any `yaml:"static"`
}

// structuredParser applies named-group regexes line by line. Every match
// produces one record keyed by the group names.
type structuredParser struct {
	patterns []*regexp.Regexp
	input    string
	raw      map[string]struct{}
	static   map[string]any
}

func newStructured(opts map[string]any) (Parser, error) {
	var o structuredOptions
	if err := decodeOptions(opts, &o); err != nil {
		return nil, err
	}
	if err := checkInput(o.Input); err != nil {
		return nil, err
	}
	sources := o.Patterns
	if o.Pattern != "" {
		sources = append([]string{o.Pattern}, sources...)
	}
	if len(sources) == 0 {
		return nil, errors.New("at least one pattern is required")
	}

	p := &structuredParser{input: o.Input, raw: make(map[string]struct{}, len(o.RawFields)), static: o.Static}
	for _, src := range sources {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", src, err)
		}
		if !hasNamedGroup(re) {
			return nil, fmt.Errorf("pattern %q has no named groups", src)
		}
		p.patterns = append(p.patterns, re)
	}
	for _, f := range o.RawFields {
		p.raw[f] = struct{}{}
	}
	return p, nil
}

func hasNamedGroup(re *regexp.Regexp) bool {
	for _, n := range re.SubexpNames() {
		if n != "" {
			return true
		}
	}
	return false
}

func (p *structuredParser) Parse(out Output) ([]model.MetricRecord, error) {
	records := []model.MetricRecord{}
	scanner := bufio.NewScanner(strings.NewReader(selectInput(out, p.input)))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		for _, re := range p.patterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			rec := make(model.MetricRecord, len(m)+len(p.static))
			for k, v := range p.static {
				rec[k] = v
			}
			for i, name := range re.SubexpNames() {
				if name == "" || i >= len(m) {
					continue
				}
				if _, keep := p.raw[name]; keep {
					rec[name] = m[i]
				} else {
					rec[name] = convertValue(m[i])
				}
			}
			records = append(records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading output: %w", err)
	}
	return records, nil
}
