package parser

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/specialistvlad/evalgrid/internal/model"
)

const pytestStatuses = `PASSED|FAILED|SKIPPED|ERROR|XFAIL|XPASS`

var (
	pytestXdistLine    = regexp.MustCompile(`^\[gw\d+\]\s+\[\s*\d+%\]\s+(` + pytestStatuses + `)\s+(\S+::\S+)`)
	pytestVerboseLine  = regexp.MustCompile(`^(\S+::\S+)\s+(` + pytestStatuses + `)\b`)
	pytestDurationLine = regexp.MustCompile(`^([\d.]+)s\s+call\s+(\S+::\S+)`)
)

type pytestOptions struct {
	Input string `yaml:"input"`
}

// pytestParser reads verbose and xdist pytest output. Each test yields one
// record with its file, name, status and, when reported, call duration.
type pytestParser struct {
	input string
}

func newPytest(opts map[string]any) (Parser, error) {
	var o pytestOptions
	if err := decodeOptions(opts, &o); err != nil {
		return nil, err
	}
	if err := checkInput(o.Input); err != nil {
		return nil, err
	}
	return &pytestParser{input: o.Input}, nil
}

func (p *pytestParser) Parse(out Output) ([]model.MetricRecord, error) {
	var order []string
	byID := make(map[string]model.MetricRecord)
	durations := make(map[string]float64)

	set := func(nodeID, status string) {
		rec, seen := byID[nodeID]
		if !seen {
			file, name, _ := strings.Cut(nodeID, "::")
			rec = model.MetricRecord{"file": file, "test_name": name}
			byID[nodeID] = rec
			order = append(order, nodeID)
		}
		rec["status"] = strings.ToLower(status)
	}

	scanner := bufio.NewScanner(strings.NewReader(selectInput(out, p.input)))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if m := pytestXdistLine.FindStringSubmatch(line); m != nil {
			set(m[2], m[1])
			continue
		}
		if m := pytestVerboseLine.FindStringSubmatch(line); m != nil {
			set(m[1], m[2])
			continue
		}
		if m := pytestDurationLine.FindStringSubmatch(line); m != nil {
			if d, err := strconv.ParseFloat(m[1], 64); err == nil {
				durations[m[2]] = d
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	records := make([]model.MetricRecord, 0, len(order))
	for _, id := range order {
		rec := byID[id]
		if d, ok := durations[id]; ok {
			rec["duration"] = d
		}
		records = append(records, rec)
	}
	return records, nil
}
