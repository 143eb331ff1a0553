package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/specialistvlad/evalgrid/internal/model"
	"github.com/tidwall/gjson"
)

type jsonOptions struct {
	// File reads the document from disk instead of the command output.
	File  string `yaml:"file"`
	Input string `yaml:"input"`
	// Path selects the list of entries; empty means the document root.
	Path string `yaml:"path"`
	// Fields maps record keys to paths inside each entry.
	Fields map[string]string `yaml:"fields"`
}

// jsonParser extracts records from a JSON document with gjson paths.
type jsonParser struct {
	opts jsonOptions
	keys []string
}

func newJSON(opts map[string]any) (Parser, error) {
	var o jsonOptions
	if err := decodeOptions(opts, &o); err != nil {
		return nil, err
	}
	if err := checkInput(o.Input); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(o.Fields))
	for k := range o.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &jsonParser{opts: o, keys: keys}, nil
}

func (p *jsonParser) Parse(out Output) ([]model.MetricRecord, error) {
	doc, err := p.document(out)
	if err != nil {
		return nil, err
	}
	if !gjson.Valid(doc) {
		return nil, errors.New("malformed JSON")
	}

	root := gjson.Parse(doc)
	if p.opts.Path != "" {
		root = root.Get(p.opts.Path)
		if !root.Exists() {
			return nil, fmt.Errorf("path '%s' not found", p.opts.Path)
		}
	}
	if !root.IsArray() {
		return nil, fmt.Errorf("path '%s' does not select a list", p.opts.Path)
	}

	entries := root.Array()
	records := make([]model.MetricRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, p.record(entry))
	}
	return records, nil
}

func (p *jsonParser) document(out Output) (string, error) {
	if p.opts.File == "" {
		return selectInput(out, p.opts.Input), nil
	}
	path := p.opts.File
	if !filepath.IsAbs(path) && out.Dir != "" {
		path = filepath.Join(out.Dir, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(raw), nil
}

func (p *jsonParser) record(entry gjson.Result) model.MetricRecord {
	if len(p.keys) == 0 {
		if m, ok := entry.Value().(map[string]any); ok {
			return model.MetricRecord(m)
		}
		return model.MetricRecord{"value": entry.Value()}
	}
	rec := make(model.MetricRecord, len(p.keys))
	for _, k := range p.keys {
		if v := entry.Get(p.opts.Fields[k]); v.Exists() {
			rec[k] = v.Value()
		}
	}
	return rec
}
