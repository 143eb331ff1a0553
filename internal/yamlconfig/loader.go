// Package yamlconfig loads evaluation plans written in YAML.
package yamlconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/evalgrid/internal/config"
	"github.com/specialistvlad/evalgrid/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// Loader implements config.Loader for YAML plans.
type Loader struct {
	// Lookup resolves ${VAR} references; nil means the process environment.
	Lookup func(string) (string, bool)
}

// NewLoader creates a YAML loader that substitutes from the process
// environment.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load reads and decodes the plan at path. Unknown keys are errors.
func (l *Loader) Load(ctx context.Context, path string) (*config.Plan, error) {
	logger := ctxlog.FromContext(ctx).With("path", path)
	logger.Debug("Loading YAML plan.")

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	plan, err := l.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if plan.Name == "" {
		plan.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	logger.Debug("YAML plan loaded.", "steps", len(plan.Steps), "parsers", len(plan.Parsers))
	return plan, nil
}

// Parse decodes a YAML document, substitutes environment references and
// applies defaults.
func (l *Loader) Parse(raw []byte) (*config.Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var plan config.Plan
	if err := dec.Decode(&plan); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("plan is empty")
		}
		return nil, err
	}
	config.ExpandPlan(&plan, l.Lookup)
	plan.ApplyDefaults()
	return &plan, nil
}
