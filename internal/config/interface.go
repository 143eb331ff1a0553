package config

import "context"

// Loader is the interface for a format-specific plan loader.
type Loader interface {
	// Load reads the plan from the given path, translates it into the
	// format-agnostic model and applies defaults. Structural validation is
	// left to Validate.
	Load(ctx context.Context, path string) (*Plan, error)
}
