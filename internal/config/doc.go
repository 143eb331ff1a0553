// Package config defines the format-agnostic plan model for an evaluation
// run, along with the Loader interface implemented by the YAML and HCL
// loaders.
//
// The `config.Plan` is the single source of truth for the `dag`, `condition`,
// `parser` and `scheduler` packages. Concrete loaders live in separate
// packages and only translate their syntax into this model.
package config
