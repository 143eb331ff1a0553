package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// decodeOptions binds loosely typed options onto a typed struct using its
// yaml tags. Unknown keys are rejected.
func decodeOptions(opts map[string]any, out any) error {
	if len(opts) == 0 {
		return nil
	}
	raw, err := yaml.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encoding options: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

const (
	inputStdout   = "stdout"
	inputStderr   = "stderr"
	inputCombined = "combined"
)

func checkInput(input string) error {
	switch input {
	case "", inputStdout, inputStderr, inputCombined:
		return nil
	}
	return fmt.Errorf("input must be one of stdout, stderr, combined; got %q", input)
}

func selectInput(out Output, input string) string {
	switch input {
	case inputStderr:
		return out.Stderr
	case inputCombined:
		return out.Combined()
	default:
		return out.Stdout
	}
}

// convertValue turns numeric captures into int or float64 and leaves
// everything else as a string.
func convertValue(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
