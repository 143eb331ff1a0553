package executor

import (
	"path/filepath"
	"sort"
	"strings"
)

// MergeEnv overlays layers onto a base environment in "KEY=VALUE" form.
// Later layers win; keys a layer does not mention pass through. The result
// is sorted by key.
func MergeEnv(base []string, layers ...map[string]string) []string {
	merged := make(map[string]string, len(base))
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		merged[k] = v
	}
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+merged[k])
	}
	return out
}

// ResolveCwd resolves a command's cwd against the plan working directory.
func ResolveCwd(workDir, cwd string) string {
	if workDir == "" {
		workDir = "."
	}
	switch {
	case cwd == "":
		return workDir
	case filepath.IsAbs(cwd):
		return cwd
	default:
		return filepath.Join(workDir, cwd)
	}
}
