package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/specialistvlad/evalgrid/internal/ctxlog"
	"github.com/specialistvlad/evalgrid/internal/model"
)

const (
	ResultFile  = "run_result.json"
	CommandLog  = "executed_commands.log"
	SummaryFile = "summary.txt"
)

// Recorder writes run artifacts into a directory.
type Recorder struct {
	dir string
}

// New creates a Recorder rooted at dir. The directory is created on Write.
func New(dir string) *Recorder {
	return &Recorder{dir: dir}
}

// Dir is the output directory.
func (r *Recorder) Dir() string {
	return r.dir
}

// Write persists res and returns the paths it wrote.
func (r *Recorder) Write(ctx context.Context, res *model.RunResult) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", r.dir, err)
	}

	writers := []struct {
		name  string
		write func(io.Writer, *model.RunResult) error
	}{
		{ResultFile, WriteJSON},
		{CommandLog, WriteCommandLog},
		{SummaryFile, WriteSummary},
	}

	paths := make([]string, 0, len(writers))
	for _, w := range writers {
		path := filepath.Join(r.dir, w.name)
		if err := writeFile(path, res, w.write); err != nil {
			return paths, err
		}
		logger.Debug("Wrote run artifact.", "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, res *model.RunResult, write func(io.Writer, *model.RunResult) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	if err := write(f, res); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteJSON encodes the run result as indented JSON.
func WriteJSON(w io.Writer, res *model.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newRunDocument(res))
}

// WriteCommandLog writes one block per executed or skipped command, in
// plan order.
func WriteCommandLog(w io.Writer, res *model.RunResult) error {
	var b strings.Builder
	for _, s := range res.Ordered() {
		for i, c := range s.Commands {
			kind := "command"
			if c.Cleanup {
				kind = "cleanup"
			}
			fmt.Fprintf(&b, "[%s] %s #%d (%s): %s\n", s.StepName, kind, i+1, commandOutcome(c), c.Command)
			if c.Skipped {
				fmt.Fprintf(&b, "  skipped: %s\n", c.SkipReason)
				continue
			}
			fmt.Fprintf(&b, "  exit_code=%d attempts=%d duration=%s\n", c.ExitCode, c.AttemptsUsed, c.Duration.Round(time.Millisecond))
			if c.Error != "" {
				fmt.Fprintf(&b, "  error: %s\n", c.Error)
			}
			writeStream(&b, "stdout", c.Stdout)
			writeStream(&b, "stderr", c.Stderr)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeStream(b *strings.Builder, label, content string) {
	content = strings.TrimRight(content, "\n")
	if content == "" {
		return
	}
	fmt.Fprintf(b, "  --- %s ---\n", label)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(b, "  %s\n", line)
	}
}

func commandOutcome(c model.CommandResult) string {
	switch {
	case c.Skipped:
		return "skipped"
	case c.Cancelled:
		return "cancelled"
	case c.TimedOut:
		return "timed out"
	case c.Success:
		return "ok"
	default:
		return "failed"
	}
}

// WriteSummary writes a human-readable table of step outcomes.
func WriteSummary(w io.Writer, res *model.RunResult) error {
	outcome := "SUCCESS"
	switch {
	case res.Cancelled:
		outcome = "CANCELLED"
	case !res.OverallSuccess:
		outcome = "FAILED"
	}

	fmt.Fprintf(w, "Plan:    %s\n", res.PlanName)
	fmt.Fprintf(w, "Run ID:  %s\n", res.RunID)
	fmt.Fprintf(w, "Outcome: %s\n", outcome)
	if !res.StartedAt.IsZero() && !res.FinishedAt.IsZero() {
		fmt.Fprintf(w, "Elapsed: %s\n", res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tSTATUS\tDURATION\tRECORDS\tDETAIL")
	for _, s := range res.Ordered() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			s.StepName, s.Status, s.Duration().Round(time.Millisecond), len(s.ParsedRecords), stepDetail(s))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts := res.Counts()
	fmt.Fprintln(w)
	_, err := fmt.Fprintf(w, "%d succeeded, %d failed, %d skipped, %d skipped (dependency failed)\n",
		counts[model.StatusSuccess], counts[model.StatusFailed],
		counts[model.StatusSkipped], counts[model.StatusSkippedDependencyFailed])
	return err
}

func stepDetail(s *model.StepResult) string {
	switch {
	case s.Error != "":
		return s.Error
	case s.SkipReason != "":
		return s.SkipReason
	case len(s.ParseErrors) > 0:
		return fmt.Sprintf("%d parse error(s)", len(s.ParseErrors))
	}
	return ""
}
