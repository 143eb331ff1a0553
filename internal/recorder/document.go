package recorder

import (
	"time"

	"github.com/specialistvlad/evalgrid/internal/model"
)

// runDocument is the on-disk shape of run_result.json. Durations are
// fractional seconds.
type runDocument struct {
	RunID          string         `json:"run_id"`
	Plan           string         `json:"plan"`
	OverallSuccess bool           `json:"overall_success"`
	Cancelled      bool           `json:"cancelled"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Duration       float64        `json:"duration_seconds"`
	Order          []string       `json:"order"`
	Counts         map[string]int `json:"counts"`
	Steps          []stepDocument `json:"steps"`
}

type stepDocument struct {
	Name          string               `json:"name"`
	Description   string               `json:"description,omitempty"`
	Status        string               `json:"status"`
	SkipReason    string               `json:"skip_reason,omitempty"`
	Error         string               `json:"error,omitempty"`
	StartedAt     *time.Time           `json:"started_at,omitempty"`
	FinishedAt    *time.Time           `json:"finished_at,omitempty"`
	Duration      float64              `json:"duration_seconds"`
	Commands      []commandDocument    `json:"commands"`
	ParsedRecords []model.MetricRecord `json:"parsed_records"`
	ParseErrors   []string             `json:"parse_errors,omitempty"`
}

type commandDocument struct {
	Command           string  `json:"command"`
	ExitCode          int     `json:"exit_code"`
	Success           bool    `json:"success"`
	Duration          float64 `json:"duration_seconds"`
	Attempts          int     `json:"attempts"`
	TimedOut          bool    `json:"timed_out,omitempty"`
	Cancelled         bool    `json:"cancelled,omitempty"`
	Skipped           bool    `json:"skipped,omitempty"`
	SkipReason        string  `json:"skip_reason,omitempty"`
	Cleanup           bool    `json:"cleanup,omitempty"`
	ContinueOnFailure bool    `json:"continue_on_failure,omitempty"`
	RecoveryStep      string  `json:"recovery_step,omitempty"`
	Error             string  `json:"error,omitempty"`
	Stdout            string  `json:"stdout"`
	Stderr            string  `json:"stderr"`
}

func newRunDocument(res *model.RunResult) runDocument {
	doc := runDocument{
		RunID:          res.RunID,
		Plan:           res.PlanName,
		OverallSuccess: res.OverallSuccess,
		Cancelled:      res.Cancelled,
		StartedAt:      res.StartedAt,
		FinishedAt:     res.FinishedAt,
		Order:          res.Order,
		Counts:         make(map[string]int),
		Steps:          []stepDocument{},
	}
	if !res.StartedAt.IsZero() && !res.FinishedAt.IsZero() {
		doc.Duration = res.FinishedAt.Sub(res.StartedAt).Seconds()
	}
	for status, n := range res.Counts() {
		doc.Counts[status.String()] = n
	}
	for _, s := range res.Ordered() {
		doc.Steps = append(doc.Steps, newStepDocument(s))
	}
	return doc
}

func newStepDocument(s *model.StepResult) stepDocument {
	doc := stepDocument{
		Name:          s.StepName,
		Description:   s.Description,
		Status:        s.Status.String(),
		SkipReason:    s.SkipReason,
		Error:         s.Error,
		Duration:      s.Duration().Seconds(),
		Commands:      []commandDocument{},
		ParsedRecords: s.ParsedRecords,
		ParseErrors:   s.ParseErrors,
	}
	if doc.ParsedRecords == nil {
		doc.ParsedRecords = []model.MetricRecord{}
	}
	if !s.StartedAt.IsZero() {
		started := s.StartedAt
		doc.StartedAt = &started
	}
	if !s.FinishedAt.IsZero() {
		finished := s.FinishedAt
		doc.FinishedAt = &finished
	}
	for _, c := range s.Commands {
		doc.Commands = append(doc.Commands, commandDocument{
			Command:           c.Command,
			ExitCode:          c.ExitCode,
			Success:           c.Success,
			Duration:          c.Duration.Seconds(),
			Attempts:          c.AttemptsUsed,
			TimedOut:          c.TimedOut,
			Cancelled:         c.Cancelled,
			Skipped:           c.Skipped,
			SkipReason:        c.SkipReason,
			Cleanup:           c.Cleanup,
			ContinueOnFailure: c.ContinueOnFailure,
			RecoveryStep:      c.RecoveryStep,
			Error:             c.Error,
			Stdout:            c.Stdout,
			Stderr:            c.Stderr,
		})
	}
	return doc
}
