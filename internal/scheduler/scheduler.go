package scheduler

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/evalgrid/internal/condition"
	"github.com/specialistvlad/evalgrid/internal/ctxlog"
	"github.com/specialistvlad/evalgrid/internal/events"
	"github.com/specialistvlad/evalgrid/internal/graph"
	"github.com/specialistvlad/evalgrid/internal/model"
	"github.com/specialistvlad/evalgrid/internal/node"
	"github.com/specialistvlad/evalgrid/internal/parser"
)

// Options configures a run.
type Options struct {
	PlanName string
	// RunID identifies the run; a random UUID is used when empty.
	RunID string
	// Parallel selects the worker pool; otherwise steps run one at a time.
	Parallel bool
	// Workers bounds the pool in parallel mode. Values below 1 mean 1.
	Workers int
	// RunTimeout cancels the whole run once exceeded. Zero means no limit.
	RunTimeout time.Duration
	// WorkingDirectory anchors relative command cwd values.
	WorkingDirectory string
	// Environment is the plan's global environment layer.
	Environment map[string]string
	// BaseEnv is the lowest environment layer; nil means os.Environ().
	BaseEnv []string
	// Platform is the host description conditions see; zero means the
	// current host.
	Platform condition.Platform
}

// DefaultScheduler is the reference Scheduler implementation.
type DefaultScheduler struct {
	graph      graph.Graph
	runner     CommandRunner
	conditions *condition.Evaluator
	parsers    *parser.Set
	sink       events.Sink
	opts       Options
}

// New creates a scheduler over a populated graph. parsers and sink may be
// nil; conditions may be nil only if no step or command uses one.
func New(g graph.Graph, runner CommandRunner, conditions *condition.Evaluator, parsers *parser.Set, sink events.Sink, opts Options) *DefaultScheduler {
	if sink == nil {
		sink = events.Nop{}
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.BaseEnv == nil {
		opts.BaseEnv = os.Environ()
	}
	if opts.Platform == (condition.Platform{}) {
		opts.Platform = condition.HostPlatform()
	}
	return &DefaultScheduler{
		graph:      g,
		runner:     runner,
		conditions: conditions,
		parsers:    parsers,
		sink:       sink,
		opts:       opts,
	}
}

// run holds the state of a single Run call.
type run struct {
	*DefaultScheduler
	id        string
	cancelled atomic.Bool
}

// Run implements Scheduler.
func (s *DefaultScheduler) Run(ctx context.Context) (*model.RunResult, error) {
	r := &run{DefaultScheduler: s, id: s.opts.RunID}
	if r.id == "" {
		r.id = uuid.NewString()
	}
	ctx, logger := ctxlog.With(ctx, "run_id", r.id)

	nodes := s.graph.AllNodes(ctx)
	order := make([]string, len(nodes))
	for i, n := range nodes {
		order[i] = n.Name
	}
	result := model.NewRunResult(r.id, s.opts.PlanName, order)
	result.StartedAt = time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	if s.opts.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, s.opts.RunTimeout)
	}
	defer cancel()

	r.publish(ctx, events.Event{Kind: events.RunStarted, Plan: s.opts.PlanName})
	logger.Info("🚀 Starting run.", "plan", s.opts.PlanName, "steps", len(nodes), "parallel", s.opts.Parallel, "workers", s.opts.Workers)

	var err error
	if s.opts.Parallel {
		err = r.runParallel(runCtx, nodes)
	} else {
		err = r.runSequential(runCtx, nodes)
	}

	result.Steps = s.graph.Results(ctx)
	result.Cancelled = r.cancelled.Load()
	result.FinishedAt = time.Now()
	result.Finalize()

	r.publish(ctx, events.Event{
		Kind:     events.RunFinished,
		Plan:     s.opts.PlanName,
		Success:  result.OverallSuccess,
		Duration: result.FinishedAt.Sub(result.StartedAt),
	})
	counts := result.Counts()
	logger.Info("🏁 Run finished.",
		"success", result.OverallSuccess,
		"cancelled", result.Cancelled,
		"succeeded", counts[model.StatusSuccess],
		"failed", counts[model.StatusFailed],
		"skipped", counts[model.StatusSkipped]+counts[model.StatusSkippedDependencyFailed],
		"duration", result.FinishedAt.Sub(result.StartedAt),
	)
	return result, err
}

func (r *run) runSequential(ctx context.Context, nodes []*node.Node) error {
	var errs []error
	for _, n := range nodes {
		if err := r.process(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *run) publish(ctx context.Context, ev events.Event) {
	ev.RunID = r.id
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	r.sink.Publish(ctx, ev)
}
