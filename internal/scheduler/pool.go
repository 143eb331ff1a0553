package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/evalgrid/internal/ctxlog"
	"github.com/specialistvlad/evalgrid/internal/node"
	"golang.org/x/sync/errgroup"
)

// runParallel feeds nodes to a bounded pool of workers. A node enters the
// ready queue once its last predecessor is terminal.
func (r *run) runParallel(ctx context.Context, nodes []*node.Node) error {
	logger := ctxlog.FromContext(ctx)

	readyChan := make(chan *node.Node, len(nodes))
	var wg sync.WaitGroup
	wg.Add(len(nodes))

	var roots []*node.Node
	for _, n := range nodes {
		preds, err := r.graph.PredecessorsOf(ctx, n.Name)
		if err != nil {
			return fmt.Errorf("preparing step '%s': %w", n.Name, err)
		}
		n.SetDepCount(int32(len(preds)))
		if len(preds) == 0 {
			roots = append(roots, n)
		}
	}
	logger.Debug("Found root steps.", "count", len(roots))
	for _, n := range roots {
		n.Release(func() { readyChan <- n })
	}

	go func() {
		wg.Wait()
		close(readyChan)
	}()

	var eg errgroup.Group
	logger.Debug("Starting worker pool.", "workers", r.opts.Workers)
	for i := 0; i < r.opts.Workers; i++ {
		workerID := i
		eg.Go(func() error {
			return r.worker(ctx, readyChan, &wg, workerID)
		})
	}
	return eg.Wait()
}

// worker drains the ready queue. Every node it takes is resolved to a
// terminal state and its dependents are released before wg is signalled,
// so close(readyChan) never races a send.
func (r *run) worker(ctx context.Context, readyChan chan *node.Node, wg *sync.WaitGroup, workerID int) error {
	logger := ctxlog.FromContext(ctx).With("workerID", workerID)
	logger.Debug("Worker started.")

	var errs []error
	for n := range readyChan {
		workerCtx := ctxlog.WithLogger(ctx, logger)
		logger.Debug("Worker picked up step.", "step", n.Name)
		if err := r.process(workerCtx, n); err != nil {
			errs = append(errs, err)
		}

		dependents, err := r.graph.DependentsOf(ctx, n.Name)
		if err != nil {
			errs = append(errs, err)
		}
		for _, dependent := range dependents {
			if dependent.DecrementDepCount() == 0 {
				logger.Debug("Unlocking dependent step.", "step", n.Name, "dependent", dependent.Name)
				dependent.Release(func() { readyChan <- dependent })
			}
		}
		wg.Done()
	}
	logger.Debug("Worker finished.")
	return errors.Join(errs...)
}
