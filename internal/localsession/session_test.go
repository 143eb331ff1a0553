package localsession

import (
	"context"
	"testing"

	"github.com/specialistvlad/evalgrid/internal/condition"
	"github.com/specialistvlad/evalgrid/internal/config"
	"github.com/specialistvlad/evalgrid/internal/dag"
	"github.com/specialistvlad/evalgrid/internal/model"
	"github.com/specialistvlad/evalgrid/internal/scheduler"
	"github.com/specialistvlad/evalgrid/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a plan", func(t *testing.T) {
		_, err := (&SessionFactory{}).NewSession(ctx, session.Request{})
		assert.Error(t, err)
	})

	t.Run("wires a runnable scheduler", func(t *testing.T) {
		// --- Arrange ---
		off := false
		plan, err := dag.Build([]*config.Step{
			{Name: "noop", Enabled: &off, Commands: []*config.Command{{Command: "true"}}},
		})
		require.NoError(t, err)
		cond, err := condition.New(nil, plan.Order())
		require.NoError(t, err)

		// --- Act ---
		sess, err := (&SessionFactory{}).NewSession(ctx, session.Request{
			Plan:       plan,
			Conditions: cond,
			Scheduler:  scheduler.Options{PlanName: "p"},
		})
		require.NoError(t, err)
		defer sess.Close(ctx)
		sched, err := sess.GetScheduler()
		require.NoError(t, err)
		result, err := sched.Run(ctx)

		// --- Assert ---
		require.NoError(t, err)
		assert.Equal(t, model.StatusSkipped, result.Steps["noop"].Status)
		status, ok := sess.Graph().NodeStatus(ctx, "noop")
		assert.True(t, ok)
		assert.Equal(t, model.StatusSkipped, status)
	})
}
