package query

import (
	"fmt"

	"github.com/kailas-cloud/carequery/internal/domain"
)

// stageTracker enforces the pipeline's state machine for a single query.
type stageTracker struct {
	current domain.Stage
}

func newStageTracker() *stageTracker {
	return &stageTracker{current: domain.StageIdle}
}

func (t *stageTracker) Current() domain.Stage { return t.current }

func (t *stageTracker) Advance(next domain.Stage) {
	if !t.current.CanTransition(next) {
		panic(fmt.Sprintf("query: illegal stage transition %s -> %s", t.current, next))
	}
	t.current = next
}

// Fail moves to failed and returns err wrapped with the stage it failed in.
func (t *stageTracker) Fail(err error) error {
	failed := t.current
	if failed.CanTransition(domain.StageFailed) {
		t.current = domain.StageFailed
	}
	return domain.NewStageError(failed, err)
}
