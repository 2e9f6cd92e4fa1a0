package rocq

// goalattacher.go — GoalAttacher: fetches the proof/goals snapshot before
// each proof step and the referenced-term context. The per-step goals
// requests are independent of each other, so they fan out across a
// bounded worker pool rather than running serially.

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultGoalConcurrency bounds how many concurrent proof/goals requests
// GoalAttacher issues against a single ServerGateway.
const DefaultGoalConcurrency = 8

// GoalAttacher fills in Proof.Context and each ProofStep's Goals/Context.
type GoalAttacher struct {
	gw          ServerGateway
	uri         string
	tc          *TermContext
	concurrency int
}

// NewGoalAttacher builds a GoalAttacher. concurrency <= 0 means
// DefaultGoalConcurrency.
func NewGoalAttacher(gw ServerGateway, uri string, tc *TermContext, concurrency int) *GoalAttacher {
	if concurrency <= 0 {
		concurrency = DefaultGoalConcurrency
	}
	return &GoalAttacher{gw: gw, uri: uri, tc: tc, concurrency: concurrency}
}

// Attach populates every proof in proofs in place. allSteps is the full
// document step sequence that stepIndex values index into. A single
// step's goals query failing does not abort the batch — it is recorded
// on that ProofStep's GoalAnswer.Error instead, mirroring how a real
// coq-lsp session degrades one sentence at a time rather than all at
// once.
func (ga *GoalAttacher) Attach(ctx context.Context, allSteps []Step, proofs []Proof) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ga.concurrency)

	for pi := range proofs {
		p := &proofs[pi]
		opener := allSteps[p.OpenerStepIndex]
		p.Context = ga.tc.StepContext(opener, nil)

		for si := range p.Steps {
			step := &p.Steps[si]
			src := allSteps[step.stepIndex]
			step.Context = ga.tc.StepContext(src, nil)

			g.Go(func() error {
				ans, err := ga.gw.Goals(ctx, ga.uri, src.Range.Start)
				if err != nil {
					msg := err.Error()
					step.Goals = GoalAnswer{Position: src.Range.Start, Error: &msg}
					return nil
				}
				if ans != nil {
					step.Goals = *ans
				}
				return nil
			})
		}
	}

	return g.Wait()
}
