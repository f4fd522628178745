package upgrade

import (
	"context"
	"fmt"
)

// StepFunc is one idempotent upgrade routine. It must be safe to execute
// against a schema it has already been applied to, because a half-completed
// run is never resumed from a checkpoint.
type StepFunc struct {
	Name string
	Run  func(ctx context.Context) error
}

// Step is a declared (from, to) version range with an ordered list of
// upgrade functions. Steps run in declared order, functions within a step
// run in declared order too.
type Step struct {
	From  string
	To    string
	Funcs []StepFunc
}

// validateSteps ensures every range parses and the table is declared in
// ascending, non-overlapping order (each From >= previous To). Gaps between
// ranges are legal; the walk keys on To only.
func validateSteps(steps []Step) error {
	var prevTo string
	for i, step := range steps {
		from, err := parseVersion(step.From)
		if err != nil {
			return fmt.Errorf("step %d: from: %w", i, err)
		}

		to, err := parseVersion(step.To)
		if err != nil {
			return fmt.Errorf("step %d: to: %w", i, err)
		}

		if !from.LessThan(to) {
			return fmt.Errorf("step %d: range %s to %s is not ascending", i, step.From, step.To)
		}

		if prevTo != "" {
			prev, _ := parseVersion(prevTo)
			if from.LessThan(prev) {
				return fmt.Errorf("step %d: range %s to %s overlaps previous step ending at %s",
					i, step.From, step.To, prevTo)
			}
		}

		prevTo = step.To
	}

	return nil
}
