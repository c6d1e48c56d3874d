package agent

import (
	"fmt"
	"time"
)

// RoundBudgetError reports that the reasoning process kept requesting tools past the budget.
type RoundBudgetError struct {
	Rounds int
}

func (e *RoundBudgetError) Error() string {
	return fmt.Sprintf("tool-call round budget of %d exhausted", e.Rounds)
}

// TimeoutError reports that a response did not complete before its deadline.
type TimeoutError struct {
	Elapsed time.Duration
	Cause   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("response timed out after %s", e.Elapsed.Round(time.Millisecond))
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}
