package allocation

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrInvalidInput       = errors.New("invalid allocation input")
	ErrInvariantViolation = errors.New("allocation invariant violated")
)

// Validation rules reported in InvalidInputError.Rule.
const (
	RuleEmptyInput          = "empty_input"
	RuleMissingZeroLevel    = "missing_zero_level"
	RuleNonIncreasingLevels = "non_increasing_levels"
	RuleRowCountMismatch    = "row_count_mismatch"
	RuleColumnCountMismatch = "column_count_mismatch"
	RuleNonFiniteValue      = "non_finite_value"
	RuleNonzeroBaseProfit   = "nonzero_base_profit"
	RuleLimitsExceeded      = "limits_exceeded"
)

// InvalidInputError reports a structural problem with the budget ladder or
// the profit matrix. It is raised before any table is built.
type InvalidInputError struct {
	Rule   string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input (%s): %s", e.Rule, e.Reason)
}

// Is lets callers match any InvalidInputError with ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(rule, format string, args ...interface{}) error {
	return &InvalidInputError{Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

// InvariantViolationError signals a solver or reconstructor bug. It is never
// caused by bad input that passed validation.
type InvariantViolationError struct {
	Stage  string
	Detail string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("internal invariant violated in %s: %s", e.Stage, e.Detail)
}

// Is lets callers match any InvariantViolationError with ErrInvariantViolation.
func (e *InvariantViolationError) Is(target error) bool {
	return target == ErrInvariantViolation
}

func violation(stage, format string, args ...interface{}) error {
	return &InvariantViolationError{Stage: stage, Detail: fmt.Sprintf(format, args...)}
}
