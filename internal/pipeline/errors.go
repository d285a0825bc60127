package pipeline

import (
	"fmt"

	"github.com/KaramelBytes/mdpl-cli/internal/analysis"
)

// LoadError indicates the input could not be opened or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Path, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError indicates the table could not be written.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string { return fmt.Sprintf("save %s: %v", e.Path, e.Err) }

func (e *SaveError) Unwrap() error { return e.Err }

// InvalidStrategyError indicates an imputation strategy outside mean, median and mode.
type InvalidStrategyError struct{ Strategy string }

func (e *InvalidStrategyError) Error() string {
	return fmt.Sprintf("invalid imputation strategy %q: use mean, median or mode", e.Strategy)
}

func (e *InvalidStrategyError) Unwrap() error { return analysis.ErrUnknownStrategy }

// UnknownColumnError indicates a column name that is not in the table.
type UnknownColumnError struct{ Column string }

func (e *UnknownColumnError) Error() string { return fmt.Sprintf("unknown column %q", e.Column) }

// NonNumericColumnError indicates a numeric operation requested on a text column.
type NonNumericColumnError struct{ Column string }

func (e *NonNumericColumnError) Error() string {
	return fmt.Sprintf("column %q is not numeric", e.Column)
}

// DegenerateColumnError indicates a numeric column with zero spread, which has no z-score.
// Only returned when strict normalization is enabled.
type DegenerateColumnError struct{ Column string }

func (e *DegenerateColumnError) Error() string {
	return fmt.Sprintf("column %q has zero standard deviation", e.Column)
}
