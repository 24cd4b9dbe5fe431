package merge

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultTolerance absorbs floating point noise around the target score.
var DefaultTolerance = decimal.NewFromFloat(1e-5)

// InvalidToleranceError reports a negative selector tolerance.
type InvalidToleranceError struct {
	Tolerance decimal.Decimal
}

func (e *InvalidToleranceError) Error() string {
	return fmt.Sprintf("selector tolerance must not be negative, got %s", e.Tolerance)
}

// SelectByScore returns the records whose Total_Score lies within tolerance
// of target. The filter is pure: inputs are not mutated and their ordering
// is preserved.
func SelectByScore(records []Record, target, tolerance decimal.Decimal) ([]Record, error) {
	if tolerance.IsNegative() {
		return nil, &InvalidToleranceError{Tolerance: tolerance}
	}

	selected := make([]Record, 0)
	for _, rec := range records {
		if rec.TotalScore.Sub(target).Abs().LessThanOrEqual(tolerance) {
			selected = append(selected, rec)
		}
	}
	return selected, nil
}
