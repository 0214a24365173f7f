package ranking

import (
	"errors"

	"github.com/kmuhangi/elimu-api/internal/domain"
)

// ErrThresholdsUnordered is returned when the three thresholds do not
// satisfy the strict ordering promotion > repeat > drop.
var ErrThresholdsUnordered = errors.New("thresholds must satisfy promotion > repeat > drop")

// Thresholds carries a tenant's three promotion cut-offs, as percentages.
// The strict ordering promotion > repeat > drop partitions averages into
// three non-overlapping zones.
type Thresholds struct {
	Promotion float64
	Repeat    float64
	Drop      float64
}

// Validate checks the strict ordering of the thresholds.
func (t Thresholds) Validate() error {
	if !(t.Promotion > t.Repeat && t.Repeat > t.Drop) {
		return ErrThresholdsUnordered
	}
	return nil
}

// Classify maps a final average onto a promotion outcome.
//
// Boundary rule: each comparison is inclusive at the lower edge of the
// upper zone, so an average exactly at the promotion threshold is
// Promoted, and an average exactly at the drop threshold is Repeat.
// Only averages strictly below the drop threshold are Dropped. The band
// between the repeat and drop thresholds folds into Repeat. This is the
// single consistent reading of the three-threshold model used across
// the engine; both boundary directions are covered by tests.
func Classify(average float64, t Thresholds) domain.PromotionOutcome {
	switch {
	case average >= t.Promotion:
		return domain.OutcomePromoted
	case average >= t.Drop:
		return domain.OutcomeRepeat
	default:
		return domain.OutcomeDropped
	}
}
