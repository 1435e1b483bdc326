package recurrence

import (
	"time"

	"github.com/fkhayef/schoolfinance/internal/period"
	"github.com/fkhayef/schoolfinance/pkg/apperr"
)

// Kind defines how often a recurring payable repeats
type Kind string

const (
	KindMonthly   Kind = "monthly"
	KindQuarterly Kind = "quarterly"
	KindYearly    Kind = "yearly"
)

// MaxOccurrences caps how many future occurrences a recurring payable materializes
const MaxOccurrences = 12

// Strategy computes the due dates of the occurrences of a recurring payable
type Strategy interface {
	// Kind returns the recurrence identifier
	Kind() Kind

	// Step returns how many months separate two occurrences
	Step() int

	// Occurrences returns up to count due dates after anchor, stopping after until when set
	Occurrences(anchor time.Time, count int, until *time.Time) []time.Time
}

// ErrUnknownKind is returned for an unsupported recurrence
var ErrUnknownKind = apperr.New(apperr.KindValidation, "INVALID_RECURRENCE", "recurrence must be monthly, quarterly or yearly")

// Factory creates recurrence strategies based on the requested kind
type Factory struct{}

// NewFactory creates a new factory instance
func NewFactory() *Factory {
	return &Factory{}
}

// Create returns the strategy for kind
func (f *Factory) Create(kind Kind) (Strategy, error) {
	switch kind {
	case KindMonthly:
		return &MonthlyStrategy{}, nil
	case KindQuarterly:
		return &QuarterlyStrategy{}, nil
	case KindYearly:
		return &YearlyStrategy{}, nil
	default:
		return nil, ErrUnknownKind.Withf("unknown recurrence %q", kind)
	}
}

// Every occurrence is computed from the anchor so a day clamped in a short month
// (Jan 31 -> Feb 28) does not drift the following ones.
func occurrences(step int, anchor time.Time, count int, until *time.Time) []time.Time {
	if count <= 0 {
		return []time.Time{}
	}
	if count > MaxOccurrences {
		count = MaxOccurrences
	}

	dates := make([]time.Time, 0, count)
	for i := 1; i <= count; i++ {
		next := period.AddMonthsClamped(anchor, i*step)
		if until != nil && next.After(period.Date(*until)) {
			break
		}
		dates = append(dates, next)
	}
	return dates
}
