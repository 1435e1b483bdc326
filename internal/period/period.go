// Package period provides the calendar arithmetic used for due dates and billing periods.
// All dates are civil dates stored as UTC midnight.
package period

import (
	"fmt"
	"strings"
	"time"

	"github.com/fkhayef/schoolfinance/pkg/apperr"
)

var ErrInvalidMonth = apperr.New(apperr.KindValidation, "INVALID_PERIOD", "period must be formatted as YYYY-MM")

// Month identifies a calendar month
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth builds a Month, rejecting out-of-range values
func NewMonth(year, month int) (Month, error) {
	if month < 1 || month > 12 || year < 1900 || year > 9999 {
		return Month{}, ErrInvalidMonth.Withf("invalid period %04d-%02d", year, month)
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

// Parse reads a "YYYY-MM" string
func Parse(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, ErrInvalidMonth.Withf("invalid period %q, expected YYYY-MM", s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MarshalJSON encodes the month as "YYYY-MM"
func (m Month) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM" string
func (m *Month) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Of returns the month containing t
func Of(t time.Time) Month {
	t = t.UTC()
	return Month{Year: t.Year(), Month: t.Month()}
}

// String formats the month as "YYYY-MM"
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// IsZero reports whether m is unset
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// AddMonths moves n months forward (or back when n < 0)
func (m Month) AddMonths(n int) Month {
	idx := m.Year*12 + int(m.Month) - 1 + n
	return Month{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// Next returns the following month
func (m Month) Next() Month {
	return m.AddMonths(1)
}

// Before reports whether m is strictly earlier than o
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// MonthsUntil counts months from m to o, inclusive of both ends
func (m Month) MonthsUntil(o Month) int {
	return (o.Year*12 + int(o.Month)) - (m.Year*12 + int(m.Month)) + 1
}

// Start returns the first instant of the month
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant of the following month
func (m Month) End() time.Time {
	return m.Next().Start()
}

// Contains reports whether t falls inside the month
func (m Month) Contains(t time.Time) bool {
	return Of(t) == m
}

// Days returns the number of days in the month
func (m Month) Days() int {
	return m.End().AddDate(0, 0, -1).Day()
}

// Day returns the given day of the month, clamped to the month's last day
func (m Month) Day(day int) time.Time {
	if day < 1 {
		day = 1
	}
	if last := m.Days(); day > last {
		day = last
	}
	return time.Date(m.Year, m.Month, day, 0, 0, 0, 0, time.UTC)
}

// Date truncates t to its civil date at UTC midnight
func Date(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped moves t by n months keeping its day of month, clamped to the target
// month's length (Jan 31 + 1 month = Feb 28/29)
func AddMonthsClamped(t time.Time, n int) time.Time {
	return Of(t).AddMonths(n).Day(t.UTC().Day())
}

// DaysBetween returns the number of whole calendar days from a to b (negative when b is earlier)
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}
