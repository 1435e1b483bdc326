package period

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	m, err := Parse("2025-02")
	require.NoError(t, err)
	assert.Equal(t, Month{Year: 2025, Month: time.February}, m)
	assert.Equal(t, "2025-02", m.String())

	for _, bad := range []string{"2025-13", "2025/02", "", "25-2"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidMonth, bad)
	}
}

func TestNewMonth(t *testing.T) {
	_, err := NewMonth(2025, 0)
	assert.ErrorIs(t, err, ErrInvalidMonth)
	m, err := NewMonth(2025, 12)
	require.NoError(t, err)
	assert.Equal(t, time.December, m.Month)
}

func TestMonthArithmetic(t *testing.T) {
	dec := Month{Year: 2025, Month: time.December}
	assert.Equal(t, Month{Year: 2026, Month: time.January}, dec.Next())
	assert.Equal(t, Month{Year: 2025, Month: time.January}, dec.AddMonths(-11))
	assert.Equal(t, Month{Year: 2024, Month: time.December}, dec.AddMonths(-12))
	assert.True(t, dec.AddMonths(-1).Before(dec))
	assert.False(t, dec.Before(dec))
	assert.Equal(t, 3, Month{Year: 2025, Month: time.February}.MonthsUntil(Month{Year: 2025, Month: time.April}))
	assert.Equal(t, 0, dec.MonthsUntil(dec.AddMonths(-1)))
}

func TestDayClamps(t *testing.T) {
	feb := Month{Year: 2025, Month: time.February}
	assert.Equal(t, date(2025, 2, 10), feb.Day(10))
	assert.Equal(t, date(2025, 2, 28), feb.Day(31))
	assert.Equal(t, date(2024, 2, 29), Month{Year: 2024, Month: time.February}.Day(30))
	assert.Equal(t, 31, Month{Year: 2025, Month: time.January}.Days())
}

func TestAddMonthsClamped(t *testing.T) {
	assert.Equal(t, date(2025, 2, 28), AddMonthsClamped(date(2025, 1, 31), 1))
	assert.Equal(t, date(2025, 3, 31), AddMonthsClamped(date(2025, 1, 31), 2))
	assert.Equal(t, date(2026, 1, 5), AddMonthsClamped(date(2025, 1, 5), 12))
}

func TestDaysBetween(t *testing.T) {
	due := date(2025, 1, 10)
	assert.Equal(t, 5, DaysBetween(due, date(2025, 1, 15)))
	assert.Equal(t, 0, DaysBetween(due, due.Add(23*time.Hour)))
	assert.Equal(t, -1, DaysBetween(due, date(2025, 1, 9)))
	assert.Equal(t, 31, DaysBetween(due, date(2025, 2, 10)))
}

func TestContains(t *testing.T) {
	jan := Month{Year: 2025, Month: time.January}
	assert.True(t, jan.Contains(date(2025, 1, 31).Add(23*time.Hour)))
	assert.False(t, jan.Contains(date(2025, 2, 1)))
	assert.Equal(t, jan, Of(date(2025, 1, 15)))
}

func TestMonthJSON(t *testing.T) {
	type wrapper struct {
		Start *Month `json:"start,omitempty"`
	}

	data, err := json.Marshal(wrapper{Start: &Month{Year: 2025, Month: time.March}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2025-03"}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2026-11"}`), &w))
	require.NotNil(t, w.Start)
	assert.Equal(t, Month{Year: 2026, Month: time.November}, *w.Start)

	assert.Error(t, json.Unmarshal([]byte(`{"start":"nov"}`), &w))
}
