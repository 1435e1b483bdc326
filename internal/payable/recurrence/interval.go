package recurrence

import "time"

// MonthlyStrategy repeats every calendar month
type MonthlyStrategy struct{}

// Kind returns the recurrence identifier
func (s *MonthlyStrategy) Kind() Kind {
	return KindMonthly
}

// Step returns the number of months between occurrences
func (s *MonthlyStrategy) Step() int {
	return 1
}

// Occurrences returns the following monthly due dates
func (s *MonthlyStrategy) Occurrences(anchor time.Time, count int, until *time.Time) []time.Time {
	return occurrences(s.Step(), anchor, count, until)
}

// QuarterlyStrategy repeats every three months
type QuarterlyStrategy struct{}

// Kind returns the recurrence identifier
func (s *QuarterlyStrategy) Kind() Kind {
	return KindQuarterly
}

// Step returns the number of months between occurrences
func (s *QuarterlyStrategy) Step() int {
	return 3
}

// Occurrences returns the following quarterly due dates
func (s *QuarterlyStrategy) Occurrences(anchor time.Time, count int, until *time.Time) []time.Time {
	return occurrences(s.Step(), anchor, count, until)
}

// YearlyStrategy repeats on the same date every year
type YearlyStrategy struct{}

// Kind returns the recurrence identifier
func (s *YearlyStrategy) Kind() Kind {
	return KindYearly
}

// Step returns the number of months between occurrences
func (s *YearlyStrategy) Step() int {
	return 12
}

// Occurrences returns the following yearly due dates
func (s *YearlyStrategy) Occurrences(anchor time.Time, count int, until *time.Time) []time.Time {
	return occurrences(s.Step(), anchor, count, until)
}
