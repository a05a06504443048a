package core

import (
	"fmt"
	"time"
)

// Period is a calendar year-month, the unit of report filtering.
// The zero Period means "all time" and matches every record.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a YYYY-MM string.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// PeriodOf truncates a timestamp to its year-month.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) IsZero() bool { return p.Year == 0 && p.Month == 0 }

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Dated is a ledger record that can resolve its reporting period.
//
// Each ledger type declares an ordered candidate list of date fields; the
// first resolvable candidate decides the period. A record with no
// resolvable candidate reports ok=false and is excluded from any
// non-empty filter rather than silently inflating totals.
type Dated interface {
	ReportingPeriod() (Period, bool)
}

// Candidates: SelectedMonth. Statements carry their reporting period
// directly as a month string.
func (s Statement) ReportingPeriod() (Period, bool) {
	p, err := ParsePeriod(s.SelectedMonth)
	return p, err == nil
}

// Candidates: IssueDate, CreatedAt.
func (i Invoice) ReportingPeriod() (Period, bool) {
	return firstPeriod(i.IssueDate, i.CreatedAt)
}

// Candidates: Date, CreatedAt.
func (t Transaction) ReportingPeriod() (Period, bool) {
	return firstPeriod(t.Date, t.CreatedAt)
}

// Candidates: SalaryMonth, Date.
func (p Payroll) ReportingPeriod() (Period, bool) {
	if per, err := ParsePeriod(p.SalaryMonth); err == nil {
		return per, true
	}
	return firstPeriod(p.Date)
}

// Candidates: Period.
func (b BudgetLine) ReportingPeriod() (Period, bool) {
	p, err := ParsePeriod(b.Period)
	return p, err == nil
}

func firstPeriod(candidates ...time.Time) (Period, bool) {
	for _, t := range candidates {
		if !t.IsZero() {
			return PeriodOf(t), true
		}
	}
	return Period{}, false
}

// MatchesPeriod reports whether a record falls inside the filter.
// An empty filter is the all-time view and matches everything.
func MatchesPeriod(filter Period, rec Dated) bool {
	if filter.IsZero() {
		return true
	}
	p, ok := rec.ReportingPeriod()
	return ok && p == filter
}

// FilterByPeriod keeps the records matching the filter, preserving order.
func FilterByPeriod[T Dated](filter Period, recs []T) []T {
	if filter.IsZero() {
		return recs
	}
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		if MatchesPeriod(filter, r) {
			out = append(out, r)
		}
	}
	return out
}
