package domain

import (
	"sort"
	"time"
)

// Table is the prepared, read-only set of observations. It is safe for
// concurrent readers.
type Table struct {
	rows      []Observation
	byTrust   map[string][]int // row indexes, date ascending
	trusts    []string
	fetchedAt time.Time
}

func newTable(rows []Observation, fetchedAt time.Time) *Table {
	t := &Table{
		rows:      rows,
		byTrust:   make(map[string][]int),
		fetchedAt: fetchedAt,
	}
	for i, r := range rows {
		t.byTrust[r.Trust] = append(t.byTrust[r.Trust], i)
	}
	for name, idx := range t.byTrust {
		sort.SliceStable(idx, func(a, b int) bool {
			return rows[idx[a]].Date.Before(rows[idx[b]].Date)
		})
		t.trusts = append(t.trusts, name)
	}
	sort.Strings(t.trusts)
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// FetchedAt returns when the feed behind the table was prepared.
func (t *Table) FetchedAt() time.Time { return t.fetchedAt }

// Rows returns a copy of the rows in feed order.
func (t *Table) Rows() []Observation {
	out := make([]Observation, len(t.rows))
	copy(out, t.rows)
	return out
}

// Trusts returns the distinct trust names in ascending order.
func (t *Table) Trusts() []string {
	out := make([]string, len(t.trusts))
	copy(out, t.trusts)
	return out
}

// Summary recomputes the per-trust maxima.
func (t *Table) Summary() []TrustSummary {
	return Summarize(t.rows)
}

// Slice returns a trust's rows sorted by date along with its latest date.
func (t *Table) Slice(trust string) (TrustSeries, error) {
	idx, ok := t.byTrust[trust]
	if !ok || len(idx) == 0 {
		return TrustSeries{}, &NotFoundError{Trust: trust}
	}

	rows := make([]Observation, len(idx))
	for i, j := range idx {
		rows[i] = t.rows[j]
	}
	last := rows[len(rows)-1]
	return TrustSeries{
		Trust:      trust,
		AreaCode:   last.AreaCode,
		LatestDate: last.Date,
		Rows:       rows,
	}, nil
}

// Chart builds the three smoothed series for a trust.
func (t *Table) Chart(trust string, w Window) (TrustChart, error) {
	series, err := t.Slice(trust)
	if err != nil {
		return TrustChart{}, err
	}

	n := len(series.Rows)
	dates := make([]time.Time, n)
	adms := make([]float64, n)
	hosp := make([]float64, n)
	vent := make([]float64, n)
	for i, r := range series.Rows {
		dates[i] = r.Date
		adms[i] = r.NewAdmissions.Float()
		hosp[i] = r.HospitalCases.Float()
		vent[i] = r.MechVentCases.Float()
	}

	chart := TrustChart{
		Trust:      series.Trust,
		AreaCode:   series.AreaCode,
		Window:     w,
		LatestDate: series.LatestDate,
		Dates:      dates,
	}
	for _, s := range []struct {
		in  []float64
		out *[]float64
	}{
		{adms, &chart.NewAdmissions},
		{hosp, &chart.HospitalCases},
		{vent, &chart.MechVentCases},
	} {
		smoothed, err := RollingMean(s.in, w.Days())
		if err != nil {
			return TrustChart{}, err
		}
		*s.out = smoothed
	}
	return chart, nil
}
