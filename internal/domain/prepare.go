package domain

import (
	"fmt"
	"sort"
)

// Prepare turns parsed trust rows into the immutable table served to the
// dashboard. It rejects duplicate (trust, date) rows, summarizes every trust
// over its full history, and keeps only the rows of trusts that ever reported
// a patient on mechanical ventilation.
func Prepare(rows []Observation) (*Table, error) {
	if err := checkUnique(rows); err != nil {
		return nil, err
	}

	qualifying := QualifyingTrusts(Summarize(rows))

	kept := make([]Observation, 0, len(rows))
	for _, r := range rows {
		if _, ok := qualifying[r.Trust]; ok {
			kept = append(kept, r)
		}
	}
	return newTable(kept, clock.Now()), nil
}

// Summarize groups rows by trust and takes the maximum of each count.
// The result is ordered by trust name.
func Summarize(rows []Observation) []TrustSummary {
	byTrust := make(map[string]*TrustSummary)
	for _, r := range rows {
		s, ok := byTrust[r.Trust]
		if !ok {
			s = &TrustSummary{Trust: r.Trust}
			byTrust[r.Trust] = s
		}
		s.HospitalCases = s.HospitalCases.max(r.HospitalCases)
		s.NewAdmissions = s.NewAdmissions.max(r.NewAdmissions)
		s.MechVentCases = s.MechVentCases.max(r.MechVentCases)
	}

	out := make([]TrustSummary, 0, len(byTrust))
	for _, s := range byTrust {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Trust < out[j].Trust })
	return out
}

// QualifyingTrusts returns the trusts whose maximum ventilation count is
// strictly positive.
func QualifyingTrusts(summaries []TrustSummary) map[string]struct{} {
	set := make(map[string]struct{}, len(summaries))
	for _, s := range summaries {
		if s.UsedVentilation() {
			set[s.Trust] = struct{}{}
		}
	}
	return set
}

func checkUnique(rows []Observation) error {
	type key struct {
		trust string
		date  string
	}
	seen := make(map[key]struct{}, len(rows))
	for _, r := range rows {
		k := key{trust: r.Trust, date: r.Date.Format(DateLayout)}
		if _, dup := seen[k]; dup {
			return &SchemaError{Reason: fmt.Sprintf("duplicate row for trust %q on %s", k.trust, k.date)}
		}
		seen[k] = struct{}{}
	}
	return nil
}
