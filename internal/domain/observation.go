package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// DateLayout is the day-granularity layout used by the feed's date column.
const DateLayout = "2006-01-02"

// Count is a non-negative daily figure. Reported is false when the feed left
// the cell blank.
type Count struct {
	Value    int
	Reported bool
}

// Reported wraps v as a present count.
func Reported(v int) Count { return Count{Value: v, Reported: true} }

// Float returns the count as float64, or NaN when it was not reported.
func (c Count) Float() float64 {
	if !c.Reported {
		return math.NaN()
	}
	return float64(c.Value)
}

// max returns the larger of two counts, ignoring missing values.
func (c Count) max(o Count) Count {
	switch {
	case !o.Reported:
		return c
	case !c.Reported || o.Value > c.Value:
		return o
	default:
		return c
	}
}

// MarshalJSON encodes a missing count as null.
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.Reported {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, int64(c.Value), 10), nil
}

// UnmarshalJSON accepts an integer or null.
func (c *Count) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Count{}
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Reported(v)
	return nil
}

// Observation is one feed row: one trust on one date.
type Observation struct {
	Date          time.Time `json:"date"`
	RecordType    string    `json:"record_type"`
	AreaCode      string    `json:"area_code"`
	Trust         string    `json:"trust"`
	HospitalCases Count     `json:"hospital_cases"`
	NewAdmissions Count     `json:"new_admissions"`
	MechVentCases Count     `json:"mech_vent_cases"`
}

// TrustSummary holds the lifetime maxima of a trust's three counts.
type TrustSummary struct {
	Trust         string `json:"trust"`
	HospitalCases Count  `json:"max_hospital_cases"`
	NewAdmissions Count  `json:"max_new_admissions"`
	MechVentCases Count  `json:"max_mech_vent_cases"`
}

// UsedVentilation reports whether the trust ever had a ventilated COVID patient.
func (s TrustSummary) UsedVentilation() bool {
	return s.MechVentCases.Reported && s.MechVentCases.Value > 0
}

// TrustSeries is the date-ordered slice of one trust's observations.
type TrustSeries struct {
	Trust      string
	AreaCode   string
	LatestDate time.Time
	Rows       []Observation
}

// TrustChart carries the three smoothed series drawn for a trust.
// Missing points are NaN.
type TrustChart struct {
	Trust         string
	AreaCode      string
	Window        Window
	LatestDate    time.Time
	Dates         []time.Time
	NewAdmissions []float64
	HospitalCases []float64
	MechVentCases []float64
}
