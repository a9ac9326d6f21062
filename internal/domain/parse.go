package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Feed column headers.
const (
	ColDate          = "date"
	ColAreaType      = "areaType"
	ColAreaCode      = "areaCode"
	ColAreaName      = "areaName"
	ColHospitalCases = "hospitalCases"
	ColNewAdmissions = "newAdmissions"
	ColMechVentBeds  = "covidOccupiedMVBeds"
)

// FeedColumns lists the headers the parser requires.
var FeedColumns = []string{
	ColDate, ColAreaType, ColAreaCode, ColAreaName,
	ColHospitalCases, ColNewAdmissions, ColMechVentBeds,
}

// TrustCodeLength is the length of an NHS trust area code.
const TrustCodeLength = 3

// Feed is the parsed export restricted to NHS trust rows.
type Feed struct {
	Rows      []Observation
	TotalRows int // data rows read, trust or not
}

// IsTrustCode reports whether an area code identifies an NHS trust.
func IsTrustCode(code string) bool {
	return utf8.RuneCountInString(code) == TrustCodeLength
}

// ParseFeed reads the CSV export, drops every row whose area code is not a
// trust code, and maps the remaining rows onto Observations. An empty or
// malformed payload is a FetchError; missing columns, bad dates and bad counts
// are SchemaErrors.
func ParseFeed(r io.Reader) (Feed, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Feed{}, &FetchError{Err: errors.New("empty payload")}
	}
	if err != nil {
		return Feed{}, &FetchError{Err: fmt.Errorf("payload is not CSV: %w", err)}
	}

	idx, err := columnIndex(header)
	if err != nil {
		return Feed{}, err
	}

	var feed Feed
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Feed{}, &FetchError{Err: fmt.Errorf("payload is not CSV: %w", err)}
		}
		line++
		feed.TotalRows++

		code := strings.TrimSpace(rec[idx[ColAreaCode]])
		if !IsTrustCode(code) {
			continue
		}

		obs, err := parseRow(rec, idx, line)
		if err != nil {
			return Feed{}, err
		}
		obs.AreaCode = code
		feed.Rows = append(feed.Rows, obs)
	}
	return feed, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		idx[h] = i
	}
	for _, col := range FeedColumns {
		if _, ok := idx[col]; !ok {
			return nil, &SchemaError{Column: col, Reason: "missing column"}
		}
	}
	return idx, nil
}

func parseRow(rec []string, idx map[string]int, line int) (Observation, error) {
	date, err := time.Parse(DateLayout, strings.TrimSpace(rec[idx[ColDate]]))
	if err != nil {
		return Observation{}, &SchemaError{Line: line, Column: ColDate, Reason: "invalid date"}
	}

	obs := Observation{
		Date:       date,
		RecordType: strings.TrimSpace(rec[idx[ColAreaType]]),
		Trust:      strings.TrimSpace(rec[idx[ColAreaName]]),
	}
	if obs.Trust == "" {
		return Observation{}, &SchemaError{Line: line, Column: ColAreaName, Reason: "empty trust name"}
	}

	counts := []struct {
		col string
		dst *Count
	}{
		{ColHospitalCases, &obs.HospitalCases},
		{ColNewAdmissions, &obs.NewAdmissions},
		{ColMechVentBeds, &obs.MechVentCases},
	}
	for _, c := range counts {
		v, err := parseCount(rec[idx[c.col]])
		if err != nil {
			return Observation{}, &SchemaError{Line: line, Column: c.col, Reason: err.Error()}
		}
		*c.dst = v
	}
	return obs, nil
}

// parseCount parses a non-negative integer cell. Blank cells are missing.
// Integral floats ("12.0") are accepted since some exports write them that way.
func parseCount(s string) (Count, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Count{}, nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		if v < 0 {
			return Count{}, fmt.Errorf("negative count %d", v)
		}
		return Reported(v), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return Count{}, fmt.Errorf("non-numeric count %q", s)
	}
	if f < 0 {
		return Count{}, fmt.Errorf("negative count %q", s)
	}
	return Reported(int(f)), nil
}
