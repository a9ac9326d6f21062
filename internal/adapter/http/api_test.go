package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestAPI_Trusts(t *testing.T) {
	rec := get(t, "/api/trusts")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Trusts []string `json:"trusts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"Beta Hospital"}, body.Trusts)
}

func TestAPI_Windows(t *testing.T) {
	rec := get(t, "/api/windows")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"days":1,"label":"1 day"},
		{"days":3,"label":"3 days"},
		{"days":5,"label":"5 days"},
		{"days":7,"label":"7 days"}
	]`, rec.Body.String())
}

func TestAPI_Summary(t *testing.T) {
	rec := get(t, "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"title": "Maximum numbers by Acute NHS Trust",
		"trusts": [{"trust":"Beta Hospital","max_hospital_cases":20,"max_new_admissions":10,"max_mech_vent_cases":1}]
	}`, rec.Body.String())
}

func TestAPI_SeriesThreeDayWindow(t *testing.T) {
	rec := get(t, "/api/series?trust="+url.QueryEscape("Beta Hospital")+"&window=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Trust      string `json:"trust"`
		AreaCode   string `json:"area_code"`
		Window     int    `json:"window"`
		LatestDate string `json:"latest_date"`
		Caption    string `json:"caption"`
		Points     []struct {
			Date          string   `json:"date"`
			NewAdmissions *float64 `json:"new_admissions"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "Beta Hospital", body.Trust)
	assert.Equal(t, "BBB", body.AreaCode)
	assert.Equal(t, 3, body.Window)
	assert.Equal(t, "2021-01-05", body.LatestDate)
	assert.Contains(t, body.Caption, "2021-01-05")

	require.Len(t, body.Points, 5)
	assert.Equal(t, "2021-01-01", body.Points[0].Date)
	assert.Nil(t, body.Points[0].NewAdmissions)
	assert.Nil(t, body.Points[1].NewAdmissions)
	want := []float64{4, 6, 8}
	for i, w := range want {
		require.NotNil(t, body.Points[i+2].NewAdmissions)
		assert.InDelta(t, w, *body.Points[i+2].NewAdmissions, 1e-9)
	}
}

func TestAPI_SeriesDefaultsToOneDay(t *testing.T) {
	rec := get(t, "/api/series?trust="+url.QueryEscape("Beta Hospital"))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Window int `json:"window"`
		Points []struct {
			NewAdmissions *float64 `json:"new_admissions"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Window)
	require.NotNil(t, body.Points[0].NewAdmissions)
	assert.InDelta(t, 2.0, *body.Points[0].NewAdmissions, 1e-9)
}

func TestAPI_SeriesValidation(t *testing.T) {
	cases := []struct {
		name string
		path string
		code int
	}{
		{"missing trust", "/api/series?window=3", http.StatusBadRequest},
		{"unsupported window", "/api/series?trust=Beta+Hospital&window=2", http.StatusBadRequest},
		{"non-numeric window", "/api/series?trust=Beta+Hospital&window=week", http.StatusBadRequest},
		{"unknown trust", "/api/series?trust=Gamma+Hospital", http.StatusNotFound},
		{"filtered trust", "/api/series?trust=Alpha+Hospital", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, tc.path)
			assert.Equal(t, tc.code, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAPI_Workbook(t *testing.T) {
	rec := get(t, "/api/workbook?trust=Beta+Hospital&window=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "beta-hospital-5d.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	assert.Contains(t, f.GetSheetList(), "Series")
}

func TestAPI_About(t *testing.T) {
	rec := get(t, "/api/about")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "http://feed.test/data.csv", body["feed_url"])
	assert.Equal(t, "https://coronavirus.data.gov.uk/", body["source"])
	assert.NotEmpty(t, body["fetched_at"])
}
