package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/nhs-trust-dashboard/internal/domain"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/observability"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/report"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// API serves the dashboard's read-only views over a prepared table.
type API struct {
	table     *domain.Table
	charts    ChartSource
	sourceURL string
	metrics   *observability.Metrics
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewAPI creates the dashboard API. charts may be nil, in which case series are
// computed from the table on every request.
func NewAPI(table *domain.Table, charts ChartSource, sourceURL string, metrics *observability.Metrics, logger *slog.Logger) *API {
	if charts == nil {
		charts = table
	}
	return &API{
		table:     table,
		charts:    charts,
		sourceURL: sourceURL,
		metrics:   metrics,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger.With(slog.String("component", "dashboard_api")),
	}
}

// Routes returns the dashboard routes.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/trusts", a.getTrusts)
	r.Get("/windows", a.getWindows)
	r.Get("/summary", a.getSummary)
	r.Get("/series", a.getSeries)
	r.Get("/workbook", a.getWorkbook)
	r.Get("/about", a.getAbout)
	return r
}

// seriesQuery is the trust and averaging window picked by the user.
type seriesQuery struct {
	Trust  string `validate:"required,max=200"`
	Window int    `validate:"oneof=1 3 5 7"`
}

type trustsResponse struct {
	Trusts []string `json:"trusts"`
}

type windowOption struct {
	Days  int    `json:"days"`
	Label string `json:"label"`
}

type summaryResponse struct {
	Title  string                `json:"title"`
	Trusts []domain.TrustSummary `json:"trusts"`
}

type seriesPoint struct {
	Date          string   `json:"date"`
	NewAdmissions *float64 `json:"new_admissions"`
	HospitalCases *float64 `json:"hospital_cases"`
	MechVentCases *float64 `json:"mech_vent_cases"`
}

type seriesResponse struct {
	Trust      string        `json:"trust"`
	AreaCode   string        `json:"area_code"`
	Window     int           `json:"window"`
	LatestDate string        `json:"latest_date"`
	Caption    string        `json:"caption"`
	Points     []seriesPoint `json:"points"`
}

type aboutResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
	FeedURL     string `json:"feed_url"`
	FetchedAt   string `json:"fetched_at"`
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (a *API) getTrusts(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, trustsResponse{Trusts: a.table.Trusts()})
}

func (a *API) getWindows(w http.ResponseWriter, r *http.Request) {
	windows := domain.Windows()
	out := make([]windowOption, len(windows))
	for i, win := range windows {
		out[i] = windowOption{Days: win.Days(), Label: win.String()}
	}
	render.JSON(w, r, out)
}

func (a *API) getSummary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, summaryResponse{
		Title:  "Maximum numbers by Acute NHS Trust",
		Trusts: a.table.Summary(),
	})
}

func (a *API) getSeries(w http.ResponseWriter, r *http.Request) {
	chart, ok := a.chartFor(w, r)
	if !ok {
		return
	}

	points := make([]seriesPoint, len(chart.Dates))
	for i, d := range chart.Dates {
		points[i] = seriesPoint{
			Date:          d.Format(domain.DateLayout),
			NewAdmissions: nanToNil(chart.NewAdmissions[i]),
			HospitalCases: nanToNil(chart.HospitalCases[i]),
			MechVentCases: nanToNil(chart.MechVentCases[i]),
		}
	}

	latest := chart.LatestDate.Format(domain.DateLayout)
	render.JSON(w, r, seriesResponse{
		Trust:      chart.Trust,
		AreaCode:   chart.AreaCode,
		Window:     chart.Window.Days(),
		LatestDate: latest,
		Caption:    fmt.Sprintf("Latest date of the downloaded data for this NHS Trust is %s", latest),
		Points:     points,
	})
}

func (a *API) getWorkbook(w http.ResponseWriter, r *http.Request) {
	chart, ok := a.chartFor(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, a.table.Summary(), chart, a.table.FetchedAt()); err != nil {
		a.logger.Error("render workbook failed", "trust", chart.Trust, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to render workbook")
		return
	}
	a.metrics.WorkbooksRendered.Inc()

	filename := fmt.Sprintf("%s-%dd.xlsx", slug(chart.Trust), chart.Window.Days())
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (a *API) getAbout(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, aboutResponse{
		Title: "COVID-19 NHS Trust Patient Numbers",
		Description: "New daily admissions, hospital inpatients and patients on mechanical " +
			"ventilation associated with COVID-19, for NHS trusts that have reported ventilated patients.",
		Source:    "https://coronavirus.data.gov.uk/",
		FeedURL:   a.sourceURL,
		FetchedAt: a.table.FetchedAt().UTC().Format(time.RFC3339),
	})
}

// chartFor validates the query and loads the chart. It writes the error
// response itself and reports false on failure.
func (a *API) chartFor(w http.ResponseWriter, r *http.Request) (domain.TrustChart, bool) {
	q, err := a.parseQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return domain.TrustChart{}, false
	}

	win, err := domain.ParseWindow(q.Window)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return domain.TrustChart{}, false
	}

	chart, err := a.charts.Chart(q.Trust, win)
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &nf):
		writeError(w, r, http.StatusNotFound, err.Error())
		return domain.TrustChart{}, false
	case err != nil:
		a.logger.Error("build chart failed", "trust", q.Trust, "window", q.Window, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to build chart")
		return domain.TrustChart{}, false
	}
	return chart, true
}

func (a *API) parseQuery(r *http.Request) (seriesQuery, error) {
	values := r.URL.Query()
	q := seriesQuery{
		Trust:  strings.TrimSpace(values.Get("trust")),
		Window: domain.Window1Day.Days(),
	}
	if s := values.Get("window"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("window must be a whole number of days")
		}
		q.Window = n
	}

	if err := a.validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return q, fmt.Errorf("invalid %s: failed %q", strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return q, err
	}
	return q, nil
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Status: http.StatusText(status), Error: msg})
}

func nanToNil(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func slug(s string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
