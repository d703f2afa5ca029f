package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"supermarket-dashboard/internal/dataset"
	apperrors "supermarket-dashboard/internal/errors"
	"supermarket-dashboard/internal/models"
	"supermarket-dashboard/internal/services"

	"github.com/starfederation/datastar-go/datastar"
)

const previewRows = 5

var kpiTemplate = template.Must(template.New("kpis").Parse(`
<div id="kpi-content">
{{if .HasData}}<div class="kpi-grid">
<div class="kpi"><span class="kpi-label">Total Sales</span><strong>${{.TotalSales.StringFixed 2}}</strong></div>
<div class="kpi"><span class="kpi-label">Average Rating</span><strong>{{if .AvgRating.Valid}}{{printf "%.2f" .AvgRating}}{{else}}&ndash;{{end}}</strong></div>
<div class="kpi"><span class="kpi-label">Transactions</span><strong>{{.Transactions}}</strong></div>
</div>{{if gt .CoercedCells 0}}<p class="note">{{.CoercedCells}} cells could not be parsed and were treated as missing.</p>{{end}}
{{else}}<p class="note">No rows match the current filters.</p>{{end}}
</div>`))

var insightsTemplate = template.Must(template.New("insights").Parse(`
<div id="insights-content">
{{if .HasData}}<ul class="insights">
<li>Highest sales city: <strong>{{.TopCity}}</strong> (${{.TopCitySales.StringFixed 2}})</li>
<li>Highest selling product line: <strong>{{.TopProduct}}</strong> (${{.TopProductSales.StringFixed 2}})</li>
<li>Most used payment method: <strong>{{.TopPayment}}</strong></li>
<li>Sales in last {{.TailWindowRows}} records: <strong>${{.TailWindowTotal.StringFixed 2}}</strong></li>
</ul>{{else}}<p class="note">No data for the current filters.</p>{{end}}
</div>`))

var previewTemplate = template.Must(template.New("preview").Parse(`
<div id="preview-content">
<table class="modern-table">
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</div>`))

var searchTemplate = template.Must(template.New("search").Parse(`
<div id="search-content">
{{if .Found}}<p class="success">Total sales for {{.Result.Term}}: <strong>${{.Result.Total.StringFixed 2}}</strong> ({{.Result.Matches}} transactions)</p>
{{else}}<p class="warning">{{.Message}}</p>{{end}}
</div>`))

type SSEHandlers struct {
	store    *dataset.Store
	pipeline *services.Pipeline
	csvPath  string
	logger   *slog.Logger
}

func NewSSEHandlers(store *dataset.Store, pipeline *services.Pipeline, csvPath string, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		store:    store,
		pipeline: pipeline,
		csvPath:  csvPath,
		logger:   logger,
	}
}

func (h *SSEHandlers) filtered(r *http.Request) (*dataset.Dataset, error) {
	ds, err := h.store.Load(r.Context(), h.csvPath)
	if err != nil {
		return nil, err
	}
	sel, err := ParseSelection(r.URL.Query())
	if err != nil {
		return nil, err
	}
	return ds.Filter(sel), nil
}

type previewData struct {
	Header []string
	Rows   [][]string
}

// HandleDashboard recomputes everything for the current filter selection
// and pushes it in one SSE response: KPI, insight, and preview fragments as
// element patches, chart series as signals.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ds, err := h.filtered(r)
	if err != nil {
		h.logger.Error("dashboard refresh", "error", err)
		sse.PatchElements(`<div id="kpi-content"><p class="warning">Could not apply filters.</p></div>`)
		return
	}

	if html, err := renderFragment(kpiTemplate, h.pipeline.Summary(ds)); err == nil {
		sse.PatchElements(html)
	} else {
		h.logger.Error("render kpis", "error", err)
	}

	if html, err := renderFragment(insightsTemplate, h.pipeline.Insights(ds)); err == nil {
		sse.PatchElements(html)
	} else {
		h.logger.Error("render insights", "error", err)
	}

	preview := previewData{Header: ds.Header, Rows: ds.Raw}
	if len(preview.Rows) > previewRows {
		preview.Rows = preview.Rows[:previewRows]
	}
	if html, err := renderFragment(previewTemplate, preview); err == nil {
		sse.PatchElements(html)
	} else {
		h.logger.Error("render preview", "error", err)
	}

	signals, err := json.Marshal(map[string]any{
		"productSales":      h.pipeline.GroupBy(ds, services.DimensionProductLine, services.ReduceSum, services.SortAscending),
		"citySales":         h.pipeline.GroupBy(ds, services.DimensionCity, services.ReduceSum, services.SortNone),
		"genderSales":       h.pipeline.GroupBy(ds, services.DimensionGender, services.ReduceSum, services.SortNone),
		"customerTypeSales": h.pipeline.GroupBy(ds, services.DimensionCustomerType, services.ReduceSum, services.SortNone),
		"paymentCounts":     h.pipeline.PaymentBreakdown(ds),
		"monthlyTrend":      h.pipeline.MonthlyTrend(ds),
		"correlation":       h.pipeline.Correlation(ds),
	})
	if err != nil {
		h.logger.Error("marshal dashboard signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleSearch pushes the result of a city or product-line lookup as a
// fragment patch. A miss renders the warning text, matching the original
// dashboard's informational message.
func (h *SSEHandlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ds, err := h.filtered(r)
	if err != nil {
		h.logger.Error("search refresh", "error", err)
		return
	}

	q := r.URL.Query()
	dim := services.DimensionCity
	term := q.Get("city")
	if term == "" {
		dim = services.DimensionProductLine
		term = q.Get("product_line")
	}
	if term == "" {
		return
	}

	result, err := h.pipeline.Lookup(ds, dim, term)

	data := struct {
		Found   bool
		Result  models.LookupResult
		Message string
	}{Found: err == nil, Result: result}

	if err != nil {
		var appErr *apperrors.AppError
		if e, ok := err.(*apperrors.AppError); ok && e.Code == apperrors.CodeNotFound {
			appErr = e
			data.Message = appErr.Message
		} else {
			h.logger.Error("search lookup", "error", err)
			return
		}
	}

	html, err := renderFragment(searchTemplate, data)
	if err != nil {
		h.logger.Error("render search result", "error", err)
		return
	}
	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func renderFragment(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
