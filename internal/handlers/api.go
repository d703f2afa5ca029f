package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"supermarket-dashboard/internal/dataset"
	apperrors "supermarket-dashboard/internal/errors"
	"supermarket-dashboard/internal/observability"
	"supermarket-dashboard/internal/services"
)

const cacheControl = "public, max-age=60"

type APIHandlers struct {
	store    *dataset.Store
	pipeline *services.Pipeline
	csvPath  string
	logger   *slog.Logger
}

func NewAPIHandlers(store *dataset.Store, pipeline *services.Pipeline, csvPath string, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		store:    store,
		pipeline: pipeline,
		csvPath:  csvPath,
		logger:   logger,
	}
}

// filtered loads the cached dataset and applies the request's filter
// selection to it.
func (h *APIHandlers) filtered(r *http.Request) (*dataset.Dataset, error) {
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

func (h *APIHandlers) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ds, err := h.filtered(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	apperrors.WriteSuccessWithHeaders(w, h.pipeline.Summary(ds), map[string]string{
		"Cache-Control": cacheControl,
	})
}

// HandleSales serves the grouped totals behind the bar and pie charts:
// GET /api/sales/{dimension}?reduce=sum|mean|count&order=none|asc|desc.
func (h *APIHandlers) HandleSales(w http.ResponseWriter, r *http.Request) {
	dim, err := services.ParseDimension(r.PathValue("dimension"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	red, err := services.ParseReduce(r.URL.Query().Get("reduce"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	order, err := services.ParseSortOrder(r.URL.Query().Get("order"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	ds, err := h.filtered(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	apperrors.WriteSuccessWithHeaders(w, h.pipeline.GroupBy(ds, dim, red, order), map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	ds, err := h.filtered(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	apperrors.WriteSuccessWithHeaders(w, h.pipeline.PaymentBreakdown(ds), map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleCorrelation(w http.ResponseWriter, r *http.Request) {
	ds, err := h.filtered(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	apperrors.WriteSuccessWithHeaders(w, h.pipeline.Correlation(ds), map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	ds, err := h.filtered(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	// A nil trend means the input has no date column and the chart is absent.
	apperrors.WriteSuccessWithHeaders(w, h.pipeline.MonthlyTrend(ds), map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	ds, err := h.filtered(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	apperrors.WriteSuccessWithHeaders(w, h.pipeline.Insights(ds), map[string]string{
		"Cache-Control": cacheControl,
	})
}

// HandleSearch resolves an exact-match lookup of a city or product line
// against the filtered dataset: GET /api/search?city=... or
// GET /api/search?product_line=... A miss is a 404 envelope, not a failure.
func (h *APIHandlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	city := q.Get("city")
	product := q.Get("product_line")

	var dim services.Dimension
	var term string
	switch {
	case city != "" && product != "":
		h.writeErr(w, r, apperrors.BadRequest("search accepts either city or product_line, not both"))
		return
	case city != "":
		dim, term = services.DimensionCity, city
	case product != "":
		dim, term = services.DimensionProductLine, product
	default:
		h.writeErr(w, r, apperrors.BadRequest("search requires a city or product_line parameter"))
		return
	}

	ds, err := h.filtered(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	result, err := h.pipeline.Lookup(ds, dim, term)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	apperrors.WriteSuccess(w, result)
}

// HandleExport streams the filtered dataset as a CSV download.
func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	ds, err := h.filtered(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="filtered_data.csv"`)

	if err := h.pipeline.ExportCSV(ds, w); err != nil {
		// Headers are already out; all we can do is log.
		h.logger.Error("export write failed",
			"error", err,
			"request_id", observability.GetRequestID(r.Context()),
		)
	}
}

// HandleFilterOptions serves the distinct values and date span that the
// dashboard controls are built from. Unfiltered by design.
func (h *APIHandlers) HandleFilterOptions(w http.ResponseWriter, r *http.Request) {
	ds, err := h.store.Load(r.Context(), h.csvPath)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	apperrors.WriteSuccessWithHeaders(w, h.pipeline.FilterOptions(ds), map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	ds, err := h.store.Load(r.Context(), h.csvPath)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	apperrors.WriteSuccess(w, h.pipeline.Stats(ds))
}
