package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"supermarket-dashboard/internal/dataset"
	"supermarket-dashboard/internal/services"
)

const testCSV = `City,Product line,Gender,Customer type,Total,Date,Payment,Rating,Quantity,Unit price
Yangon,Health and beauty,Female,Member,100,2019-01-05,Ewallet,9.0,2,50
Mandalay,Food and beverages,Male,Normal,50,2019-02-10,Cash,8.0,1,50
Yangon,Food and beverages,Female,Member,25,2019-03-15,Ewallet,7.0,1,25
`

func newTestHandlers(t *testing.T) *APIHandlers {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "sales*.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(testCSV); err != nil {
		t.Fatal(err)
	}
	f.Close()

	logger := slog.Default()
	store := dataset.NewStore(logger)
	pipeline := services.NewPipeline(logger)
	return NewAPIHandlers(store, pipeline, f.Name(), logger)
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	return response
}

func TestHandleSummary(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	w := httptest.NewRecorder()

	h.HandleSummary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}

	response := decodeEnvelope(t, w)
	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}

	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data object in response")
	}
	if data["total_sales"] != "175" {
		t.Errorf("expected total_sales \"175\", got %v", data["total_sales"])
	}
	if data["transactions"] != float64(3) {
		t.Errorf("expected 3 transactions, got %v", data["transactions"])
	}
}

func TestHandleSummary_WithFilters(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/summary?cities=Mandalay", nil)
	w := httptest.NewRecorder()

	h.HandleSummary(w, req)

	response := decodeEnvelope(t, w)
	data := response["data"].(map[string]any)
	if data["total_sales"] != "50" {
		t.Errorf("expected total_sales \"50\", got %v", data["total_sales"])
	}
	if data["transactions"] != float64(1) {
		t.Errorf("expected 1 transaction, got %v", data["transactions"])
	}
}

func TestHandleSummary_EmptySelection(t *testing.T) {
	h := newTestHandlers(t)

	// Present but empty dimension set: matches nothing, still a 200.
	req := httptest.NewRequest(http.MethodGet, "/api/summary?cities=", nil)
	w := httptest.NewRecorder()

	h.HandleSummary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("empty selection is not an error, got %d", w.Code)
	}
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	if data["has_data"] != false {
		t.Errorf("expected has_data=false, got %v", data["has_data"])
	}
}

func TestHandleSummary_InvalidDates(t *testing.T) {
	h := newTestHandlers(t)

	tests := []struct {
		name string
		url  string
	}{
		{"garbage start", "/api/summary?start=yesterday"},
		{"inverted range", "/api/summary?start=2019-12-31&end=2019-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			h.HandleSummary(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			response := decodeEnvelope(t, w)
			if success, ok := response["success"].(bool); !ok || success {
				t.Error("expected success=false in response")
			}
		})
	}
}

func TestHandleSales(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sales/city?order=asc", nil)
	req.SetPathValue("dimension", "city")
	w := httptest.NewRecorder()

	h.HandleSales(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	response := decodeEnvelope(t, w)
	buckets, ok := response["data"].([]any)
	if !ok || len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %v", response["data"])
	}
	first := buckets[0].(map[string]any)
	if first["label"] != "Mandalay" {
		t.Errorf("ascending order should put Mandalay first, got %v", first["label"])
	}
}

func TestHandleSales_UnknownDimension(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sales/bogus", nil)
	req.SetPathValue("dimension", "bogus")
	w := httptest.NewRecorder()

	h.HandleSales(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandlePaymentMethods(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/payment-methods", nil)
	w := httptest.NewRecorder()

	h.HandlePaymentMethods(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	response := decodeEnvelope(t, w)
	methods := response["data"].([]any)
	top := methods[0].(map[string]any)
	if top["method"] != "Ewallet" || top["count"] != float64(2) {
		t.Errorf("expected Ewallet x2 first, got %v", top)
	}
}

func TestHandleCorrelation(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/correlation", nil)
	w := httptest.NewRecorder()

	h.HandleCorrelation(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	response := decodeEnvelope(t, w)
	data := response["data"].(map[string]any)
	cols := data["columns"].([]any)
	cells := data["cells"].([]any)
	if len(cols) != len(cells) {
		t.Errorf("matrix not square: %d columns, %d rows", len(cols), len(cells))
	}
}

func TestHandleMonthlyTrend(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/monthly-trend", nil)
	w := httptest.NewRecorder()

	h.HandleMonthlyTrend(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	response := decodeEnvelope(t, w)
	points := response["data"].([]any)
	if len(points) != 3 {
		t.Fatalf("expected 3 months, got %d", len(points))
	}
	first := points[0].(map[string]any)
	if first["month"] != "2019-01-31" {
		t.Errorf("expected month-end 2019-01-31, got %v", first["month"])
	}
}

func TestHandleInsights(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/insights", nil)
	w := httptest.NewRecorder()

	h.HandleInsights(w, req)

	response := decodeEnvelope(t, w)
	data := response["data"].(map[string]any)
	if data["top_city"] != "Yangon" {
		t.Errorf("expected top city Yangon, got %v", data["top_city"])
	}
	if data["top_payment"] != "Ewallet" {
		t.Errorf("expected top payment Ewallet, got %v", data["top_payment"])
	}
}

func TestHandleSearch(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/search?city=yangon", nil)
	w := httptest.NewRecorder()

	h.HandleSearch(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	response := decodeEnvelope(t, w)
	data := response["data"].(map[string]any)
	if data["term"] != "Yangon" {
		t.Errorf("expected title-cased term, got %v", data["term"])
	}
	if data["total"] != "125" {
		t.Errorf("expected total \"125\", got %v", data["total"])
	}
}

func TestHandleSearch_NotFound(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/search?city=Paris", nil)
	w := httptest.NewRecorder()

	h.HandleSearch(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown city should be a 404 signal, got %d", w.Code)
	}
	response := decodeEnvelope(t, w)
	if success, ok := response["success"].(bool); !ok || success {
		t.Error("expected success=false")
	}
	errObj := response["error"].(map[string]any)
	if errObj["code"] != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %v", errObj["code"])
	}
}

func TestHandleSearch_BadArguments(t *testing.T) {
	h := newTestHandlers(t)

	tests := []struct {
		name string
		url  string
	}{
		{"no term", "/api/search"},
		{"both terms", "/api/search?city=Yangon&product_line=Health"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			h.HandleSearch(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestHandleExport(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/export?cities=Mandalay", nil)
	w := httptest.NewRecorder()

	h.HandleExport(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "filtered_data.csv") {
		t.Errorf("unexpected content disposition %q", cd)
	}

	body := w.Body.String()
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "city,") {
		t.Errorf("expected normalized header, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "Mandalay") {
		t.Errorf("expected the Mandalay row, got %q", lines[1])
	}
}

func TestHandleFilterOptions(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/filters", nil)
	w := httptest.NewRecorder()

	h.HandleFilterOptions(w, req)

	response := decodeEnvelope(t, w)
	data := response["data"].(map[string]any)
	cities := data["cities"].([]any)
	if len(cities) != 2 {
		t.Errorf("expected 2 cities, got %v", cities)
	}
	if data["date_min"] != "2019-01-05" {
		t.Errorf("unexpected date_min %v", data["date_min"])
	}
}

func TestHandleHealth(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	response := decodeEnvelope(t, w)
	data := response["data"].(map[string]any)
	if data["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", data["status"])
	}
}

func TestHandleStats(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()

	h.HandleStats(w, req)

	response := decodeEnvelope(t, w)
	data := response["data"].(map[string]any)
	if data["rows"] != float64(3) {
		t.Errorf("expected 3 rows, got %v", data["rows"])
	}
}

func TestHandlers_MissingDatasetFile(t *testing.T) {
	logger := slog.Default()
	h := NewAPIHandlers(dataset.NewStore(logger), services.NewPipeline(logger), "/nonexistent/sales.csv", logger)

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	w := httptest.NewRecorder()

	h.HandleSummary(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for an unreadable dataset, got %d", w.Code)
	}
	response := decodeEnvelope(t, w)
	errObj := response["error"].(map[string]any)
	if errObj["code"] != "LOAD_FAILED" {
		t.Errorf("expected LOAD_FAILED, got %v", errObj["code"])
	}
}
