package server

import (
	"log/slog"
	"net/http"

	"supermarket-dashboard/internal/dataset"
	"supermarket-dashboard/internal/handlers"
	"supermarket-dashboard/internal/services"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(store *dataset.Store, pipeline *services.Pipeline, csvPath string, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(store, pipeline, csvPath, logger),
		sseHandlers: handlers.NewSSEHandlers(store, pipeline, csvPath, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard page and operational endpoints
	s.mux.HandleFunc("GET /", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API: every endpoint takes the filter selection in query params
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/sales/{dimension}", s.apiHandlers.HandleSales)
	s.mux.HandleFunc("GET /api/payment-methods", s.apiHandlers.HandlePaymentMethods)
	s.mux.HandleFunc("GET /api/correlation", s.apiHandlers.HandleCorrelation)
	s.mux.HandleFunc("GET /api/monthly-trend", s.apiHandlers.HandleMonthlyTrend)
	s.mux.HandleFunc("GET /api/insights", s.apiHandlers.HandleInsights)
	s.mux.HandleFunc("GET /api/search", s.apiHandlers.HandleSearch)
	s.mux.HandleFunc("GET /api/export", s.apiHandlers.HandleExport)
	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilterOptions)

	// Datastar SSE endpoints driving the page
	s.mux.HandleFunc("GET /sse/dashboard", s.sseHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /sse/search", s.sseHandlers.HandleSearch)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
