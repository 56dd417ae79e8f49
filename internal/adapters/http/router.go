// Package httpadapter exposes the REST surface. Handlers stay thin: parse,
// call a use case, map domain error kinds onto status codes.
package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jaehyunkim/docuvision/internal/config"
	"github.com/jaehyunkim/docuvision/internal/core/ports"
	"github.com/jaehyunkim/docuvision/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	cfg      config.Config
	ingestUC ports.RequestIngestor
	readUC   ports.RequestReader
	editUC   ports.BlockEditor
	analyze  ports.PageAnalysisService
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	ingestUC ports.RequestIngestor,
	readUC ports.RequestReader,
	editUC ports.BlockEditor,
	analyze ports.PageAnalysisService,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:      cfg,
		ingestUC: ingestUC,
		readUC:   readUC,
		editUC:   editUC,
		analyze:  analyze,
		metrics:  m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("POST /v1/requests", rt.uploadRequest)
	mux.HandleFunc("GET /v1/requests", rt.listRequests)
	mux.HandleFunc("GET /v1/requests/{id}", rt.getRequest)
	mux.HandleFunc("DELETE /v1/requests/{id}", rt.deleteRequest)

	mux.HandleFunc("GET /v1/requests/{id}/pages/{page}", rt.getPage)
	mux.HandleFunc("POST /v1/requests/{id}/pages/{page}/blocks", rt.addBlock)
	mux.HandleFunc("GET /v1/requests/{id}/pages/{page}/blocks/{block}", rt.getBlock)
	mux.HandleFunc("PUT /v1/requests/{id}/pages/{page}/blocks/{block}", rt.updateBlock)
	mux.HandleFunc("DELETE /v1/requests/{id}/pages/{page}/blocks/{block}", rt.deleteBlock)

	mux.HandleFunc("POST /v1/requests/{id}/pages/{page}/analysis", rt.analyzePage)
	mux.HandleFunc("GET /v1/requests/{id}/pages/{page}/export/hocr", rt.exportHOCR)
	mux.HandleFunc("GET /v1/requests/{id}/pages/{page}/export/xlsx", rt.exportXLSX)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, 50*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = accessLogMiddleware(slog.Default(), handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
