package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
	"github.com/jaehyunkim/docuvision/internal/infrastructure/export"
)

// Uploads above this size are rejected before buffering the whole body.
const maxUploadBytes = 50 << 20

func (rt *Router) uploadRequest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read upload: " + err.Error()})
		return
	}

	req, err := rt.ingestUC.Ingest(r.Context(), fileHeader.Filename, r.FormValue("description"), data)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, string(req.FileType))
	}
	writeJSON(w, http.StatusAccepted, req)
}

func (rt *Router) listRequests(w http.ResponseWriter, r *http.Request) {
	limit := rt.cfg.ListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	requests, err := rt.readUC.ListRequests(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if requests == nil {
		requests = []domain.Request{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests, "total": len(requests)})
}

func (rt *Router) getRequest(w http.ResponseWriter, r *http.Request) {
	req, err := rt.readUC.GetRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (rt *Router) deleteRequest(w http.ResponseWriter, r *http.Request) {
	if err := rt.readUC.DeleteRequest(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) getPage(w http.ResponseWriter, r *http.Request) {
	pageNumber, ok := pathInt(w, r, "page")
	if !ok {
		return
	}
	page, err := rt.readUC.GetPage(r.Context(), r.PathValue("id"), pageNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *Router) getBlock(w http.ResponseWriter, r *http.Request) {
	pageNumber, ok := pathInt(w, r, "page")
	if !ok {
		return
	}
	blockID, ok := pathInt(w, r, "block")
	if !ok {
		return
	}

	// The API numbers blocks 1-based, matching the stored block files.
	block, err := rt.readUC.GetBlock(r.Context(), r.PathValue("id"), pageNumber, blockID-1)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (rt *Router) updateBlock(w http.ResponseWriter, r *http.Request) {
	pageNumber, ok := pathInt(w, r, "page")
	if !ok {
		return
	}
	blockID, ok := pathInt(w, r, "block")
	if !ok {
		return
	}

	var update domain.BlockUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	page, err := rt.editUC.UpdateBlock(r.Context(), r.PathValue("id"), pageNumber, blockID-1, update)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordBlockEdit(serviceName, "update")
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *Router) deleteBlock(w http.ResponseWriter, r *http.Request) {
	pageNumber, ok := pathInt(w, r, "page")
	if !ok {
		return
	}
	blockID, ok := pathInt(w, r, "block")
	if !ok {
		return
	}

	page, err := rt.editUC.DeleteBlock(r.Context(), r.PathValue("id"), pageNumber, blockID-1)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordBlockEdit(serviceName, "delete")
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *Router) addBlock(w http.ResponseWriter, r *http.Request) {
	pageNumber, ok := pathInt(w, r, "page")
	if !ok {
		return
	}

	var block domain.NewBlock
	if err := json.NewDecoder(r.Body).Decode(&block); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	page, err := rt.editUC.AddBlock(r.Context(), r.PathValue("id"), pageNumber, block)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordBlockEdit(serviceName, "add")
	}
	writeJSON(w, http.StatusCreated, page)
}

func (rt *Router) analyzePage(w http.ResponseWriter, r *http.Request) {
	pageNumber, ok := pathInt(w, r, "page")
	if !ok {
		return
	}

	var body struct {
		Prompt string `json:"prompt"`
		Model  string `json:"model"`
	}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
	}

	answer, err := rt.analyze.AnalyzePage(r.Context(), r.PathValue("id"), pageNumber, body.Prompt, body.Model)
	if rt.metrics != nil {
		rt.metrics.RecordAnalysis(serviceName, err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"analysis": answer})
}

func (rt *Router) exportHOCR(w http.ResponseWriter, r *http.Request) {
	pageNumber, ok := pathInt(w, r, "page")
	if !ok {
		return
	}
	requestID := r.PathValue("id")

	page, err := rt.readUC.GetPage(r.Context(), requestID, pageNumber)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := export.PageToHOCR(requestID, page)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordExport(serviceName, "hocr")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s_page_%d.hocr", requestID, pageNumber)))
	_, _ = w.Write([]byte(doc))
}

func (rt *Router) exportXLSX(w http.ResponseWriter, r *http.Request) {
	pageNumber, ok := pathInt(w, r, "page")
	if !ok {
		return
	}
	requestID := r.PathValue("id")

	page, err := rt.readUC.GetPage(r.Context(), requestID, pageNumber)
	if err != nil {
		writeError(w, err)
		return
	}

	raw, err := export.PageToXLSX(requestID, page)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordExport(serviceName, "xlsx")
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s_page_%d.xlsx", requestID, pageNumber)))
	_, _ = w.Write(raw)
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	value, err := strconv.Atoi(r.PathValue(name))
	if err != nil || value < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": name + " must be a positive integer"})
		return 0, false
	}
	return value, true
}
