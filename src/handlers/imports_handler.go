package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/TreyDong/notion-csv-importer/src/logger"
	"github.com/TreyDong/notion-csv-importer/src/services"
	"github.com/TreyDong/notion-csv-importer/src/utils"
)

type ImportsHandler struct {
	importService services.ImportService
}

func NewImportsHandler(service services.ImportService) *ImportsHandler {
	return &ImportsHandler{
		importService: service,
	}
}

// HandleListImports returns the most recent import runs from the ledger.
func (h *ImportsHandler) HandleListImports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			utils.SendJSONError(w, "invalid limit query parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	runs, err := h.importService.ListImportRuns(r.Context(), limit)
	if err != nil {
		logger.L.Error("Error listing import runs", "error", err)
		utils.SendJSONError(w, "Error retrieving import history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(runs); err != nil {
		logger.L.Error("Error encoding import runs response", "error", err)
	}
}

// HandleGetImport returns one import run summary, including per-row failures.
func (h *ImportsHandler) HandleGetImport(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	if runID == "" {
		utils.SendJSONError(w, "missing import run id", http.StatusBadRequest)
		return
	}

	result, err := h.importService.GetImportResult(r.Context(), runID)
	if err != nil {
		logger.L.Warn("Import run not found", "runID", runID, "error", err)
		utils.SendJSONError(w, "Import run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding import run response", "runID", runID, "error", err)
	}
}
