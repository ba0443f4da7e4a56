package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/TreyDong/notion-csv-importer/src/config"
	"github.com/TreyDong/notion-csv-importer/src/logger"
	"github.com/TreyDong/notion-csv-importer/src/parsers"
	"github.com/TreyDong/notion-csv-importer/src/security/validation"
	"github.com/TreyDong/notion-csv-importer/src/services"
	"github.com/TreyDong/notion-csv-importer/src/utils"
)

type UploadHandler struct {
	importService services.ImportService
}

func NewUploadHandler(service services.ImportService) *UploadHandler {
	return &UploadHandler{
		importService: service,
	}
}

// HandleUpload accepts a multipart upload of a brokerage export and runs the
// import pipeline against the configured Notion databases. Form fields mirror
// the upload form: file, encoding, limit, batch_size, delay (seconds).
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB (header check)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		logger.L.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		logger.L.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.L.Info("File content validated", "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

	opts, err := importOptionsFromForm(r, fileHeader.Filename)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.L.Info("Processing upload request", "filename", fileHeader.Filename, "format", opts.Format)
	result, err := h.importService.ProcessImport(r.Context(), file, opts)
	if err != nil && result == nil {
		switch {
		case errors.Is(err, parsers.ErrFileDecode):
			utils.SendJSONError(w, fmt.Sprintf("Unable to decode file: %v", err), http.StatusBadRequest)
		case errors.Is(err, services.ErrParsingFailed):
			utils.SendJSONError(w, fmt.Sprintf("Error parsing file: %v", err), http.StatusBadRequest)
		case errors.Is(err, services.ErrDestinationUnavailable):
			utils.SendJSONError(w, "Destination database is unavailable. Please try again later.", http.StatusBadGateway)
		default:
			logger.L.Error("Internal error processing upload", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
		}
		return
	}
	if err != nil {
		// Cancelled mid-run; the partial summary is still worth returning.
		logger.L.Warn("Import ended early, returning partial result", "runID", result.RunID, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding JSON response for upload result", "error", err)
	}
}

// importOptionsFromForm reads the optional form overrides for one run.
func importOptionsFromForm(r *http.Request, filename string) (services.ImportOptions, error) {
	opts := services.ImportOptions{
		Filename: filename,
		Encoding: strings.TrimSpace(r.FormValue("encoding")),
	}

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv", "":
		opts.Format = "csv"
	case ".txt":
		opts.Format = "txt"
	default:
		return opts, fmt.Errorf("unsupported file format %q, upload a CSV or TXT export", ext)
	}

	if v := r.FormValue("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return opts, fmt.Errorf("invalid limit value %q", v)
		}
		opts.RowLimit = limit
	}
	if v := r.FormValue("batch_size"); v != "" {
		batchSize, err := strconv.Atoi(v)
		if err != nil || batchSize <= 0 {
			return opts, fmt.Errorf("invalid batch_size value %q", v)
		}
		opts.BatchSize = batchSize
	}
	if v := r.FormValue("delay"); v != "" {
		delay, err := strconv.Atoi(v)
		if err != nil || delay < 0 {
			return opts, fmt.Errorf("invalid delay value %q", v)
		}
		opts.RequestDelay = time.Duration(delay) * time.Second
	}

	return opts, nil
}
