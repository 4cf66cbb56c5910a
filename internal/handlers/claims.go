package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/claiminsight/claiminsight-api/internal/models"
	"github.com/claiminsight/claiminsight-api/internal/report"
	"github.com/claiminsight/claiminsight-api/internal/services"
	"github.com/claiminsight/claiminsight-api/internal/tempfile"
	"github.com/claiminsight/claiminsight-api/internal/utils"
)

const (
	// DefaultMaxUploadSize caps uploads when the config carries no limit.
	DefaultMaxUploadSize = 16 << 20 // 16MB

	// DefaultDamageType stands in when the client sends no category.
	DefaultDamageType = "Unknown"

	anonymousUser = "anonymous"
)

type ClaimHandler struct {
	service       services.ClaimService
	files         *tempfile.Store
	maxUploadSize int64
	logger        *utils.Logger
}

func NewClaimHandler(service services.ClaimService, files *tempfile.Store, maxUploadSize int64, logger *utils.Logger) *ClaimHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &ClaimHandler{
		service:       service,
		files:         files,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

func (h *ClaimHandler) sizeLimitError() *utils.AppError {
	return utils.NewBadRequestError(fmt.Sprintf("File size exceeds %dMB limit", h.maxUploadSize>>20))
}

// userID resolves the caller identity once at the boundary. Identity
// verification itself belongs to the external provider; the gateway only
// scopes history by whatever the client tier asserts.
func userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	return anonymousUser
}

// UploadClaim handles POST /api/upload.
func (h *ClaimHandler) UploadClaim(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadSize {
		h.respondError(w, h.sizeLimitError())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			h.respondError(w, h.sizeLimitError())
			return
		}
		h.respondError(w, utils.NewBadRequestError("Invalid form data"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, utils.NewBadRequestError("No file uploaded"))
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.respondError(w, utils.NewBadRequestError("Empty file selection"))
		return
	}

	damageType := r.FormValue("damage_type")
	if damageType == "" {
		damageType = DefaultDamageType
	}
	// The "Other" category carries its label in custom_damage.
	if custom := strings.TrimSpace(r.FormValue("custom_damage")); custom != "" {
		damageType = custom
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondError(w, utils.NewInternalError("Failed to read file"))
		return
	}
	if len(data) == 0 {
		h.respondError(w, utils.NewBadRequestError("Uploaded file is empty"))
		return
	}

	h.logger.Info("Upload received",
		"filename", header.Filename,
		"damage_type", damageType,
		"size", len(data))

	sub := &models.Submission{
		File:       data,
		Filename:   header.Filename,
		DamageType: damageType,
	}

	result, err := h.service.ProcessUpload(r.Context(), userID(r), sub)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// GeneratePDF handles POST /api/download-pdf.
func (h *ClaimHandler) GeneratePDF(w http.ResponseWriter, r *http.Request) {
	var req models.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, utils.NewBadRequestError("Invalid JSON body"))
		return
	}

	pdfBytes, err := report.Render(&req)
	if err != nil {
		h.logger.Error("PDF rendering failed", "error", err)
		h.respondError(w, utils.NewInternalError("PDF generation failed"))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(req.DamageType)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdfBytes); err != nil {
		h.logger.Error("Failed to write PDF response", "error", err)
	}
}

// DownloadSavedFile handles GET /api/download-pdf?filename=name. The
// supplied name is reduced to its base before lookup, so traversal input
// resolves to nothing outside the storage root.
func (h *ClaimHandler) DownloadSavedFile(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("filename")
	if name == "" {
		h.respondError(w, utils.NewBadRequestError("filename query is required"))
		return
	}

	path, err := h.files.Resolve(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			h.respondError(w, utils.NewNotFoundError("File not found"))
			return
		}
		h.logger.Error("Failed to resolve saved file", "error", err, "filename", name)
		h.respondError(w, utils.NewInternalError("Failed to retrieve file"))
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// ListHistory handles GET /api/history.
func (h *ClaimHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListHistory(r.Context(), userID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, entries)
}

// DeleteHistoryEntry handles DELETE /api/history/{id}.
func (h *ClaimHandler) DeleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.respondError(w, utils.NewBadRequestError("History entry ID is required"))
		return
	}

	if err := h.service.DeleteHistoryEntry(r.Context(), userID(r), id); err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// HistoryImage handles GET /api/history/{id}/image.
func (h *ClaimHandler) HistoryImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.respondError(w, utils.NewBadRequestError("History entry ID is required"))
		return
	}

	data, contentType, err := h.service.HistoryImage(r.Context(), userID(r), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *ClaimHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *ClaimHandler) respondError(w http.ResponseWriter, err error) {
	var status int
	var message string

	switch e := err.(type) {
	case *utils.AppError:
		status = e.StatusCode
		message = e.Message
	default:
		status = http.StatusInternalServerError
		message = "Internal server error"
	}

	h.logger.Error("Request error", "status", status, "error", message)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
