package documents

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/docrelay/docrelay/pkg/handlers"
	"github.com/docrelay/docrelay/pkg/pagination"
	"github.com/docrelay/docrelay/pkg/routes"
)

// Handler provides HTTP endpoints for document operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, pagination config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "documents"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for document endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Upload},
			{Method: "GET", Pattern: "/{fileID}", Handler: h.Find},
			{Method: "DELETE", Pattern: "/{fileID}", Handler: h.Delete},
			{Method: "PUT", Pattern: "/{fileID}/replace", Handler: h.Replace},
			{Method: "PUT", Pattern: "/{fileID}/classification", Handler: h.Relabel},
			{Method: "GET", Pattern: "/{fileID}/text", Handler: h.Text},
			{Method: "GET", Pattern: "/{fileID}/download", Handler: h.Download},
		},
	}
}

// Upload ingests a multipart file upload and classifies it. A failed
// classification still answers 200; the failure rides along in the data.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	access := r.FormValue("access")
	if access == "" {
		access = "FREE"
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), data)

	cmd := IngestCommand{
		Data:        data,
		Filename:    header.Filename,
		ContentType: contentType,
		Access:      access,
		PageCount:   extractPDFPageCount(h.logger, data, contentType),
		Actor:       handlers.ActorFromRequest(r),
	}

	result, err := h.sys.Ingest(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	message := "file uploaded and classified"
	if result.Failed {
		message = "file uploaded but classification failed"
	}
	handlers.Respond(w, http.StatusOK, message, result)
}

// List returns a windowed list of documents with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.Respond(w, http.StatusOK, "ok", map[string]any{
		"documents": result.Items,
		"total":     result.Total,
		"skip":      result.Skip,
		"limit":     result.Limit,
	})
}

// Find returns a single document by its external file id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	doc, err := h.sys.Find(r.Context(), r.PathValue("fileID"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.Respond(w, http.StatusOK, "ok", doc)
}

// Replace swaps the stored file behind a document record. The reclassify
// form value re-runs the classification pipeline over the new bytes.
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	var access *string
	if a := r.FormValue("access"); a != "" {
		access = &a
	}

	reclassify := false
	if v := r.FormValue("reclassify"); v != "" {
		reclassify, _ = strconv.ParseBool(v)
	}

	cmd := ReplaceCommand{
		FileID:      r.PathValue("fileID"),
		Data:        data,
		Filename:    header.Filename,
		ContentType: detectContentType(header.Header.Get("Content-Type"), data),
		Access:      access,
		Reclassify:  reclassify,
		Actor:       handlers.ActorFromRequest(r),
	}

	doc, err := h.sys.Replace(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	message := "file replaced"
	if reclassify {
		message = "file replaced and resubmitted for classification"
	}
	handlers.Respond(w, http.StatusOK, message, doc)
}

// Relabel manually overwrites a document's classification.
func (h *Handler) Relabel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Classification string `json:"classification"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	doc, err := h.sys.Relabel(
		r.Context(),
		r.PathValue("fileID"),
		body.Classification,
		handlers.ActorFromRequest(r),
	)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.Respond(w, http.StatusOK, "classification updated", doc)
}

// Delete removes a document's blob and record.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	doc, err := h.sys.Delete(r.Context(), r.PathValue("fileID"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.Respond(w, http.StatusOK, "document deleted", map[string]any{
		"deleted_id":       doc.ID,
		"filename":         doc.Filename,
		"external_file_id": doc.ExternalFileID,
	})
}

// Text returns a plain-text preview of the stored file.
func (h *Handler) Text(w http.ResponseWriter, r *http.Request) {
	text, err := h.sys.PlainText(r.Context(), r.PathValue("fileID"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.Respond(w, http.StatusOK, "ok", map[string]any{"text": text})
}

// Download streams the stored file as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	doc, rc, err := h.sys.OpenBlob(r.Context(), r.PathValue("fileID"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", doc.Filename),
	)

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("download interrupted",
			"external_file_id", doc.ExternalFileID,
			"error", err,
		)
	}
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}

func extractPDFPageCount(logger *slog.Logger, data []byte, contentType string) *int {
	if contentType != "application/pdf" {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}

	return &count
}
