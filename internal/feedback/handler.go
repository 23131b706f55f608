package feedback

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/docrelay/docrelay/pkg/handlers"
	"github.com/docrelay/docrelay/pkg/pagination"
	"github.com/docrelay/docrelay/pkg/routes"
)

// Handler provides HTTP endpoints for feedback and annotation operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "feedback"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for feedback endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/feedback",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "/run-text", Handler: h.RunText},
			{Method: "GET", Pattern: "/stats", Handler: h.Stats},
			{Method: "GET", Pattern: "/{commentID}", Handler: h.Find},
			{Method: "PUT", Pattern: "/{commentID}", Handler: h.UpdateRating},
		},
	}
}

// AnnotationRoutes returns the route group definition for annotation endpoints.
func (h *Handler) AnnotationRoutes() routes.Group {
	return routes.Group{
		Prefix: "/annotations",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/{commentID}/push", Handler: h.PushAnnotation},
			{Method: "GET", Pattern: "/{commentID}", Handler: h.GetAnnotation},
			{Method: "PUT", Pattern: "/{commentID}", Handler: h.UpdateAnnotation},
			{Method: "DELETE", Pattern: "/{commentID}", Handler: h.DeleteAnnotation},
		},
	}
}

// RunText sends a chat-message run and records the exchange.
func (h *Handler) RunText(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query  string         `json:"query"`
		Inputs map[string]any `json:"inputs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	result, err := h.sys.RunText(r.Context(), RunTextCommand{
		Query:  body.Query,
		Inputs: body.Inputs,
		Actor:  handlers.ActorFromRequest(r),
	})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.Respond(w, http.StatusOK, "ok", result)
}

// List returns a windowed list of feedback entries.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.Respond(w, http.StatusOK, "ok", map[string]any{
		"feedback": result.Items,
		"total":    result.Total,
		"skip":     result.Skip,
		"limit":    result.Limit,
	})
}

// Stats returns rating aggregates.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sys.Aggregate(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.Respond(w, http.StatusOK, "ok", stats)
}

// Find returns a single feedback entry by comment id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	commentID, err := parseCommentID(r.PathValue("commentID"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	entry, err := h.sys.Find(r.Context(), commentID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.Respond(w, http.StatusOK, "ok", entry)
}

// UpdateRating sets or clears an entry's rating.
func (h *Handler) UpdateRating(w http.ResponseWriter, r *http.Request) {
	commentID, err := parseCommentID(r.PathValue("commentID"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	var body struct {
		FeedbackType string `json:"feedback_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	entry, err := h.sys.UpdateRating(r.Context(), commentID, body.FeedbackType)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.Respond(w, http.StatusOK, "rating updated", entry)
}

// PushAnnotation publishes an entry's question/answer pair as an annotation.
func (h *Handler) PushAnnotation(w http.ResponseWriter, r *http.Request) {
	commentID, err := parseCommentID(r.PathValue("commentID"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	annotation, err := h.sys.PushAnnotation(r.Context(), commentID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.Respond(w, http.StatusOK, "annotation pushed", annotation)
}

// GetAnnotation fetches the annotation linked to an entry.
func (h *Handler) GetAnnotation(w http.ResponseWriter, r *http.Request) {
	commentID, err := parseCommentID(r.PathValue("commentID"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	annotation, err := h.sys.GetAnnotation(r.Context(), commentID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.Respond(w, http.StatusOK, "ok", annotation)
}

// UpdateAnnotation rewrites the annotation linked to an entry.
func (h *Handler) UpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	commentID, err := parseCommentID(r.PathValue("commentID"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	var body struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	annotation, err := h.sys.UpdateAnnotation(r.Context(), commentID, body.Question, body.Answer)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.Respond(w, http.StatusOK, "annotation updated", annotation)
}

// DeleteAnnotation removes the annotation linked to an entry.
func (h *Handler) DeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	commentID, err := parseCommentID(r.PathValue("commentID"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	if err := h.sys.DeleteAnnotation(r.Context(), commentID); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.Respond(w, http.StatusOK, "annotation deleted", map[string]any{"comment_id": commentID})
}
