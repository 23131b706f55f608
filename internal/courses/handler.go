package courses

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/docrelay/docrelay/pkg/handlers"
	"github.com/docrelay/docrelay/pkg/pagination"
	"github.com/docrelay/docrelay/pkg/routes"
)

// Handler provides HTTP endpoints for course operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "courses"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for course endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/courses",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "/workflow", Handler: h.StartWorkflow},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// StartWorkflow runs the course-generation workflow and stores the result.
func (h *Handler) StartWorkflow(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Visibility  string `json:"visibility"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	cmd := WorkflowCommand{
		Title:       body.Title,
		Description: body.Description,
		Visibility:  body.Visibility,
		Actor:       handlers.ActorFromRequest(r),
	}

	outcome, err := h.sys.StartWorkflow(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	message := "course generated"
	if outcome.DatabaseError != "" {
		message = "course generated but not saved"
	}
	handlers.Respond(w, http.StatusOK, message, outcome)
}

// List returns a windowed list of courses with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.Respond(w, http.StatusOK, "ok", map[string]any{
		"courses": result.Items,
		"total":   result.Total,
		"skip":    result.Skip,
		"limit":   result.Limit,
	})
}

// Find returns a single course by id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	course, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.Respond(w, http.StatusOK, "ok", course)
}

// Update applies a partial update to a course.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	var cmd UpdateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	course, err := h.sys.Update(r.Context(), id, cmd, handlers.ActorFromRequest(r))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.Respond(w, http.StatusOK, "course updated", course)
}

// Delete removes a course by id.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	if err := h.sys.Delete(r.Context(), id, handlers.ActorFromRequest(r)); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.Respond(w, http.StatusOK, "course deleted", map[string]any{"deleted_id": id})
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
