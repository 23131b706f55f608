package api

import (
	"log/slog"
	"net/http"

	"github.com/docrelay/docrelay/pkg/handlers"
	"github.com/docrelay/docrelay/pkg/routes"
)

// statusHandler reports service diagnostics: the running version and which
// classifier credential chains resolve.
type statusHandler struct {
	runtime *Runtime
	version string
	logger  *slog.Logger
}

func newStatusHandler(runtime *Runtime, version string) *statusHandler {
	return &statusHandler{
		runtime: runtime,
		version: version,
		logger:  runtime.Logger.With("handler", "status"),
	}
}

func (h *statusHandler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/status",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Status},
		},
	}
}

func (h *statusHandler) Status(w http.ResponseWriter, r *http.Request) {
	handlers.Respond(w, http.StatusOK, "ok", map[string]any{
		"version":    h.version,
		"ready":      h.runtime.Lifecycle.Ready(),
		"classifier": h.runtime.Classifier.Status(),
	})
}
