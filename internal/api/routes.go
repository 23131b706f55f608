package api

import (
	"net/http"

	"github.com/docrelay/docrelay/internal/config"
	"github.com/docrelay/docrelay/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	feedbackHandler := domain.Feedback.Handler()

	routes.Register(
		mux,
		domain.Documents.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Courses.Handler().Routes(),
		feedbackHandler.Routes(),
		feedbackHandler.AnnotationRoutes(),
		newStatusHandler(runtime, cfg.Version).Routes(),
	)
}
