package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crewhub/membership-service/internal/application"
)

type Handler struct {
	service *application.Service
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

func NewRouter(logger *slog.Logger, handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ready") })

	r.Route("/extension-requests", func(r chi.Router) {
		r.Use(handler.authMiddleware)
		r.Post("/", handler.createExtensionRequest)
		r.Get("/", handler.listExtensionRequests)
		r.Get("/self", handler.getSelfExtensionRequests)
		r.Get("/{id}", handler.getExtensionRequest)
		r.Patch("/{id}/status", handler.updateExtensionRequestStatus)
		r.Patch("/{id}", handler.updateExtensionRequestDetails)
	})

	r.Route("/v1/users/status", func(r chi.Router) {
		r.Use(handler.authMiddleware)
		// /update must be registered before the {userId} routes so the sweep
		// trigger is not captured as a user id.
		r.Patch("/update", handler.sweepUserStatuses)
		r.Get("/{userId}", handler.getUserStatus)
		r.Patch("/{userId}", handler.setUserStatus)
	})

	r.Route("/logs", func(r chi.Router) {
		r.Use(handler.authMiddleware)
		r.Get("/{type}", handler.listAuditLogs)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(handler.authMiddleware)
		r.Post("/", handler.createTask)
		r.Get("/{id}", handler.getTask)
	})

	return r
}
