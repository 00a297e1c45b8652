// Package api wires the HTTP surface of the suggestion backend.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"habitquest/internal/api/handlers"
	"habitquest/internal/api/middleware"
	"habitquest/internal/api/response"
	"habitquest/internal/apperrors"
	"habitquest/internal/logging"
	"habitquest/internal/storage"
	"habitquest/internal/suggest"
)

// Router is the top-level HTTP router
type Router struct {
	mux   *chi.Mux
	users storage.UserStore
}

// NewRouter builds the router over the suggestion service and stores
func NewRouter(service *suggest.Service, users storage.UserStore, catalog storage.CatalogStore, logger logging.Logger) *Router {
	r := &Router{
		mux:   chi.NewRouter(),
		users: users,
	}

	suggestions := handlers.NewSuggestionHandler(service)
	tasks := handlers.NewTaskHandler(service, users, catalog)

	r.mux.Use(middleware.NewLoggingMiddleware(logger).Handler())

	r.mux.Get("/healthz", r.health)

	r.mux.Route("/api/v1", func(rtr chi.Router) {
		rtr.Get("/tasks", tasks.ListCatalog)

		rtr.Route("/users/{userID}", func(userRouter chi.Router) {
			userRouter.Post("/", tasks.Register)
			userRouter.Get("/daily-tasks", tasks.DailyTasks)
			userRouter.Get("/rerolls", suggestions.GetRerollBudget)
			userRouter.Post("/tasks/{taskID}/complete", tasks.Complete)

			userRouter.Route("/suggestions", func(sugRouter chi.Router) {
				sugRouter.Get("/", suggestions.GetSuggestions)
				sugRouter.Post("/reroll", suggestions.Reroll)
				sugRouter.Post("/confirm", suggestions.Confirm)
			})
		})
	})

	return r
}

// Handler returns the router as an http.Handler
func (r *Router) Handler() http.Handler {
	return r.mux
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	if err := r.users.HealthCheck(req.Context()); err != nil {
		response.WriteError(w, http.StatusServiceUnavailable, apperrors.ErrorCodeStoreError, "user store unreachable")
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
