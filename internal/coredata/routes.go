package coredata

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the public read surface and the authenticated write
// surface. The throttle applies only to the public routes; data-entry
// tooling on the write paths is trusted not to hammer us.
func SetupRoutes(auth, throttle func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(throttle)
		r.Get("/public/states/info", StatesInfoHandler)
		r.Get("/public/states/daily", StatesDailyHandler)
		r.Get("/public/states/{state}/daily", StateDailyHandler)
		r.Get("/public/us/daily", USDailyHandler)
		r.Get("/batches", GetBatchesHandler)
		r.Get("/batches/{id}", GetBatchHandler)
	})

	// Data-entry routes
	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Post("/batches", PostBatchesHandler)
		r.Post("/batches/edit", PostEditBatchesHandler)
		r.Post("/batches/{id}/publish", PublishBatchHandler)
		r.Post("/states/edit", EditStateHandler)
	})

	return r
}
