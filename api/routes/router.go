// Package routes assembles the stub API server's router: the three wire
// endpoints the widget calls, plus health.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mysellkit/popup-engine/api/controllers"
	"github.com/mysellkit/popup-engine/api/middleware"
	"github.com/mysellkit/popup-engine/internal/catalog"
	"github.com/mysellkit/popup-engine/pkg/config"
	"github.com/mysellkit/popup-engine/pkg/logger"
)

func NewRouter(cfg *config.Config, logg *logger.Logger, svc *catalog.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
	})

	r.Get("/get-popup-config", controllers.GetPopupConfig(svc, logg))
	r.Post("/track-event", controllers.TrackEvent(svc, logg))
	r.Post("/create-checkout-session", controllers.CreateCheckoutSession(svc, logg))

	return r
}
