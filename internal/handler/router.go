package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/happening-registration/internal/admission"
	"github.com/Shivanand-hulikatti/happening-registration/internal/config"
)

const adminRealm = "happening-registration"

// NewRouter builds the full HTTP surface. Every route passes the admission
// limiter; administrative routes also require basic auth.
func NewRouter(h *Handler, limiter admission.Limiter, auth config.AuthConfig, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(Admission(limiter, log))

	admin := chimiddleware.BasicAuth(adminRealm, map[string]string{auth.AdminUser: auth.AdminKey})

	r.Get("/status", Status)

	r.Route("/registration", func(r chi.Router) {
		r.Post("/", h.PostRegistration)
		r.Get("/{link}", h.GetRegistrations)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Get("/", h.GetRegistrationCounts)
			r.Delete("/", h.DeleteRegistration)
		})
	})

	r.Route("/happening", func(r chi.Router) {
		r.Use(admin)
		r.Put("/", h.PutHappening)
		r.Delete("/", h.DeleteHappening)
		r.Get("/{slug}", h.GetHappening)
	})

	return r
}
