package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meetup-planner/app/internal/api/handlers"
	mw "github.com/meetup-planner/app/internal/api/middleware"
	"github.com/meetup-planner/app/internal/api/views"
	"github.com/meetup-planner/app/internal/services"
	"github.com/meetup-planner/app/internal/session"
	"github.com/meetup-planner/app/pkg/metrics"
)

type Dependencies struct {
	Views         *views.Renderer
	Sessions      *session.Manager
	Auth          services.AuthService
	Proposals     services.ProposalService
	Meetups       services.MeetupService
	Notifications services.NotificationService
	Metrics       *metrics.Metrics
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
	DB       handlers.Pinger
	// LoginLimiter throttles credential POSTs. Defaults to 5 rps, burst 10.
	LoginLimiter *mw.Limiter
	// TrustProxy derives the client address from forwarding headers.
	TrustProxy bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	// Built-in middleware
	if dep.TrustProxy {
		r.Use(chimid.RealIP)
	}
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.Metrics(dep.Metrics))
	r.Use(chimid.Compress(5))

	// Health endpoints
	hh := handlers.NewHealthHandler(dep.DB)
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)
	if dep.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(dep.Gatherer, promhttp.HandlerOpts{}))
	}

	limiter := dep.LoginLimiter
	if limiter == nil {
		limiter = mw.NewLimiter(5, 10)
	}

	home := handlers.NewHomeHandler(dep.Views, dep.Proposals, dep.Meetups, dep.Notifications)
	auth := handlers.NewAuthHandler(dep.Views, dep.Auth, dep.Sessions)
	proposals := handlers.NewProposalsHandler(dep.Views, dep.Proposals)
	meetups := handlers.NewMeetupsHandler(dep.Views, dep.Meetups)

	r.Group(func(site chi.Router) {
		site.Use(mw.Session(dep.Sessions, dep.Auth))

		site.Get("/", home.Index)
		site.Get("/login", auth.LoginForm)
		site.With(limiter.Middleware).Post("/login", auth.Login)
		site.Get("/register", auth.RegisterForm)
		site.With(limiter.Middleware).Post("/register", auth.Register)
		site.Get("/proposal/{id}", proposals.View)
		site.Get("/meetup/{id}", meetups.View)

		// Signed-in routes
		site.Group(func(protected chi.Router) {
			protected.Use(mw.RequireAuth)

			protected.Get("/proposal/new", proposals.New)
			protected.Post("/proposal/new", proposals.Create)
			protected.Post("/proposal/{id}/suggest", proposals.Suggest)
			protected.Post("/suggestion/{id}/vote", proposals.Vote)
			protected.Post("/proposal/{id}/finalize", proposals.Finalize)
			protected.Post("/meetup/{id}/rsvp", meetups.RSVP)
			protected.Get("/logout", auth.Logout)
			protected.Post("/logout", auth.Logout)
		})
	})

	r.NotFound(handlers.NewErrorHandler(dep.Views).NotFound)

	return r
}
