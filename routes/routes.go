package routes

import (
	"net/http"

	"github.com/Dosada05/tournament-signup/handlers"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Options собирает зависимости маршрутизатора. Rate limiter и Google OAuth
// опциональны: nil-лимитер пропускает всё, без OAuth маршруты не монтируются.
type Options struct {
	AuthHandler       *handlers.AuthHandler
	TournamentHandler *handlers.TournamentHandler
	SignupHandler     *handlers.SignupHandler
	StatsHandler      *handlers.StatsHandler
	WebSocketHandler  *handlers.WebSocketHandler

	Identify        func(http.Handler) http.Handler
	SignupRateLimit func(http.Handler) http.Handler

	GoogleEnabled  bool
	AllowedOrigins []string
}

func SetupRoutes(router *chi.Mux, opts Options) {
	signupLimit := opts.SignupRateLimit
	if signupLimit == nil {
		signupLimit = func(next http.Handler) http.Handler { return next }
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	router.Use(opts.Identify)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}` + "\n"))
	})

	router.Post("/auth/register", opts.AuthHandler.Register)
	router.Post("/auth/login", opts.AuthHandler.Login)
	if opts.GoogleEnabled {
		router.Get("/auth/google", opts.AuthHandler.GoogleLogin)
		router.Get("/auth/google/callback", opts.AuthHandler.GoogleCallback)
	}
	router.Get("/logout", opts.AuthHandler.Logout)

	router.Route("/api", func(r chi.Router) {
		r.Get("/me", opts.AuthHandler.Me)

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", opts.TournamentHandler.ListHandler)
			r.Post("/", opts.TournamentHandler.CreateHandler)

			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", opts.TournamentHandler.GetByIDHandler)
				r.Put("/", opts.TournamentHandler.UpdateHandler)
				r.Delete("/", opts.TournamentHandler.DeleteHandler)
				r.Post("/poster", opts.TournamentHandler.UploadPosterHandler)

				r.Get("/signups", opts.SignupHandler.ListHandler)
				r.With(signupLimit).Post("/signups", opts.SignupHandler.CreateHandler)
			})
		})

		r.Route("/signups/{signupID}", func(r chi.Router) {
			r.Patch("/", opts.SignupHandler.SetPaidHandler)
			r.Delete("/", opts.SignupHandler.CancelHandler)
		})

		r.Get("/admin/stats", opts.StatsHandler.GetStatsHandler)
	})

	router.Get("/ws/tournaments/{tournamentID}", opts.WebSocketHandler.ServeWs)
}
