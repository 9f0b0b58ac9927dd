package routes

import (
	"net/http"

	"github.com/Dosada05/worldcup/docs"
	"github.com/Dosada05/worldcup/handlers"
	"github.com/Dosada05/worldcup/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Worldcup  *handlers.WorldcupHandler
	Comment   *handlers.CommentHandler
	Candidate *handlers.CandidateHandler
	Bucket    *handlers.BucketHandler
	Game      *handlers.GameHandler
	Ranking   *handlers.RankingHandler
	WebSocket *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, h Handlers, auth *middleware.JWTAuth, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(docs.SwaggerJSON)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Веб-сокет рейтинга не требует авторизации
	router.Get("/ws/ranking/{worldcupID}", h.WebSocket.ServeRanking)

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.With(auth.Authenticate).Get("/me", h.Auth.Me)
		})

		r.Route("/worldcups", func(r chi.Router) {
			r.Get("/", h.Worldcup.List)
			r.Get("/keywords", h.Worldcup.Keywords)
			r.With(auth.Authenticate).Get("/mine", h.Worldcup.Mine)
			r.With(auth.Authenticate).Post("/", h.Worldcup.Create)

			r.Route("/{worldcupID}", func(r chi.Router) {
				r.Get("/", h.Worldcup.Get)
				r.Get("/rounds", h.Worldcup.Rounds)
				r.Get("/comments", h.Comment.List)

				r.Group(func(r chi.Router) {
					r.Use(auth.Authenticate)
					r.Delete("/", h.Worldcup.Delete)
					r.Post("/comments", h.Comment.Create)
				})
			})
		})

		r.With(auth.Authenticate).Delete("/comments/{commentID}", h.Comment.Delete)

		r.Route("/candidates", func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/", h.Candidate.Add)
			r.Patch("/{key}", h.Candidate.Update)
			r.Delete("/{key}", h.Candidate.Delete)
		})

		r.With(auth.Authenticate).Post("/bucket/presigned-urls", h.Bucket.PresignedURLs)

		// Голосовать можно анонимно; токен, если есть, задаёт демографию голоса.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth)
			r.Get("/games/{worldcupID}/candidates", h.Game.StartRun)
			r.Post("/games/pick", h.Game.Pick)
			r.Post("/ranking/current", h.Game.MatchResult)
			r.Post("/ranking/final", h.Game.FinalResult)
		})

		r.Get("/ranking/candidates/{candidateID}", h.Ranking.Detail)
		r.Get("/ranking/{worldcupID}", h.Ranking.Ranking)
	})
}
