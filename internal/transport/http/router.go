package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig gathers the handlers and settings the HTTP surface needs.
type RouterConfig struct {
	Users       *UserHandler
	Quizzes     *QuizHandler
	Images      *ImageHandler
	Live        *WSHandler
	Sessions    SessionVerifier
	FrontendURL string
	// AssetsDir, when set, is served under /assets/.
	AssetsDir string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if cfg.FrontendURL != "" {
		origins = []string{cfg.FrontendURL}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: cfg.FrontendURL != "",
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<h1>Welcome to Quizzie web app</h1>"))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.AssetsDir != "" {
		r.With(assetHeaders).Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(cfg.AssetsDir))))
	}

	authed := requireAuth(cfg.Sessions)
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/account", func(r chi.Router) {
			r.Post("/signup", cfg.Users.Signup)
			r.Post("/login", cfg.Users.Login)
			r.Post("/logout", cfg.Users.Logout)
			r.With(authed).Get("/profile", cfg.Users.Profile)
			r.With(authed).Patch("/update-profile", cfg.Users.UpdateProfile)
		})
		r.Route("/quiz", func(r chi.Router) {
			r.With(authed).Post("/newquiz", cfg.Quizzes.Create)
			r.With(authed).Get("/dashboard", cfg.Quizzes.Dashboard)
			r.With(authed).Get("/analysis", cfg.Quizzes.History)
			if cfg.Images != nil {
				r.With(authed).Post("/images", cfg.Images.Upload)
			}
			r.Route("/{quizID}", func(r chi.Router) {
				r.Get("/", cfg.Quizzes.Get)
				r.Post("/qna", cfg.Quizzes.AttemptQNA)
				r.Post("/poll", cfg.Quizzes.AttemptPoll)
				r.With(authed).Delete("/delete", cfg.Quizzes.Delete)
				r.With(authed).Put("/update", cfg.Quizzes.Update)
				r.With(authed).Get("/analysis", cfg.Quizzes.Analysis)
				if cfg.Live != nil {
					r.With(authed).Get("/live", cfg.Live.ServeLive)
				}
			})
		})
	})
	return r
}

// assetHeaders stops browsers from treating uploaded files as anything but their declared type.
func assetHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
		next.ServeHTTP(w, r)
	})
}
