package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mailproof/mailproof/server/api"
)

func setupRouter(server *api.Server, cfg *ServeConfig, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.WriteTimeout))
	r.Use(middleware.RequestSize(cfg.MaxRequestSize))

	if cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Use(middleware.Compress(5))

	r.Get("/health", server.HandleHealth)
	r.Get("/circuits", server.HandleListCircuits)

	r.Post("/witness", server.HandleWitness)
	r.Post("/prove", server.HandleProve)
	r.Post("/verify/{circuit}", server.HandleVerify)

	if cfg.EnablePprof {
		r.Mount("/debug", middleware.Profiler())
	}

	return r
}
