package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

const shutdownTimeout = 5 * time.Second

// NewRouter mounts the table API. ws serves the push stream of a single table.
func NewRouter(h Handlers, ws http.HandlerFunc, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	}))

	r.Get("/ping", h.Ping)
	r.Get("/games", h.ListGames)

	r.Route("/tables", func(rr chi.Router) {
		rr.Post("/", h.CreateTable)

		rr.Route("/{id}", func(tr chi.Router) {
			tr.Get("/", h.GetTable)
			tr.Delete("/", h.CloseTable)
			tr.Post("/moves", h.SubmitMove)
			tr.Post("/reset", h.ResetBoard)
			tr.Post("/scores/reset", h.ResetScores)
		})
	})

	r.Get("/ws/tables/{id}", ws)

	return r
}

// Start serves handler on port until ctx is canceled.
func Start(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
