package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"keypad-calculator/internal/calculator"
	"keypad-calculator/internal/handlers"
	"keypad-calculator/internal/observability"
)

// NewRouter wires middleware, the operational endpoints and the calculator API.
func NewRouter(calc *calculator.Handler) http.Handler {

	r := chi.NewRouter()

	r.Use(observability.RequestIDMiddleware)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", handlers.Health)

	r.Handle("/metrics", observability.PrometheusHandler())

	calc.RegisterRoutes(r)

	return r
}
