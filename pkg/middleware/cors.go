package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS restricts browser access to the configured dashboard origins.
// The surface is read-heavy: GET for dashboard data, POST for the manual
// sync trigger and PUT for the KPI config update. Credentials stay on so
// the bearer token survives cross-origin requests.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return c.Handler
}
