package http

import (
	"net/http"

	"github.com/rs/cors"
)

// HandleWithCORS allows browsers from any origin to query the given handler.
func HandleWithCORS(h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
	}).Handler(h)
}
