package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var devCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// CORS allows the storefront origin plus local dev hosts. Credentials stay on
// because the session rides in a cookie.
func CORS(storeBaseURL string) func(http.Handler) http.Handler {
	origins := devCORSOrigins
	if storeBaseURL != "" {
		origins = append([]string{storeBaseURL}, origins...)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
