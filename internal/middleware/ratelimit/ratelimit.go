package rateLimit

import (
	"net/http"
	"time"

	httprate "github.com/go-chi/httprate"
)

func ResetRequest() func(http.Handler) http.Handler {
	return limitByIP(5, 15*time.Minute)
}

func ResetConfirm() func(http.Handler) http.Handler {
	return limitByIP(10, 15*time.Minute)
}

func limitByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window)
}
