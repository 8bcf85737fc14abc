package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server tuned for this service. Read timeouts are generous
// because import analysis accepts multi-thousand-row JSON bodies; per-request
// deadlines are enforced by the router's timeout middleware instead.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
