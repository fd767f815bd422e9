package httpserver

import (
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
)

// New builds the API server. The write deadline leaves room past the
// request timeout so a timed out handler can still write its error.
func New(addr string, handler http.Handler, requestTimeout time.Duration) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
	if requestTimeout > 0 {
		srv.WriteTimeout = requestTimeout + 5*time.Second
	}
	return srv
}
