// Package server constructs and starts the relay HTTP service with helpers
// that apply sensible production defaults.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"
)

// CreateServer creates an HTTP server with the given listen address and
// handler, with timeout values fit for long-lived WebSocket workloads.
func CreateServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// StartServer begins listening for connections and blocks until the server
// exits.
func StartServer(server *http.Server) error {
	fmt.Printf("Server listening on %s\n", server.Addr)
	return server.ListenAndServe()
}

// ShutdownServer gracefully stops the HTTP server, waiting for active
// connections to finish or the timeout to elapse.
func ShutdownServer(server *http.Server, timeout time.Duration) error {
	log.Println("server: shutting down HTTP listener...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("server: HTTP shutdown error: %v", err)
		return err
	}

	log.Println("server: HTTP shutdown completed")
	return nil
}
