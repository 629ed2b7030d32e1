package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gridci/gridci/internal/ctxlog"
)

// startHealthcheckServer runs the HTTP health endpoint in the background.
// It exists for deployments where gridci runs as a long-lived runner agent
// behind a process supervisor. The server is tied to ctx: it shuts down
// when the run ends, so repeated App.Run calls never leak listeners. The
// bound address is returned; empty means the listener could not be opened.
func (a *App) startHealthcheckServer(ctx context.Context, port int) string {
	logger := ctxlog.FromContext(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})

	addr := fmt.Sprintf(":%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("Health check server could not listen.", "address", addr, "error", err)
		return ""
	}

	server := &http.Server{Handler: mux}

	go func() {
		logger.Info("🩺 Health check server starting.", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly.", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Debug("Health check server shutdown.", "error", err)
		}
	}()

	return listener.Addr().String()
}
