package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// readHeaderTimeout bounds how long a scrape may take to send its headers.
const readHeaderTimeout = 5 * time.Second

// DiagnosticsServer exposes /healthz, /readyz and /metrics over HTTP.
type DiagnosticsServer struct {
	server   *http.Server
	listener net.Listener
	done     chan error
}

// NewDiagnosticsServer listens on addr and starts serving metrics (usually
// from PrometheusHandler) plus the health endpoints. Requests are traced with
// tracer and logged on logger.
func NewDiagnosticsServer(
	ctx context.Context,
	addr string,
	metrics http.Handler,
	tracer trace.Tracer,
	logger *slog.Logger,
	checks ...ReadyCheck,
) (*DiagnosticsServer, error) {
	mux := http.NewServeMux()

	mux.Handle("/healthz", HealthHandler())
	mux.Handle("/readyz", ReadyHandler(checks...))
	mux.Handle("/metrics", metrics)

	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           HTTPMiddleware(tracer, logger, mux),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	done := make(chan error, 1)

	go func() {
		serveErr := srv.Serve(listener)
		if errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}

		done <- serveErr
	}()

	return &DiagnosticsServer{server: srv, listener: listener, done: done}, nil
}

// Addr returns the address the server is listening on.
func (d *DiagnosticsServer) Addr() string {
	return d.listener.Addr().String()
}

// Done delivers the serve error, nil after a clean Close, once the server stops.
func (d *DiagnosticsServer) Done() <-chan error {
	return d.done
}

// Close gracefully shuts down the server, waiting for in-flight requests
// until ctx expires.
func (d *DiagnosticsServer) Close(ctx context.Context) error {
	err := d.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown diagnostics server: %w", err)
	}

	return nil
}
