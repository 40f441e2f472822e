package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/ordtree/pkg/observability"
)

const (
	serveCmdUse   = "serve [file]"
	serveCmdShort = "Expose tree size and depth as Prometheus metrics"
	serveCmdLong  = `serve loads a tree file and serves /metrics, /healthz and /readyz until
interrupted. The listen address defaults to metrics.addr from the config.`

	addrFlag = "addr"

	serveShutdownTimeout = 5 * time.Second
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   serveCmdUse,
		Short: serveCmdShort,
		Long:  serveCmdLong,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := splitPath(args, 0)

			return runServe(cmd, opts, path, addr)
		},
	}

	cmd.Flags().StringVar(&addr, addrFlag, "", "listen address (default metrics.addr)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *globalOptions, path, addr string) (err error) {
	var metrics *observability.TreeMetrics

	handler, err := observability.PrometheusHandler(func(meter metric.Meter) error {
		var buildErr error

		metrics, buildErr = observability.NewTreeMetrics(meter)

		return buildErr
	})
	if err != nil {
		return fmt.Errorf("metrics handler: %w", err)
	}

	sess, err := opts.openSession(cmd, path, observability.ModeServe, metrics)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, sess.close(context.WithoutCancel(cmd.Context()))) }()

	if addr == "" {
		addr = sess.cfg.Metrics.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, sess, addr, handler)
}

func serve(ctx context.Context, sess *session, addr string, metrics http.Handler) error {
	srv, err := observability.NewDiagnosticsServer(
		ctx, addr, metrics, sess.providers.Tracer, sess.providers.Logger, sess.store.Ready,
	)
	if err != nil {
		return err
	}

	sess.providers.Logger.InfoContext(ctx, "serving metrics", "addr", srv.Addr(), "path", sess.store.Path())
	sess.status(color.FgGreen, "serving on http://%s", srv.Addr())

	select {
	case <-ctx.Done():
	case serveErr := <-srv.Done():
		if serveErr != nil {
			return fmt.Errorf("serve: %w", serveErr)
		}

		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serveShutdownTimeout)
	defer cancel()

	err = srv.Close(shutdownCtx)
	if err != nil {
		return err
	}

	sess.providers.Logger.InfoContext(shutdownCtx, "server stopped")

	return <-srv.Done()
}
