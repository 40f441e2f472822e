// Package commands implements the ordtree CLI subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/ordtree/pkg/config"
	"github.com/Sumatoshi-tech/ordtree/pkg/observability"
	"github.com/Sumatoshi-tech/ordtree/pkg/treestore"
	"github.com/Sumatoshi-tech/ordtree/pkg/version"
)

const (
	rootCmdUse   = "ordtree"
	rootCmdShort = "Build, inspect and edit ordered tree files"
	rootCmdLong  = `ordtree manages flat binary tree files: fixed-width records of an int64 key
and an int64 value, written in pre-order. Commands take the tree file as an
optional first argument; without it storage.path from the config is used.

Settings are read from config.yaml (., ./config, /etc/ordtree) or --config,
and can be overridden with ORDTREE_* environment variables.`

	configFlag  = "config"
	verboseFlag = "verbose"
	quietFlag   = "quiet"
	noColorFlag = "no-color"
)

// Sentinel command errors.
var (
	ErrInvalidKey   = errors.New("invalid key")
	ErrInvalidValue = errors.New("invalid value")
	ErrKeyNotFound  = errors.New("key not found")
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	verbose    bool
	quiet      bool
	noColor    bool
}

// NewRootCommand creates the ordtree command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           rootCmdUse,
		Short:         rootCmdShort,
		Long:          rootCmdLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.noColor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, configFlag, "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, verboseFlag, "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, quietFlag, "q", false, "suppress output")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, noColorFlag, false, "disable colored output")

	rootCmd.AddCommand(
		newInsertCommand(opts),
		newGetCommand(opts),
		newRemoveCommand(opts),
		newStatsCommand(opts),
		newDumpCommand(opts),
		newGenCommand(opts),
		newServeCommand(opts),
		newVersionCommand(),
	)

	return rootCmd
}

// session is the per-invocation state: configuration, telemetry and the
// open store.
type session struct {
	opts      *globalOptions
	cfg       *config.Config
	providers observability.Providers
	store     *treestore.Store
	out       io.Writer
}

func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

func (o *globalOptions) telemetry(cfg *config.Config, mode observability.AppMode, path string) observability.Config {
	obsCfg := cfg.Telemetry(mode, version.Version)
	obsCfg.Storage.Path = path

	switch {
	case o.verbose:
		obsCfg.LogLevel = slog.LevelDebug
	case o.quiet:
		obsCfg.LogLevel = slog.LevelError
	}

	return obsCfg
}

// openSession loads the configuration, starts telemetry and opens the tree
// file at path, or at storage.path when path is empty. metrics may be nil; the
// CLI modes then get instruments built on the global meter.
func (o *globalOptions) openSession(
	cmd *cobra.Command, path string, mode observability.AppMode, metrics *observability.TreeMetrics,
) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = cfg.Storage.Path
	}

	providers, err := observability.InitWithWriter(o.telemetry(cfg, mode, path), cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	if metrics == nil {
		metrics, err = observability.NewTreeMetrics(providers.Meter)
		if err != nil {
			return nil, errors.Join(err, providers.Shutdown(cmd.Context()))
		}
	}

	store, err := treestore.Open(cmd.Context(), treestore.Options{
		Path:     path,
		Compress: cfg.Storage.Compress,
		MaxNodes: cfg.Storage.MaxNodes,
		Logger:   providers.Logger,
		Metrics:  metrics,
		Tracer:   providers.Tracer,
	})
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(cmd.Context()))
	}

	return &session{
		opts:      o,
		cfg:       cfg,
		providers: providers,
		store:     store,
		out:       cmd.OutOrStdout(),
	}, nil
}

// close closes the store, flushing pending changes, and shuts telemetry down.
func (s *session) close(ctx context.Context) error {
	return errors.Join(s.store.Close(ctx), s.providers.Shutdown(ctx))
}

// status prints a colored status line unless --quiet is set.
func (s *session) status(attr color.Attribute, format string, args ...any) {
	if s.opts.quiet {
		return
	}

	color.New(attr).Fprintf(s.out, format+"\n", args...)
}

// splitPath separates the optional leading file argument from the want
// positional arguments that follow it.
func splitPath(args []string, want int) (string, []string) {
	if len(args) > want {
		return args[0], args[1:]
	}

	return "", args
}

func parseKey(raw string) (int64, error) {
	key, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidKey, raw, err)
	}

	return key, nil
}

func parseValue(raw string) (int64, error) {
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidValue, raw, err)
	}

	return value, nil
}
