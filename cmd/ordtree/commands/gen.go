package commands

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/ordtree/pkg/observability"
)

const (
	genCmdUse   = "gen [file]"
	genCmdShort = "Insert pseudo-random keys into a tree file"
	genCmdLong  = `gen inserts --count keys drawn from a generator seeded with --seed. The value
of each key is its insertion index. Random insertion order keeps the
unbalanced tree shallow in practice; use it to produce large sample files.`

	countFlag    = "count"
	seedFlag     = "seed"
	defaultCount = 100000
	defaultSeed  = 5000000
)

// ErrInvalidCount is returned for a negative --count.
var ErrInvalidCount = errors.New("count must not be negative")

func newGenCommand(opts *globalOptions) *cobra.Command {
	var (
		count int
		seed  int64
	)

	cmd := &cobra.Command{
		Use:   genCmdUse,
		Short: genCmdShort,
		Long:  genCmdLong,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := splitPath(args, 0)

			return runGen(cmd, opts, path, count, seed)
		},
	}

	cmd.Flags().IntVarP(&count, countFlag, "n", defaultCount, "number of keys to insert")
	cmd.Flags().Int64Var(&seed, seedFlag, defaultSeed, "random generator seed")

	return cmd
}

func runGen(cmd *cobra.Command, opts *globalOptions, path string, count int, seed int64) (err error) {
	if count < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}

	sess, err := opts.openSession(cmd, path, observability.ModeCLI, nil)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, sess.close(cmd.Context())) }()

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible sample data, not security sensitive.

	for idx := range count {
		err = sess.store.Insert(cmd.Context(), rng.Int63(), int64(idx))
		if err != nil {
			return fmt.Errorf("generated %d of %d keys: %w", idx, count, err)
		}
	}

	stats := sess.store.Stats()
	sess.status(color.FgGreen, "generated %s keys (%s nodes, depth %d)",
		humanize.Comma(int64(count)), humanize.Comma(int64(stats.Size)), stats.Depth)

	return nil
}
