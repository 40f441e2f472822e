package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/ordtree/pkg/observability"
	"github.com/Sumatoshi-tech/ordtree/pkg/ordtree"
	"github.com/Sumatoshi-tech/ordtree/pkg/treestore"
)

const (
	statsCmdUse   = "stats [file]"
	statsCmdShort = "Show size, depth and key range of a tree file"
	
	dumpCmdUse   = "dump [file]"
	dumpCmdShort = "Print every record in key order"
	
	formatFlag  = "format"
	formatShort = "f"
	formatUsage = "output format: table, json or yaml"

	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"

	notAvailable = "-"
)

// ErrUnknownFormat is returned for an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown output format")

// record is the serialized form of one tree entry.
type record struct {
	Key   int64 `json:"key"   yaml:"key"`
	Value int64 `json:"value" yaml:"value"`
}

func newStatsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   statsCmdUse,
		Short: statsCmdShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := splitPath(args, 0)

			return runStats(cmd, opts, path)
		},
	}
}

func runStats(cmd *cobra.Command, opts *globalOptions, path string) (err error) {
	sess, err := opts.openSession(cmd, path, observability.ModeCLI, nil)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, sess.close(cmd.Context())) }()

	renderStats(sess.out, sess.store.Path(), sess.store.Stats())

	return nil
}

func renderStats(w io.Writer, path string, stats treestore.Stats) {
	minKey, maxKey := notAvailable, notAvailable
	if stats.HasMin {
		minKey = humanize.Comma(stats.Min)
		maxKey = humanize.Comma(stats.Max)
	}

	fileSize := notAvailable

	info, statErr := os.Stat(path)
	if statErr == nil {
		fileSize = humanize.Bytes(uint64(info.Size()))
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(path)
	tbl.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})

	tbl.AppendRows([]table.Row{
		{"Nodes", humanize.Comma(int64(stats.Size))},
		{"Depth", humanize.Comma(int64(stats.Depth))},
		{"Min key", minKey},
		{"Max key", maxKey},
		{"File size", fileSize},
		{"Record width", humanize.Bytes(uint64(ordtree.RecordWidth[int64](ordtree.Int64Codec{})))},
	})

	tbl.Render()
}

func newDumpCommand(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   dumpCmdUse,
		Short: dumpCmdShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := splitPath(args, 0)

			return runDump(cmd, opts, path, format)
		},
	}

	cmd.Flags().StringVarP(&format, formatFlag, formatShort, formatTable, formatUsage)

	return cmd
}

func runDump(cmd *cobra.Command, opts *globalOptions, path, format string) (err error) {
	switch format {
	case formatTable, formatJSON, formatYAML:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	sess, err := opts.openSession(cmd, path, observability.ModeCLI, nil)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, sess.close(cmd.Context())) }()

	entries := sess.store.Entries()

	switch format {
	case formatJSON:
		return writeJSON(sess.out, toRecords(entries))
	case formatYAML:
		return writeYAML(sess.out, toRecords(entries))
	default:
		writeTable(sess.out, entries)

		return nil
	}
}

func toRecords(entries []ordtree.Entry[int64]) []record {
	records := make([]record, 0, len(entries))

	for _, entry := range entries {
		records = append(records, record{Key: entry.Key, Value: entry.Value})
	}

	return records
}

func writeJSON(w io.Writer, records []record) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(records)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

func writeYAML(w io.Writer, records []record) error {
	encoder := yaml.NewEncoder(w)

	err := encoder.Encode(records)
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	err = encoder.Close()
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	return nil
}

func writeTable(w io.Writer, entries []ordtree.Entry[int64]) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Key", "Value"})

	for _, entry := range entries {
		tbl.AppendRow(table.Row{entry.Key, entry.Value})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d records", len(entries))})
	tbl.Render()
}
