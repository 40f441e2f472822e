package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/ordtree/pkg/observability"
)

const (
	insertCmdUse   = "insert [file] <key> <value>"
	insertCmdShort = "Insert a key and value, creating the file if needed"
	insertArgCount = 2

	getCmdUse   = "get [file] <key>"
	getCmdShort = "Print the value stored under a key"
	getArgCount = 1

	removeCmdUse   = "remove [file] <key>"
	removeCmdShort = "Remove the first node holding a key"
	removeArgCount = 1
)

func newInsertCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   insertCmdUse,
		Short: insertCmdShort,
		Args:  cobra.RangeArgs(insertArgCount, insertArgCount+1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, rest := splitPath(args, insertArgCount)

			return runInsert(cmd, opts, path, rest[0], rest[1])
		},
	}
}

func runInsert(cmd *cobra.Command, opts *globalOptions, path, rawKey, rawValue string) (err error) {
	key, err := parseKey(rawKey)
	if err != nil {
		return err
	}

	value, err := parseValue(rawValue)
	if err != nil {
		return err
	}

	sess, err := opts.openSession(cmd, path, observability.ModeCLI, nil)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, sess.close(cmd.Context())) }()

	err = sess.store.Insert(cmd.Context(), key, value)
	if err != nil {
		return err
	}

	sess.status(color.FgGreen, "inserted %d = %d (%d nodes)", key, value, sess.store.Stats().Size)

	return nil
}

func newGetCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   getCmdUse,
		Short: getCmdShort,
		Args:  cobra.RangeArgs(getArgCount, getArgCount+1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, rest := splitPath(args, getArgCount)

			return runGet(cmd, opts, path, rest[0])
		},
	}
}

func runGet(cmd *cobra.Command, opts *globalOptions, path, rawKey string) (err error) {
	key, err := parseKey(rawKey)
	if err != nil {
		return err
	}

	sess, err := opts.openSession(cmd, path, observability.ModeCLI, nil)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, sess.close(cmd.Context())) }()

	value, ok := sess.store.Lookup(cmd.Context(), key)
	if !ok {
		return fmt.Errorf("%w: %d", ErrKeyNotFound, key)
	}

	// The value is the command output, so it is printed even with --quiet.
	fmt.Fprintln(sess.out, value)

	return nil
}

func newRemoveCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   removeCmdUse,
		Short: removeCmdShort,
		Args:  cobra.RangeArgs(removeArgCount, removeArgCount+1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, rest := splitPath(args, removeArgCount)

			return runRemove(cmd, opts, path, rest[0])
		},
	}
}

func runRemove(cmd *cobra.Command, opts *globalOptions, path, rawKey string) (err error) {
	key, err := parseKey(rawKey)
	if err != nil {
		return err
	}

	sess, err := opts.openSession(cmd, path, observability.ModeCLI, nil)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, sess.close(cmd.Context())) }()

	if !sess.store.Remove(cmd.Context(), key) {
		sess.status(color.FgYellow, "key %d not found, nothing removed", key)

		return nil
	}

	sess.status(color.FgGreen, "removed %d (%d nodes left)", key, sess.store.Stats().Size)

	return nil
}
