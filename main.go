// Command library-desk is a single-user library manager: books, library
// cards and outstanding loans kept in one JSON file.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"library-desk/library"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultDataFile = "library_data.json"

type options struct {
	dataFile string
	logLevel string
	watch    bool
}

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "library-desk: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "library-desk",
		Short:         "Track books, library cards and loans in a JSON file",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := initLogger(cmd.ErrOrStderr(), opts.logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMenu(cmd.Context(), opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.dataFile, "data-file", defaultDataFile, "Path of the JSON data file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Warn when the data file is changed by another program")
	cmd.AddCommand(newExportCmd(opts), newSchemaCmd())
	return cmd
}

func runMenu(ctx context.Context, opts *options) error {
	store := library.NewFileStorage(opts.dataFile)
	cat := library.NewCatalog(store)

	if opts.watch {
		if err := library.WatchExternalChanges(ctx, store, nil); err != nil {
			slog.WarnContext(ctx, "Cannot watch data file", "path", opts.dataFile, "err", err)
		}
	}

	width := library.TableWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > width {
		width = w
	}
	newConsole(ctx, cat, os.Stdin, os.Stdout, width).run()
	return nil
}
