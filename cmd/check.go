package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"travel-planner-backend/internal/config"
	"travel-planner-backend/internal/handlers"
	"travel-planner-backend/internal/store"

	"github.com/spf13/cobra"
)

// errUnreadable is returned by check when a collection could not be read
var errUnreadable = errors.New("one or more collections are unreadable")

func newCheckCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load every collection and report its state",
		Long:  "Load every collection from the configured storage backend and print its status, record count and location. Exits non-zero when a collection cannot be read.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			setupLogger(cfg.Log.Level, cfg.Log.Format)

			cols, err := openCollections(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cols.close()

			return checkCollections(cmd.Context(), cmd.OutOrStdout(), cols.staters())
		},
	}
}

// checkCollections writes one line per collection and fails if any is unreadable
func checkCollections(ctx context.Context, out io.Writer, collections []handlers.CollectionStater) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLLECTION\tSTATUS\tRECORDS\tLOCATION")

	var failed bool
	for _, c := range collections {
		stat := c.Stat(ctx)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", stat.Name, stat.Status, stat.Count, stat.Location)
		if stat.Status == store.LoadReadError {
			failed = true
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if failed {
		return errUnreadable
	}
	return nil
}
