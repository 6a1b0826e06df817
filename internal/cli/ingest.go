package cli

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-dining-concierge/internal/config"
)

// errLocalIndex rejects index rebuilds that would land in a process-local
// index and vanish when the command exits. serve and worker load that
// index from the store themselves.
var errLocalIndex = errors.New("SEARCH_BACKEND=memory is process-local; serve and worker reload it from the store, so there is nothing to rebuild here")

// sharedIndex reports whether the search index outlives the process.
func sharedIndex(cfg config.Config) bool { return cfg.Search.Backend == "opensearch" }

func newIngestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fill the restaurant store and search index",
	}
	cmd.AddCommand(newIngestIndexCmd(a))
	cmd.AddCommand(newIngestSourceCmd(a))
	cmd.AddCommand(newCreateIndexCmd(a))
	return cmd
}

func newIngestIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the search index from the restaurant store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !sharedIndex(a.cfg) {
				return errLocalIndex
			}
			ctx := cmd.Context()
			d := newDeps(a.cfg)
			defer d.Close()

			in, err := d.ingestor(ctx, false)
			if err != nil {
				return err
			}
			stats, err := in.RebuildIndex(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func newIngestSourceCmd(a *app) *cobra.Command {
	var location string
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Fetch restaurants for every supported cuisine from the business API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			d := newDeps(a.cfg)
			defer d.Close()

			in, err := d.ingestor(ctx, true)
			if err != nil {
				return err
			}
			if location == "" {
				location = a.cfg.Yelp.DefaultLocation
			}
			stats, err := in.IngestSource(ctx, location)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "location to search (default INGEST_LOCATION)")
	return cmd
}

func newCreateIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create-index",
		Short: "Create the search index with its mappings if it does not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			d := newDeps(a.cfg)
			defer d.Close()

			in, err := d.ingestor(ctx, false)
			if err != nil {
				return err
			}
			created, err := in.EnsureIndex(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]bool{"created": created})
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
