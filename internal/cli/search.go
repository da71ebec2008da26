package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"credsearch/internal/search/export"
	"credsearch/internal/search/handler"
	"credsearch/internal/search/models"
	"credsearch/internal/search/resolver"
)

const (
	flagOut     = "out"
	flagJSON    = "json"
	flagRecords = "records"
)

func newSearchCommand(st *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search {query}",
		Short: "Resolve one query and print or export the records",
		Example: strings.TrimSpace(`
search netflix
search "https://www.Netflix.com/login" --out ./exports
search gov.br --json
`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.search(cmd, strings.Join(args, " "))
		},
	}
	cmd.Flags().String(flagOut, "", "directory to write the raw and formatted report files to")
	cmd.Flags().Bool(flagJSON, false, "print the outcome as JSON")
	cmd.Flags().Bool(flagRecords, false, "print every record after the summary")
	return cmd
}

func (st *settings) search(cmd *cobra.Command, query string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	app, err := st.loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()
	app.Cache.Load(ctx)

	out, err := app.Resolver.Resolve(ctx, query)
	if errors.Is(err, resolver.ErrNoActionableKey) {
		return fmt.Errorf("%q does not name a domain or a known service", query)
	}
	if err != nil {
		return err
	}
	// Hits only bump counters in memory.
	if err := app.Cache.Save(ctx); err != nil {
		app.Logger.WarnContext(ctx, "cache save failed", "error", err)
	}

	w := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool(flagJSON); asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(handler.FromOutcome("", out))
	}

	renderOutcome(w, out)
	if withRecords, _ := cmd.Flags().GetBool(flagRecords); withRecords {
		for _, rec := range out.Results.Records() {
			fmt.Fprintln(w, rec)
		}
	}

	dir, _ := cmd.Flags().GetString(flagOut)
	if dir == "" || out.Results.IsEmpty() {
		return nil
	}
	files, err := writeReports(dir, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %d records to %s\n", files.Records, files.RawPath)
	fmt.Fprintf(w, "wrote %d formatted records to %s (%d skipped)\n", files.Formatted, files.FormattedPath, files.Skipped)
	return nil
}

func writeReports(dir string, out *models.Outcome) (export.Files, error) {
	h := export.Header{Key: out.Key, GeneratedAt: time.Now().UTC()}
	files, err := export.WriteFiles(dir, h, export.SectionsFor(out))
	if err != nil {
		return export.Files{}, fmt.Errorf("export %s: %w", out.Key, err)
	}
	return files, nil
}
