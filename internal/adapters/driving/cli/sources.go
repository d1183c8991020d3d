package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List ingested source documents",
	Long:  `Lists the documents recorded by previous ingestion runs, newest first.`,
	Args:  cobra.NoArgs,
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	records, err := ingestService.ListSources(cmd.Context())
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	if len(records) == 0 {
		cmd.Println("No sources ingested yet.")
		return nil
	}

	cmd.Println("Ingested sources:")
	for _, r := range records {
		cmd.Printf("  %s  %d pages, %d chunks  (%s)\n",
			r.Source, r.Pages, r.ChunkCount, r.IngestedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
