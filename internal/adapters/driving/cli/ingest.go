package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/normalisers/pdf"
	"github.com/custodia-labs/corpora-cli/internal/normalisers/plaintext"
)

var ingestSource string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document into the vector corpus",
	Long: `Reads a PDF or plain-text file, splits it into page-aware chunks,
embeds each chunk and writes the result to the vector collection in
batches. The job stops at the first failing batch.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "source name to tag chunks with (default: file base name)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	pages, err := loadPages(path)
	if err != nil {
		return err
	}

	source := ingestSource
	if source == "" {
		source = filepath.Base(path)
	}

	report, err := ingestService.Ingest(cmd.Context(), source, pages)
	if err != nil {
		var batchErr *domain.BatchError
		if errors.As(err, &batchErr) {
			return fmt.Errorf("ingestion stopped at batch %d (chunks %d-%d); re-run to retry: %w",
				batchErr.Batch, batchErr.Start, batchErr.End, err)
		}
		return fmt.Errorf("ingest %s: %w", source, err)
	}

	cmd.Printf("Ingested %s: %d pages, %d chunks in %d batches\n",
		report.Source, report.Pages, report.ChunksWritten, report.Batches)
	return nil
}

// loadPages picks a page extractor by file extension.
func loadPages(path string) ([]domain.Page, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return pdf.ExtractPages(path)
	case ".txt", ".md", ".text":
		return plaintext.ExtractPages(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q (expected .pdf or .txt)", filepath.Ext(path))
	}
}
