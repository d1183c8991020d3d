package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

var (
	queryTopK   int
	querySource string
	queryJSON   bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Retrieve the most relevant passages for a question",
	Long: `Embeds the question and runs a vector similarity search over the
ingested corpus. Remote failures are reported in the response payload
rather than aborting, so an unhealthy index still yields a well-formed
answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 5, "maximum number of passages to return")
	queryCmd.Flags().StringVar(&querySource, "source", "", "restrict results to one ingested source")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the response as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	opts := domain.RetrieveOptions{
		TopK:   queryTopK,
		Source: querySource,
	}
	resp, err := retrievalService.Retrieve(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, resp)
	}
	return outputQueryTable(cmd, resp)
}

func outputQueryJSON(cmd *cobra.Command, resp *domain.RetrievalResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryTable(cmd *cobra.Command, resp *domain.RetrievalResponse) error {
	if resp.Failed() {
		cmd.Printf("Retrieval failed: %s\n", resp.Error)
		return nil
	}
	if len(resp.Contexts) == 0 {
		cmd.Println("No matching passages found.")
		return nil
	}

	cmd.Println("Contexts:")
	cmd.Println()
	for i, c := range resp.Contexts {
		cmd.Printf("  [%d] page %s (%.4f)\n", i+1, c.PageNumber, c.Score)
		cmd.Printf("      %s\n", c.Content)
		cmd.Println()
	}
	return nil
}
