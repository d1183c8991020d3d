// Package cli implements the corpora command-line interface using cobra.
// Commands talk to the core services through the driving ports; the
// composition root in this package wires adapters to services on first
// use so metadata commands work without configuration.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpora-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/corpora-cli/internal/adapters/driven/embedding/openai"
	mongostore "github.com/custodia-labs/corpora-cli/internal/adapters/driven/store/mongo"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driving"
	"github.com/custodia-labs/corpora-cli/internal/core/services"
	"github.com/custodia-labs/corpora-cli/internal/logger"
	"github.com/custodia-labs/corpora-cli/internal/postprocessors/chunker"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	verboseFlag   bool
	configDirFlag string
)

// Services used by the commands. Wired lazily by ensureServices; tests
// inject doubles directly.
var (
	ingestService    driving.IngestService
	retrievalService driving.RetrievalService
)

var (
	settings file.Settings
	conn     *mongostore.Connection
	embedder *openai.EmbeddingService
)

var rootCmd = &cobra.Command{
	Use:   "corpora",
	Short: "Ingest documents into a vector corpus and query it",
	Long: `Corpora ingests paged documents (textbooks, manuals, papers) into a
MongoDB Atlas vector index and answers semantic queries over them.
Embeddings are generated with the OpenAI embeddings API.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "configuration directory (default ~/.corpora)")
}

// Execute runs the root command and releases any connections the run
// opened.
func Execute() error {
	defer teardown()
	return rootCmd.Execute()
}

// ensureServices builds the pipeline from configuration on first use.
func ensureServices(ctx context.Context) error {
	if ingestService != nil && retrievalService != nil {
		return nil
	}

	var err error
	settings, err = file.Load(configDirFlag)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	logger.Section("Connecting")
	conn, err = mongostore.Connect(ctx, mongostore.ConnectionConfig{
		URI:                   settings.MongoURL,
		Database:              settings.DatabaseName,
		InsecureSkipTLSVerify: settings.InsecureSkipTLSVerify,
	})
	if err != nil {
		return fmt.Errorf("connect to document store: %w", err)
	}
	store := mongostore.NewStore(conn)

	embedder, err = openai.NewEmbeddingService(openai.Config{
		APIKey:     settings.OpenAIKey,
		Model:      settings.EmbeddingModel,
		Dimensions: settings.Dimensions,
	})
	if err != nil {
		return fmt.Errorf("configure embedding service: %w", err)
	}

	index := driven.IndexDefinition{
		Name:        settings.Index,
		Path:        "embedding",
		Dimensions:  embedder.Dimensions(),
		Similarity:  "cosine",
		FilterPaths: []string{"metadata.source"},
	}
	provisioner := services.NewProvisioner(store)

	ingestService = services.NewIngestor(store, embedder, chunker.New(), provisioner, store, services.IngestorConfig{
		Collection: settings.Collection,
		Index:      index,
		BatchSize:  settings.BatchSize,
		BatchDelay: settings.BatchDelay,
	})
	retrievalService = services.NewRetriever(store, embedder, provisioner, settings.Collection, index)

	logger.Info("connected to %s (collection %s, index %s)", settings.DatabaseName, settings.Collection, settings.Index)
	return nil
}

func teardown() {
	if embedder != nil {
		_ = embedder.Close()
		embedder = nil
	}
	if conn != nil {
		if err := conn.Close(context.Background()); err != nil {
			logger.Warn("closing store connection: %v", err)
		}
		conn = nil
	}
}
