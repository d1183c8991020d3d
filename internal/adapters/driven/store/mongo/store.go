package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.DocumentStore = (*Store)(nil)
	_ driven.SourceLedger  = (*Store)(nil)
)

// sourcesCollection is where completed ingestion jobs are recorded.
const sourcesCollection = "sources"

// Atlas command error codes classified as "already exists".
const (
	codeNamespaceExists    = 48
	codeIndexAlreadyExists = 68
)

// Store implements chunk persistence and vector search on MongoDB Atlas.
type Store struct {
	conn *Connection
}

// NewStore creates a store bound to an established connection.
func NewStore(conn *Connection) *Store {
	return &Store{conn: conn}
}

// chunkRecord is the persisted shape of a chunk.
type chunkRecord struct {
	ID        string        `bson:"_id"`
	Content   string        `bson:"content"`
	Embedding []float32     `bson:"embedding"`
	Metadata  chunkMetadata `bson:"metadata"`
}

type chunkMetadata struct {
	Source     string `bson:"source"`
	PageNumber int    `bson:"page_number"`
}

// sourceRecord is the persisted shape of a ledger entry.
type sourceRecord struct {
	ID         string    `bson:"_id"`
	Source     string    `bson:"source"`
	Pages      int       `bson:"pages"`
	ChunkCount int       `bson:"chunk_count"`
	IngestedAt time.Time `bson:"ingested_at"`
}

// ListCollections returns the names of existing collections.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	db, err := s.conn.Database()
	if err != nil {
		return nil, err
	}
	names, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list collection names: %w", err)
	}
	return names, nil
}

// CreateCollection creates a named collection.
func (s *Store) CreateCollection(ctx context.Context, name string) error {
	db, err := s.conn.Database()
	if err != nil {
		return err
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		return classify(fmt.Errorf("create collection %q: %w", name, err))
	}
	return nil
}

// ListSearchIndexes returns the names of search indexes on a collection.
func (s *Store) ListSearchIndexes(ctx context.Context, collection string) ([]string, error) {
	db, err := s.conn.Database()
	if err != nil {
		return nil, err
	}

	cursor, err := db.Collection(collection).SearchIndexes().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list search indexes: %w", err)
	}
	defer cursor.Close(ctx)

	var names []string
	for cursor.Next(ctx) {
		var idx struct {
			Name string `bson:"name"`
		}
		if err := cursor.Decode(&idx); err != nil {
			return nil, fmt.Errorf("decode search index: %w", err)
		}
		names = append(names, idx.Name)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate search indexes: %w", err)
	}
	return names, nil
}

// CreateSearchIndex submits a vector-search index creation request with
// the declared schema: one vector field plus the filter fields.
func (s *Store) CreateSearchIndex(ctx context.Context, collection string, def driven.IndexDefinition) error {
	db, err := s.conn.Database()
	if err != nil {
		return err
	}

	fields := bson.A{
		bson.D{
			{Key: "type", Value: "vector"},
			{Key: "path", Value: def.Path},
			{Key: "numDimensions", Value: def.Dimensions},
			{Key: "similarity", Value: def.Similarity},
		},
	}
	for _, path := range def.FilterPaths {
		fields = append(fields, bson.D{
			{Key: "type", Value: "filter"},
			{Key: "path", Value: path},
		})
	}

	model := mongo.SearchIndexModel{
		Definition: bson.D{{Key: "fields", Value: fields}},
		Options:    options.SearchIndexes().SetName(def.Name).SetType("vectorSearch"),
	}

	if _, err := db.Collection(collection).SearchIndexes().CreateOne(ctx, model); err != nil {
		return classify(fmt.Errorf("create search index %q: %w", def.Name, err))
	}
	return nil
}

// InsertChunks writes a batch of embedded chunks as one request.
func (s *Store) InsertChunks(ctx context.Context, collection string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	db, err := s.conn.Database()
	if err != nil {
		return err
	}

	docs := make([]any, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chunkRecord{
			ID:        chunk.ID,
			Content:   chunk.Content,
			Embedding: chunk.Embedding,
			Metadata: chunkMetadata{
				Source:     chunk.Metadata.Source,
				PageNumber: chunk.Metadata.PageNumber,
			},
		}
	}

	if _, err := db.Collection(collection).InsertMany(ctx, docs); err != nil {
		return classify(fmt.Errorf("insert %d chunks: %w", len(chunks), err))
	}
	return nil
}

// SimilaritySearch runs a $vectorSearch aggregation against the index
// and projects the similarity score onto each hit.
func (s *Store) SimilaritySearch(ctx context.Context, collection, index string, vector []float32, opts driven.SearchOptions) ([]driven.SearchHit, error) {
	db, err := s.conn.Database()
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	search := bson.D{
		{Key: "index", Value: index},
		{Key: "path", Value: "embedding"},
		{Key: "queryVector", Value: vector},
		// Atlas recommends over-requesting candidates for recall.
		{Key: "numCandidates", Value: limit * 20},
		{Key: "limit", Value: limit},
	}
	if opts.Source != "" {
		search = append(search, bson.E{Key: "filter", Value: bson.D{
			{Key: "metadata.source", Value: bson.D{{Key: "$eq", Value: opts.Source}}},
		}})
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: search}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "content", Value: 1},
			{Key: "metadata", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search on %s/%s: %w", collection, index, err)
	}
	defer cursor.Close(ctx)

	var hits []driven.SearchHit
	for cursor.Next(ctx) {
		var doc struct {
			Content  string         `bson:"content"`
			Metadata map[string]any `bson:"metadata"`
			Score    float64        `bson:"score"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode search hit: %w", err)
		}
		hits = append(hits, driven.SearchHit{
			Content:  doc.Content,
			Metadata: doc.Metadata,
			Score:    doc.Score,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate search hits: %w", err)
	}
	return hits, nil
}

// RecordSource appends a ledger entry for a completed ingestion job.
func (s *Store) RecordSource(ctx context.Context, record domain.SourceRecord) error {
	db, err := s.conn.Database()
	if err != nil {
		return err
	}

	doc := sourceRecord{
		ID:         record.ID,
		Source:     record.Source,
		Pages:      record.Pages,
		ChunkCount: record.ChunkCount,
		IngestedAt: record.IngestedAt,
	}
	if _, err := db.Collection(sourcesCollection).InsertOne(ctx, doc); err != nil {
		return classify(fmt.Errorf("record source %q: %w", record.Source, err))
	}
	return nil
}

// ListSources returns all recorded sources, newest first.
func (s *Store) ListSources(ctx context.Context) ([]domain.SourceRecord, error) {
	db, err := s.conn.Database()
	if err != nil {
		return nil, err
	}

	sort := options.Find().SetSort(bson.D{{Key: "ingested_at", Value: -1}})
	cursor, err := db.Collection(sourcesCollection).Find(ctx, bson.D{}, sort)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer cursor.Close(ctx)

	var records []domain.SourceRecord
	for cursor.Next(ctx) {
		var doc sourceRecord
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode source record: %w", err)
		}
		records = append(records, domain.SourceRecord{
			ID:         doc.ID,
			Source:     doc.Source,
			Pages:      doc.Pages,
			ChunkCount: doc.ChunkCount,
			IngestedAt: doc.IngestedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate source records: %w", err)
	}
	return records, nil
}

// classify tags "already exists" responses with domain.ErrAlreadyExists
// so the provisioner can absorb lost creation races. Everything else
// passes through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.Code == codeNamespaceExists || cmdErr.Code == codeIndexAlreadyExists {
			return fmt.Errorf("%w: %w", domain.ErrAlreadyExists, err)
		}
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %w", domain.ErrAlreadyExists, err)
	}

	// Atlas surfaces some races as bare messages rather than codes.
	msg := err.Error()
	if strings.Contains(msg, "already exists") || strings.Contains(msg, "IndexAlreadyExists") {
		return fmt.Errorf("%w: %w", domain.ErrAlreadyExists, err)
	}
	return err
}
