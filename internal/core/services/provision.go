package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpora-cli/internal/logger"
)

// Provisioner ensures the chunk collection and its vector-search index
// exist before anything reads or writes them.
//
// EnsureIndex is idempotent and race-tolerant: repeated calls, or
// concurrent calls from several process starts, converge on exactly one
// index. A creation request that loses the race surfaces from the store
// as domain.ErrAlreadyExists and is absorbed as success.
type Provisioner struct {
	store driven.DocumentStore

	// ensured caches collections already provisioned by this process so
	// lazy callers don't re-list indexes on every retrieval.
	mu      sync.Mutex
	ensured map[string]bool
}

// NewProvisioner creates a new index provisioner.
func NewProvisioner(store driven.DocumentStore) *Provisioner {
	return &Provisioner{
		store:   store,
		ensured: make(map[string]bool),
	}
}

// EnsureIndex makes sure the named collection exists and carries the
// vector-search index described by def. It never mutates an existing
// index: changing dimensions or metric requires a new index name.
func (p *Provisioner) EnsureIndex(ctx context.Context, collection string, def driven.IndexDefinition) error {
	if p.store == nil {
		return domain.ErrNotConnected
	}

	p.mu.Lock()
	done := p.ensured[collection+"/"+def.Name]
	p.mu.Unlock()
	if done {
		return nil
	}

	logger.Section("Index Provisioning")
	logger.Debug("Collection: %s, index: %s, dimensions: %d, metric: %s",
		collection, def.Name, def.Dimensions, def.Similarity)

	if err := p.ensureCollection(ctx, collection); err != nil {
		return fmt.Errorf("ensure collection %q: %w", collection, err)
	}

	names, err := p.store.ListSearchIndexes(ctx, collection)
	if err != nil {
		return fmt.Errorf("list search indexes on %q: %w", collection, err)
	}

	if slices.Contains(names, def.Name) {
		logger.Info("Vector index %q already exists", def.Name)
		p.markEnsured(collection, def.Name)
		return nil
	}

	if err := p.store.CreateSearchIndex(ctx, collection, def); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost the creation race to a concurrent caller.
			logger.Info("Vector index %q already exists: %v", def.Name, err)
			p.markEnsured(collection, def.Name)
			return nil
		}
		return fmt.Errorf("create search index %q on %q: %w", def.Name, collection, err)
	}

	logger.Info("Created vector index %q on collection %q", def.Name, collection)
	p.markEnsured(collection, def.Name)
	return nil
}

func (p *Provisioner) ensureCollection(ctx context.Context, collection string) error {
	names, err := p.store.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	if slices.Contains(names, collection) {
		return nil
	}

	if err := p.store.CreateCollection(ctx, collection); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil
		}
		return err
	}

	logger.Info("Created collection %q", collection)
	return nil
}

func (p *Provisioner) markEnsured(collection, index string) {
	p.mu.Lock()
	p.ensured[collection+"/"+index] = true
	p.mu.Unlock()
}
