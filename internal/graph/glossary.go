// Package graph publishes merged translation tables to Neo4j as a glossary of
// source and target texts.
package graph

import (
	"context"
	"fmt"

	"locmerge/internal/merge"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// upsertCypher keeps a single TRANSLATES_TO edge per source text, matching
// the overwrite semantics of the PostgreSQL translation memory.
const upsertCypher = `
UNWIND $rows AS row
MERGE (s:SourceText {text: row.source})
WITH s, row
OPTIONAL MATCH (s)-[stale:TRANSLATES_TO]->(old:TargetText)
WHERE old.text <> row.target
DELETE stale
WITH DISTINCT s, row
MERGE (t:TargetText {text: row.target})
MERGE (s)-[r:TRANSLATES_TO]->(t)
SET r.file = row.file,
    r.section = row.section,
    r.key = row.key
`

// Glossary writes translation entries as (:SourceText)-[:TRANSLATES_TO]->(:TargetText).
type Glossary struct {
	driver    neo4j.DriverWithContext
	batchSize int
}

// NewGlossary creates a glossary publisher.
func NewGlossary(driver neo4j.DriverWithContext, batchSize int) *Glossary {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Glossary{driver: driver, batchSize: batchSize}
}

// Connect opens a driver and verifies connectivity.
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")
	return driver, nil
}

// EnsureSchema creates uniqueness constraints on the text nodes.
func (g *Glossary) EnsureSchema(ctx context.Context) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (s:SourceText) REQUIRE s.text IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (t:TargetText) REQUIRE t.text IS UNIQUE",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// Publish merges entries into the graph in UNWIND batches.
func (g *Glossary) Publish(ctx context.Context, entries []merge.Entry) (int, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	written := 0
	for _, batch := range rowBatches(entries, g.batchSize) {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, upsertCypher, map[string]any{"rows": batch})
			if err != nil {
				return nil, err
			}
			return res.Consume(ctx)
		})
		if err != nil {
			return written, fmt.Errorf("publish glossary batch: %w", err)
		}
		written += len(batch)
	}

	log.Info().Int("entries", written).Msg("Published glossary graph")
	return written, nil
}

// rowBatches converts entries into Cypher parameter rows, batchSize per slice.
func rowBatches(entries []merge.Entry, batchSize int) [][]any {
	if batchSize < 1 {
		batchSize = 1
	}
	var batches [][]any
	for i := 0; i < len(entries); i += batchSize {
		end := min(i+batchSize, len(entries))
		rows := make([]any, 0, end-i)
		for _, e := range entries[i:end] {
			rows = append(rows, map[string]any{
				"source":  e.Source,
				"target":  e.Target,
				"file":    e.File,
				"section": e.Section,
				"key":     e.Key,
			})
		}
		batches = append(batches, rows)
	}
	return batches
}
