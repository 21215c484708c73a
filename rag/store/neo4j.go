package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/finchat-ai/finchat/rag"
)

const defaultIndexName = "chunk_embeddings"

// Neo4jVectorStore keeps a secondary copy of the chunk index inside the
// graph database, using Neo4j's native vector index for similarity
// queries. Chunks are stored as (:Chunk) nodes linked to their source
// (:Document) node.
type Neo4jVectorStore struct {
	driver    neo4j.DriverWithContext
	indexName string
	dimension int
}

var _ rag.VectorStore = (*Neo4jVectorStore)(nil)

// Neo4jConfig carries the connection settings for the graph database.
type Neo4jConfig struct {
	URI      string
	User     string
	Password string
	// Dimension of the stored embeddings; required to create the
	// vector index on first use.
	Dimension int
}

// NewNeo4jVectorStore connects to the graph database and verifies it is
// reachable.
func NewNeo4jVectorStore(ctx context.Context, cfg Neo4jConfig) (*Neo4jVectorStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("%w: %v", rag.ErrStoreUnavailable, err)
	}

	s := &Neo4jVectorStore{
		driver:    driver,
		indexName: defaultIndexName,
		dimension: cfg.Dimension,
	}
	if err := s.ensureIndex(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Neo4jVectorStore) ensureIndex(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE VECTOR INDEX %s IF NOT EXISTS
		FOR (c:Chunk) ON (c.embedding)
		OPTIONS {indexConfig: {
			`+"`vector.dimensions`"+`: $dimension,
			`+"`vector.similarity_function`"+`: 'cosine'
		}}`, s.indexName)

	_, err := neo4j.ExecuteQuery(ctx, s.driver, query,
		map[string]any{"dimension": s.dimension}, neo4j.EagerResultTransformer)
	if err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}
	return nil
}

// Add merges chunks by ID, so re-ingestion updates nodes in place instead
// of duplicating them.
func (s *Neo4jVectorStore) Add(ctx context.Context, chunks []rag.Chunk) error {
	rows := make([]map[string]any, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunk.ID)
		}
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for chunk %s: %w", chunk.ID, err)
		}
		rows = append(rows, map[string]any{
			"id":         chunk.ID,
			"documentId": chunk.DocumentID,
			"index":      chunk.Index,
			"content":    chunk.Content,
			"metadata":   string(metadataJSON),
			"embedding":  toFloat64(chunk.Embedding),
		})
	}

	const query = `
		UNWIND $rows AS row
		MERGE (d:Document {id: row.documentId})
		MERGE (c:Chunk {id: row.id})
		SET c.content = row.content,
		    c.chunkIndex = row.index,
		    c.metadata = row.metadata,
		    c.embedding = row.embedding,
		    c.updatedAt = $now
		MERGE (d)-[:HAS_CHUNK]->(c)`

	_, err := neo4j.ExecuteQuery(ctx, s.driver, query,
		map[string]any{"rows": rows, "now": time.Now().UTC().Format(time.RFC3339)},
		neo4j.EagerResultTransformer)
	if err != nil {
		return fmt.Errorf("%w: %v", rag.ErrStoreUnavailable, err)
	}
	return nil
}

// Search queries the vector index for the k nearest chunks.
func (s *Neo4jVectorStore) Search(ctx context.Context, embedding []float32, k int) ([]rag.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	const query = `
		CALL db.index.vector.queryNodes($index, $k, $embedding)
		YIELD node, score
		RETURN node.id AS id, node.content AS content, node.chunkIndex AS chunkIndex,
		       node.metadata AS metadata, score
		ORDER BY score DESC`

	result, err := neo4j.ExecuteQuery(ctx, s.driver, query, map[string]any{
		"index":     s.indexName,
		"k":         k,
		"embedding": toFloat64(embedding),
	}, neo4j.EagerResultTransformer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrStoreUnavailable, err)
	}
	if len(result.Records) == 0 {
		return nil, rag.ErrEmptyIndex
	}

	results := make([]rag.SearchResult, 0, len(result.Records))
	for _, record := range result.Records {
		chunk := rag.Chunk{}
		if id, ok := record.Get("id"); ok {
			chunk.ID, _ = id.(string)
		}
		if content, ok := record.Get("content"); ok {
			chunk.Content, _ = content.(string)
		}
		if idx, ok := record.Get("chunkIndex"); ok {
			if i, ok := idx.(int64); ok {
				chunk.Index = int(i)
			}
		}
		if metadata, ok := record.Get("metadata"); ok {
			if raw, ok := metadata.(string); ok && raw != "" {
				_ = json.Unmarshal([]byte(raw), &chunk.Metadata)
			}
		}
		score := 0.0
		if v, ok := record.Get("score"); ok {
			score, _ = v.(float64)
		}
		results = append(results, rag.SearchResult{Chunk: chunk, Score: score})
	}
	return results, nil
}

// Stats counts the stored chunk nodes.
func (s *Neo4jVectorStore) Stats(ctx context.Context) (*rag.StoreStats, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver,
		`MATCH (c:Chunk) RETURN count(c) AS chunks`, nil, neo4j.EagerResultTransformer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrStoreUnavailable, err)
	}

	stats := &rag.StoreStats{Dimension: s.dimension}
	if len(result.Records) > 0 {
		if v, ok := result.Records[0].Get("chunks"); ok {
			if n, ok := v.(int64); ok {
				stats.Chunks = int(n)
			}
		}
	}
	return stats, nil
}

// Wipe deletes every node and relationship in the database. This is the
// maintenance operation behind the reset-graph command; it is never part
// of the request path.
func (s *Neo4jVectorStore) Wipe(ctx context.Context) error {
	_, err := neo4j.ExecuteQuery(ctx, s.driver,
		`MATCH (n) DETACH DELETE n`, nil, neo4j.EagerResultTransformer)
	if err != nil {
		return fmt.Errorf("wipe graph: %w", err)
	}
	return nil
}

// Close closes the driver.
func (s *Neo4jVectorStore) Close() error {
	return s.driver.Close(context.Background())
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
