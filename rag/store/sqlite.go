package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/finchat-ai/finchat/rag"
)

// SQLiteVectorStore is the primary, on-disk vector index: a serverless
// SQLite database holding chunk text, metadata and embedding vectors.
// Similarity search loads the stored vectors and ranks them by cosine
// similarity in process.
type SQLiteVectorStore struct {
	db *sql.DB
}

var _ rag.VectorStore = (*SQLiteVectorStore)(nil)

// NewSQLiteVectorStore opens (or creates) the index at the given path and
// ensures the schema exists. Use ":memory:" for a volatile store.
func NewSQLiteVectorStore(path string) (*SQLiteVectorStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	s := &SQLiteVectorStore{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteVectorStore) initSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			metadata TEXT NOT NULL,
			embedding BLOB NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks (document_id);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Add upserts chunks keyed by chunk ID, so re-running an ingestion job
// over the same sources leaves a single copy of each chunk.
func (s *SQLiteVectorStore) Add(ctx context.Context, chunks []rag.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", rag.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO chunks (id, document_id, chunk_index, content, metadata, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			chunk_index = excluded.chunk_index,
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunk.ID)
		}
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for chunk %s: %w", chunk.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.DocumentID, chunk.Index, chunk.Content,
			string(metadataJSON), encodeEmbedding(chunk.Embedding), now,
		); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", chunk.ID, err)
		}
	}
	return tx.Commit()
}

// Search ranks every stored chunk by cosine similarity against the query
// embedding and returns the top k, descending. Row order (rowid) breaks
// ties, so results are deterministic for a given store state.
func (s *SQLiteVectorStore) Search(ctx context.Context, embedding []float32, k int) ([]rag.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, chunk_index, content, metadata, embedding FROM chunks ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var results []rag.SearchResult
	for rows.Next() {
		var (
			chunk        rag.Chunk
			metadataJSON string
			blob         []byte
		)
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index, &chunk.Content, &metadataJSON, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata for chunk %s: %w", chunk.ID, err)
		}
		chunk.Embedding = decodeEmbedding(blob)
		results = append(results, rag.SearchResult{
			Chunk: chunk,
			Score: rag.CosineSimilarity(embedding, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrStoreUnavailable, err)
	}
	if len(results) == 0 {
		return nil, rag.ErrEmptyIndex
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Stats reports the number of stored chunks and the embedding dimension.
func (s *SQLiteVectorStore) Stats(ctx context.Context) (*rag.StoreStats, error) {
	stats := &rag.StoreStats{}
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&stats.Chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrStoreUnavailable, err)
	}
	if stats.Chunks > 0 {
		var blob []byte
		if err := s.db.QueryRowContext(ctx, `SELECT embedding FROM chunks LIMIT 1`).Scan(&blob); err == nil {
			stats.Dimension = len(blob) / 4
		}
	}
	return stats, nil
}

// Close closes the underlying database.
func (s *SQLiteVectorStore) Close() error {
	return s.db.Close()
}

// encodeEmbedding packs a vector as little-endian float32 bytes.
func encodeEmbedding(embedding []float32) []byte {
	buf := make([]byte, 4*len(embedding))
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	embedding := make([]float32, len(buf)/4)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return embedding
}
