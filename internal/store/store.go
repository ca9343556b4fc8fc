// Package store implements the persistence substrate of §4.1: a single
// SQLite database per project holding orientation, goals, tasks,
// questions, activities, chunks, and the relationship graph. It follows
// the teacher's SQLiteLearningDB/SQLiteOperationalDB pattern (embedded
// schema, pragma tuning at open time, prepared ad-hoc queries) but
// collapses the teacher's two-database split into one, since Visioneer
// has a single coherent project model rather than separate
// operational/learning concerns.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/visioneer/core/internal/verrors"
)

// nowUTC returns the current time truncated to UTC, matching the
// convention that every stored timestamp in Visioneer is UTC (§3).
func nowUTC() time.Time {
	return time.Now().UTC()
}

//go:embed schema.sql
var schema string

// Store wraps a project's SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite database at path and
// applies the schema. Safe to call repeatedly; CREATE TABLE IF NOT
// EXISTS makes schema application idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA cache_size=-64000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// A single writer per project database keeps the one-way status
	// ladder and relationship-weight mutations serialized without
	// needing application-level locking.
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction, committing on success and
// rolling back on error or panic. Used for the multi-statement
// mutations that must be atomic (§4.1): project creation with its clock
// and orientation rows, tick increments, chunk archival, relationship
// archival on weakening, and absorbing an answered question together
// with the task unblocks it triggers.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return verrors.Transient("begin tx", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(tx)
	return err
}

// encodeEmbedding packs a float32 vector into a little-endian blob,
// adapted directly from the teacher's encodeEmbedding.
func encodeEmbedding(embedding []float32) []byte {
	if embedding == nil {
		return nil
	}
	buf := make([]byte, len(embedding)*4)
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeEmbedding is the inverse of encodeEmbedding.
func decodeEmbedding(blob []byte) []float32 {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil
	}
	embedding := make([]float32, len(blob)/4)
	for i := range embedding {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		embedding[i] = math.Float32frombits(bits)
	}
	return embedding
}

// cosineSimilarity computes cosine similarity between two embeddings of
// equal length, adapted directly from the teacher's cosineSimilarity.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
