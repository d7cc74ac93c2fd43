package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"ragqa/internal/corpus"
	"ragqa/internal/domain"
)

// ErrSnapshotNotFound is returned when no snapshot matches a fingerprint.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot describes a stored index.
type Snapshot struct {
	ID          string
	Fingerprint string
	Encoder     string
	Dimension   int
	Size        int
	CreatedAt   time.Time
}

// SaveIndex stores ix under fingerprint, replacing any snapshot with the same
// fingerprint. The write is a single transaction.
func (s *Store) SaveIndex(ctx context.Context, fingerprint, encoderName string, ix *corpus.Index) (*Snapshot, error) {
	if ix.Len() == 0 {
		return nil, domain.ErrEmptyIndex
	}
	snap := &Snapshot{
		ID:          uuid.NewString(),
		Fingerprint: fingerprint,
		Encoder:     encoderName,
		Dimension:   ix.Dimension(),
		Size:        ix.Len(),
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE fingerprint = ?", fingerprint); err != nil {
		return nil, fmt.Errorf("failed to replace snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO snapshots (id, fingerprint, encoder, dimension, size, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		snap.ID, snap.Fingerprint, snap.Encoder, snap.Dimension, snap.Size, snap.CreatedAt.Format(timeLayout),
	); err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO entries (snapshot_id, position, question, answer, vector) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < ix.Len(); i++ {
		e := ix.Entry(i)
		if _, err := stmt.ExecContext(ctx, snap.ID, i, e.Question, e.Answer, vectorToBlob(ix.Embedding(i).Values())); err != nil {
			return nil, fmt.Errorf("failed to insert entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return snap, nil
}

// LoadIndex rebuilds the index stored under fingerprint.
func (s *Store) LoadIndex(ctx context.Context, fingerprint string) (*corpus.Index, *Snapshot, error) {
	snap := &Snapshot{}
	var created string
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, fingerprint, encoder, dimension, size, created_at FROM snapshots WHERE fingerprint = ?",
		fingerprint,
	).Scan(&snap.ID, &snap.Fingerprint, &snap.Encoder, &snap.Dimension, &snap.Size, &created)
	if err == sql.ErrNoRows {
		return nil, nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	if snap.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, nil, fmt.Errorf("invalid snapshot time %q: %w", created, err)
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT position, question, answer, vector FROM entries WHERE snapshot_id = ? ORDER BY position",
		snap.ID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.CorpusEntry, 0, snap.Size)
	vectors := make([]domain.Vector, 0, snap.Size)
	for rows.Next() {
		var (
			pos  int
			e    domain.CorpusEntry
			blob []byte
		)
		if err := rows.Scan(&pos, &e.Question, &e.Answer, &blob); err != nil {
			return nil, nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if pos != len(entries) {
			return nil, nil, fmt.Errorf("snapshot %s: missing entry at position %d", snap.ID, len(entries))
		}
		vec, err := blobToVector(blob)
		if err != nil {
			return nil, nil, fmt.Errorf("entry %d: %w", pos, err)
		}
		if len(vec) != snap.Dimension {
			return nil, nil, fmt.Errorf("entry %d: dimension %d, want %d", pos, len(vec), snap.Dimension)
		}
		entries = append(entries, e)
		vectors = append(vectors, domain.NewVector(vec))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating entries: %w", err)
	}
	if len(entries) != snap.Size {
		return nil, nil, fmt.Errorf("snapshot %s has %d entries, want %d", snap.ID, len(entries), snap.Size)
	}

	ix, err := corpus.NewIndex(entries, vectors)
	if err != nil {
		return nil, nil, err
	}
	return ix, snap, nil
}

func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

func blobToVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("blob size %d is not a multiple of 4", len(blob))
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector, nil
}
