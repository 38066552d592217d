// Package storage keeps an archive copy of every processed statement file so
// the original PDF survives after the user moves or deletes it.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("archived file not found")

// FileInfo describes one archived statement file.
type FileInfo struct {
	StatementID uuid.UUID `json:"statement_id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	Path        string    `json:"path"` // relative to the archive root
	CreatedAt   time.Time `json:"created_at"`
}

// Archive stores statement source files keyed by user and statement.
type Archive interface {
	// Put stores the content of r as the source file of a statement,
	// replacing any earlier copy for the same statement.
	Put(ctx context.Context, userID, statementID uuid.UUID, filename string, r io.Reader) (*FileInfo, error)

	// Open returns the archived content of a statement.
	Open(ctx context.Context, userID, statementID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes a statement's archived file. Deleting a missing file is not an error.
	Delete(ctx context.Context, userID, statementID uuid.UUID) error

	// List returns every archived file of a user.
	List(ctx context.Context, userID uuid.UUID) ([]*FileInfo, error)
}

// New returns the archive rooted at dir, or a no-op archive when dir is empty.
func New(dir string) (Archive, error) {
	if dir == "" {
		return Nop{}, nil
	}
	return NewLocalArchive(dir)
}

// Nop discards everything. It is used when archiving is disabled.
type Nop struct{}

func (Nop) Put(_ context.Context, _, _ uuid.UUID, _ string, _ io.Reader) (*FileInfo, error) {
	return nil, nil
}

func (Nop) Open(_ context.Context, _, _ uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	return nil, nil, ErrNotFound
}

func (Nop) Delete(_ context.Context, _, _ uuid.UUID) error { return nil }

func (Nop) List(_ context.Context, _ uuid.UUID) ([]*FileInfo, error) { return nil, nil }
