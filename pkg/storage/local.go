package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalArchive implements Archive on the local filesystem. Files live under
// <root>/<user>/<statement>_<name>, with a JSON sidecar under <root>/<user>/.meta.
type LocalArchive struct {
	root string
}

func NewLocalArchive(root string) (*LocalArchive, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &LocalArchive{root: root}, nil
}

func (a *LocalArchive) Put(ctx context.Context, userID, statementID uuid.UUID, filename string, r io.Reader) (*FileInfo, error) {
	userDir := filepath.Join(a.root, userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create user directory: %w", err)
	}

	// at most one copy per statement ID, whatever the file name
	if err := a.Delete(ctx, userID, statementID); err != nil {
		return nil, err
	}

	stored := fmt.Sprintf("%s_%s", statementID.String()[:8], sanitizeFilename(filepath.Base(filename)))
	path := filepath.Join(userDir, stored)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, h), r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		StatementID: statementID,
		UserID:      userID,
		Name:        filepath.Base(filename),
		Size:        size,
		SHA256:      hex.EncodeToString(h.Sum(nil)),
		Path:        filepath.Join(userID.String(), stored),
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.saveMetadata(info); err != nil {
		os.Remove(path)
		return nil, err
	}
	return info, nil
}

func (a *LocalArchive) Open(ctx context.Context, userID, statementID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := a.info(userID, statementID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(a.root, info.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, info, nil
}

func (a *LocalArchive) Delete(ctx context.Context, userID, statementID uuid.UUID) error {
	info, err := a.info(userID, statementID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(a.root, info.Path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if err := os.Remove(a.metaPath(userID, statementID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return nil
}

func (a *LocalArchive) List(ctx context.Context, userID uuid.UUID) ([]*FileInfo, error) {
	metaDir := filepath.Join(a.root, userID.String(), ".meta")
	entries, err := os.ReadDir(metaDir)
	if os.IsNotExist(err) {
		return []*FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		info, err := a.info(userID, id)
		if err != nil {
			return nil, err
		}
		files = append(files, info)
	}
	return files, nil
}

func (a *LocalArchive) info(userID, statementID uuid.UUID) (*FileInfo, error) {
	data, err := os.ReadFile(a.metaPath(userID, statementID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: statement %s", ErrNotFound, statementID)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &info, nil
}

func (a *LocalArchive) metaPath(userID, statementID uuid.UUID) string {
	return filepath.Join(a.root, userID.String(), ".meta", statementID.String()+".json")
}

func (a *LocalArchive) saveMetadata(info *FileInfo) error {
	metaDir := filepath.Join(a.root, info.UserID.String(), ".meta")
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(a.metaPath(info.UserID, info.StatementID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", "..", "_", ":", "_",
	"*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
)

func sanitizeFilename(name string) string {
	return filenameReplacer.Replace(name)
}
