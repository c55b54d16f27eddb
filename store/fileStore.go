package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/umkmpro/umkm_backend/models"
)

// FileRepository persists snapshots as one JSON file per business. Writes
// go through a temp file and rename, so a crash mid-write leaves the
// previous snapshot intact.
type FileRepository struct {
	dir        string
	businessId string
}

func NewFileRepository(dir string, businessId string) *FileRepository {
	return &FileRepository{dir: dir, businessId: businessId}
}

func (r *FileRepository) path() string {
	return filepath.Join(r.dir, fmt.Sprintf("ledger-%s.json", r.businessId))
}

func (r *FileRepository) LoadAll(_ context.Context) (*models.LedgerSnapshot, error) {
	data, err := os.ReadFile(r.path())
	if errors.Is(err, fs.ErrNotExist) {
		return models.NewLedgerSnapshot(), nil
	}
	if err != nil {
		return nil, err
	}
	snapshot := models.NewLedgerSnapshot()
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, fmt.Errorf("corrupt snapshot file %s: %w", r.path(), err)
	}
	return snapshot, nil
}

func (r *FileRepository) SaveAll(_ context.Context, snapshot *models.LedgerSnapshot) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(r.dir, "ledger-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), r.path())
}
