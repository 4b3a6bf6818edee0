package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"AgriPulse/internal/domain/models"
	drepo "AgriPulse/internal/domain/repository"
	apphttp "AgriPulse/pkg/http"
)

const indexFile = "index.json"

// FSDatasetStore implements DatasetStore on a directory of JSON files, the
// same layout the dashboard consumes: one index.json plus one {id}.json per
// tracked crop/market pair. Writes go through a temp file and rename so a
// concurrent reader never sees a half-written document.
type FSDatasetStore struct {
	dir string
}

func NewFSDatasetStore(dir string) (drepo.DatasetStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("dataset dir: %w", err)
	}
	return &FSDatasetStore{dir: dir}, nil
}

func (s *FSDatasetStore) Index(ctx context.Context) ([]models.DatasetIndexItem, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apphttp.NotFoundError("dataset index")
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	var items []models.DatasetIndexItem
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return items, nil
}

func (s *FSDatasetStore) Item(ctx context.Context, id string) (*models.DatasetItem, error) {
	if !validID(id) {
		return nil, apphttp.BadRequestError("id")
	}
	b, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apphttp.NotFoundError("dataset item")
		}
		return nil, fmt.Errorf("read item %s: %w", id, err)
	}
	var item models.DatasetItem
	if err := json.Unmarshal(b, &item); err != nil {
		return nil, fmt.Errorf("decode item %s: %w", id, err)
	}
	return &item, nil
}

func (s *FSDatasetStore) PutItem(ctx context.Context, item *models.DatasetItem) error {
	if !validID(item.ID) {
		return apphttp.BadRequestError("id")
	}
	return s.writeJSON(item.ID+".json", item)
}

func (s *FSDatasetStore) PutIndex(ctx context.Context, items []models.DatasetIndexItem) error {
	return s.writeJSON(indexFile, items)
}

func (s *FSDatasetStore) writeJSON(name string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// validID rejects anything that could escape the dataset directory.
func validID(id string) bool {
	// "index" would collide with the index document on disk
	if id == "" || id == "index" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
