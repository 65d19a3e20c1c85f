// Package jsonfile stores the snapshot as one JSON document on disk, in the
// same layout the REST server has always used for db.json.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/msomdec/clinic-booking/internal/domain"
)

type Gateway struct {
	mu   sync.Mutex
	path string
}

var _ domain.Gateway = (*Gateway)(nil)

// New returns a gateway for the file at path, creating its directory.
func New(path string) (*Gateway, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Gateway{path: path}, nil
}

func (g *Gateway) Load(ctx context.Context) (*domain.Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	raw, err := os.ReadFile(g.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNoSnapshot
		}
		return nil, fmt.Errorf("read %s: %w", g.path, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", g.path, err)
	}
	if snap.NextIDs == nil {
		snap.NextIDs = make(map[string]int64)
	}
	return &snap, nil
}

// Save writes to a temporary file next to the target and renames it into
// place, so readers never see a half-written document.
func (g *Gateway) Save(ctx context.Context, snap *domain.Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := g.path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, g.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", g.path, err)
	}
	return nil
}

func (g *Gateway) Close() error {
	return nil
}
