// Package memory provides a process-local domain.Gateway. State is lost when
// the process exits.
package memory

import (
	"context"
	"sync"

	"github.com/msomdec/clinic-booking/internal/domain"
)

type Gateway struct {
	mu   sync.Mutex
	snap *domain.Snapshot
}

var _ domain.Gateway = (*Gateway)(nil)

func New() *Gateway {
	return &Gateway{}
}

func (g *Gateway) Load(ctx context.Context) (*domain.Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.snap == nil {
		return nil, domain.ErrNoSnapshot
	}
	return g.snap.Clone(), nil
}

func (g *Gateway) Save(ctx context.Context, snap *domain.Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.snap = snap.Clone()
	return nil
}

func (g *Gateway) Close() error {
	return nil
}
