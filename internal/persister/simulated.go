package persister

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/voltz-checkout/cycle-ladder/internal/config"
	"github.com/voltz-checkout/cycle-ladder/internal/model"
)

const SimulatedName = "simulated"

type savedLadder struct {
	bands    model.Ladder
	revision int
	savedAt  time.Time
}

// Simulated keeps saved ladders in memory and accepts each save after a
// fixed delay.
type Simulated struct {
	delay time.Duration

	mu          sync.Mutex
	saved       map[string]savedLadder
	unavailable bool
}

// NewSimulated creates a simulated persister with the given save delay.
func NewSimulated(delay time.Duration) *Simulated {
	return &Simulated{
		delay: delay,
		saved: make(map[string]savedLadder),
	}
}

// NewDefaultSimulated creates a simulated persister with DefaultSaveDelay.
func NewDefaultSimulated() *Simulated {
	return NewSimulated(config.DefaultSaveDelay)
}

func (p *Simulated) Name() string {
	return SimulatedName
}

// SetUnavailable makes every following save fail, for simulating outages.
func (p *Simulated) SetUnavailable(unavailable bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unavailable = unavailable
}

func (p *Simulated) Persist(ctx context.Context, accountID string, l model.Ladder) (model.SaveReceipt, error) {
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return model.SaveReceipt{}, fmt.Errorf("saving ladder for %s: %w", accountID, ctx.Err())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unavailable {
		return model.SaveReceipt{}, fmt.Errorf("saving ladder for %s: %w", accountID, ErrUnavailable)
	}

	entry := savedLadder{
		bands:    l.Clone(),
		revision: p.saved[accountID].revision + 1,
		savedAt:  time.Now().UTC(),
	}
	p.saved[accountID] = entry

	return model.SaveReceipt{
		AccountID: accountID,
		Persister: SimulatedName,
		Revision:  entry.revision,
		Bands:     len(entry.bands),
		SavedAt:   entry.savedAt,
	}, nil
}

func (p *Simulated) Load(_ context.Context, accountID string) (model.Ladder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.saved[accountID]
	if !ok {
		return nil, fmt.Errorf("loading ladder for %s: %w", accountID, ErrNotSaved)
	}
	return entry.bands.Clone(), nil
}
