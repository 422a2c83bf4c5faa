package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/voltz-checkout/cycle-ladder/internal/config"
	"github.com/voltz-checkout/cycle-ladder/internal/health"
	"github.com/voltz-checkout/cycle-ladder/internal/ladder"
	"github.com/voltz-checkout/cycle-ladder/internal/model"
	"github.com/voltz-checkout/cycle-ladder/internal/persister"
)

var (
	// ErrInvalidRevenue is returned for negative or non-finite revenue.
	ErrInvalidRevenue = errors.New("revenue must be a non-negative number")

	// ErrBatchTooLarge is returned when a batch exceeds MaxBatchSize queries.
	ErrBatchTooLarge = fmt.Errorf("batch exceeds %d queries", config.MaxBatchSize)
)

// session is the per-account editing state. mu is held for the whole of an
// edit, or of a validate and persist, so saves for one account never
// interleave.
type session struct {
	mu      sync.Mutex
	loaded  bool
	draft   *ladder.Store
	active  model.Ladder
	receipt *model.SaveReceipt
}

// Console serves ladder edits and saves for many store accounts.
type Console struct {
	persister persister.Persister
	monitor   *health.Monitor

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates a Console saving through p and recording outcomes in monitor.
func New(p persister.Persister, monitor *health.Monitor) *Console {
	return &Console{
		persister: p,
		monitor:   monitor,
		sessions:  make(map[string]*session),
	}
}

// HealthMonitor returns the save monitor for external access.
func (c *Console) HealthMonitor() *health.Monitor {
	return c.monitor
}

// PersisterName returns the name of the configured persister.
func (c *Console) PersisterName() string {
	return c.persister.Name()
}

// Accounts returns the accounts with an open session, sorted.
func (c *Console) Accounts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(c.sessions))
	for id := range c.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Ladder returns the account's working ladder.
func (c *Console) Ladder(ctx context.Context, accountID string) (model.Ladder, error) {
	var out model.Ladder
	err := c.withSession(ctx, accountID, func(s *session) error {
		out = s.draft.GetAll()
		return nil
	})
	return out, err
}

// AddBand appends a band to the account's working ladder.
func (c *Console) AddBand(ctx context.Context, accountID string) (model.Ladder, error) {
	var out model.Ladder
	err := c.withSession(ctx, accountID, func(s *session) error {
		out = s.draft.AddBand()
		b := out[len(out)-1]
		slog.Info("band_added",
			"account_id", accountID,
			"band_id", b.ID,
			"min_revenue", b.MinRevenue,
			"cycle_value", b.CycleValue,
		)
		return nil
	})
	return out, err
}

// RemoveBand deletes a band from the account's working ladder.
func (c *Console) RemoveBand(ctx context.Context, accountID, bandID string) (model.Ladder, error) {
	var out model.Ladder
	err := c.withSession(ctx, accountID, func(s *session) error {
		var err error
		out, err = s.draft.RemoveBand(bandID)
		if err != nil {
			return err
		}
		slog.Info("band_removed", "account_id", accountID, "band_id", bandID, "bands", len(out))
		return nil
	})
	return out, err
}

// UpdateBand sets one field of a band from raw operator input.
func (c *Console) UpdateBand(ctx context.Context, accountID, bandID string, field model.Field, raw string) (model.Ladder, error) {
	var out model.Ladder
	err := c.withSession(ctx, accountID, func(s *session) error {
		var err error
		out, err = s.draft.UpdateBandField(bandID, field, raw)
		if err != nil {
			return err
		}
		slog.Debug("band_updated", "account_id", accountID, "band_id", bandID, "field", field)
		return nil
	})
	return out, err
}

// Validate checks the account's working ladder without saving it.
func (c *Console) Validate(ctx context.Context, accountID string) error {
	return c.withSession(ctx, accountID, func(s *session) error {
		return s.draft.Validate()
	})
}

// Save validates the working ladder and persists it. An invalid ladder is
// left as-is for the operator to fix. Saving a ladder identical to the last
// persisted one returns the previous receipt marked unchanged.
func (c *Console) Save(ctx context.Context, accountID string) (model.SaveReceipt, error) {
	var receipt model.SaveReceipt
	err := c.withSession(ctx, accountID, func(s *session) error {
		bands := s.draft.GetAll()

		if err := ladder.Validate(bands); err != nil {
			c.monitor.RecordOutcome(accountID, health.OutcomeRejected)
			var le *model.LadderError
			if errors.As(err, &le) {
				slog.Warn("ladder_save_rejected",
					"account_id", accountID,
					"kind", le.Kind,
					"band_id", le.BandID,
					"index", le.Index,
				)
			}
			return err
		}

		if s.receipt != nil && s.active.Equal(bands) {
			c.monitor.RecordOutcome(accountID, health.OutcomeAccepted)
			receipt = *s.receipt
			receipt.Unchanged = true
			slog.Info("ladder_save_unchanged", "account_id", accountID, "revision", receipt.Revision)
			return nil
		}

		r, err := c.persister.Persist(ctx, accountID, bands)
		if err != nil {
			c.monitor.RecordOutcome(accountID, health.OutcomeFailed)
			slog.Error("ladder_save_failed",
				"account_id", accountID,
				"persister", c.persister.Name(),
				"error", err,
			)
			return err
		}

		c.monitor.RecordOutcome(accountID, health.OutcomeAccepted)
		s.active = bands
		s.receipt = &r
		receipt = r
		slog.Info("ladder_saved",
			"account_id", accountID,
			"persister", r.Persister,
			"revision", r.Revision,
			"bands", r.Bands,
		)
		return nil
	})
	return receipt, err
}

// Reload replaces the working ladder with the persisted one, or with the
// defaults when the account never saved.
func (c *Console) Reload(ctx context.Context, accountID string) (model.Ladder, error) {
	var out model.Ladder
	err := c.withSession(ctx, accountID, func(s *session) error {
		if err := c.load(ctx, accountID, s); err != nil {
			return err
		}
		out = s.draft.GetAll()
		slog.Info("ladder_reloaded", "account_id", accountID, "bands", len(out), "saved", s.active != nil)
		return nil
	})
	return out, err
}

// CycleFor returns the band applying to revenue under the account's last
// saved ladder, or its working ladder if it never saved. Lookups never open
// a session.
func (c *Console) CycleFor(ctx context.Context, accountID string, revenue float64) (model.Band, error) {
	if revenue < 0 || math.IsNaN(revenue) || math.IsInf(revenue, 0) {
		return model.Band{}, ErrInvalidRevenue
	}

	l, err := c.lookupLadder(ctx, accountID)
	if err != nil {
		return model.Band{}, err
	}
	return ladder.CycleFor(l, revenue)
}

// lookupLadder returns the ladder revenue lookups use. Accounts without a
// session are read straight from the persister and do not get one.
func (c *Console) lookupLadder(ctx context.Context, accountID string) (model.Ladder, error) {
	c.mu.Lock()
	_, ok := c.sessions[accountID]
	c.mu.Unlock()

	if ok {
		var l model.Ladder
		err := c.withSession(ctx, accountID, func(s *session) error {
			l = s.active
			if l == nil {
				l = s.draft.GetAll()
			}
			return nil
		})
		return l, err
	}

	l, err := c.persister.Load(ctx, accountID)
	switch {
	case errors.Is(err, persister.ErrNotSaved):
		return ladder.DefaultLadder(), nil
	case err != nil:
		slog.Error("ladder_load_failed", "account_id", accountID, "persister", c.persister.Name(), "error", err)
		return nil, err
	}
	return l, nil
}

// EvaluateBatch answers many revenue queries concurrently. Ladder errors
// are reported per query; any other error aborts the batch.
func (c *Console) EvaluateBatch(ctx context.Context, queries []model.RevenueQuery) ([]model.CycleAssignment, error) {
	if len(queries) > config.MaxBatchSize {
		return nil, ErrBatchTooLarge
	}

	results := make([]model.CycleAssignment, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(config.BatchConcurrency)

	for i, q := range queries {
		g.Go(func() error {
			a := model.CycleAssignment{AccountID: q.AccountID, Revenue: q.Revenue}
			band, err := c.CycleFor(ctx, q.AccountID, q.Revenue)
			var le *model.LadderError
			switch {
			case err == nil:
				a.BandID = band.ID
				a.CycleValue = band.CycleValue
			case errors.As(err, &le), errors.Is(err, ErrInvalidRevenue):
				a.Error = err.Error()
			default:
				return fmt.Errorf("evaluating %s: %w", q.AccountID, err)
			}
			results[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// withSession runs fn holding the account's session lock, loading the
// session from the persister on first use.
func (c *Console) withSession(ctx context.Context, accountID string, fn func(s *session) error) error {
	c.mu.Lock()
	s, ok := c.sessions[accountID]
	if !ok {
		s = &session{draft: ladder.NewDefaultStore()}
		c.sessions[accountID] = s
	}
	c.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		if err := c.load(ctx, accountID, s); err != nil {
			return err
		}
	}
	return fn(s)
}

// load reads the persisted ladder into s. Called with s.mu held.
func (c *Console) load(ctx context.Context, accountID string, s *session) error {
	l, err := c.persister.Load(ctx, accountID)
	switch {
	case errors.Is(err, persister.ErrNotSaved):
		s.draft.Replace(ladder.DefaultLadder())
		s.active = nil
		s.receipt = nil
	case err != nil:
		slog.Error("ladder_load_failed", "account_id", accountID, "persister", c.persister.Name(), "error", err)
		return err
	default:
		s.draft.Replace(l)
		if !s.active.Equal(l) {
			s.receipt = nil
		}
		s.active = l.Clone()
	}
	s.loaded = true
	return nil
}
