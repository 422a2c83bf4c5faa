package health

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/voltz-checkout/cycle-ladder/internal/config"
)

// Status represents the save health of an account.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusFailing  Status = "failing"
)

// Outcome is the result of one save attempt.
type Outcome string

const (
	// OutcomeAccepted means the ladder validated and was persisted.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeRejected means the validator refused the ladder.
	OutcomeRejected Outcome = "rejected"
	// OutcomeFailed means the persister returned an error.
	OutcomeFailed Outcome = "failed"
)

// SaveHealth contains the current save statistics for an account.
type SaveHealth struct {
	AccountID      string    `json:"account_id"`
	AcceptanceRate float64   `json:"acceptance_rate"`
	Status         Status    `json:"status"`
	TotalRecent    int       `json:"total_recent"`
	AcceptedCount  int       `json:"accepted_count"`
	RejectedCount  int       `json:"rejected_count"`
	FailedCount    int       `json:"failed_count"`
	LastUpdated    time.Time `json:"last_updated"`
}

type sample struct {
	outcome   Outcome
	timestamp time.Time
}

// Monitor tracks save outcomes per account using a sliding window.
type Monitor struct {
	mu             sync.RWMutex
	windows        map[string][]sample
	windowSize     int
	windowDuration time.Duration
}

// NewMonitor creates a new save monitor with default configuration.
func NewMonitor() *Monitor {
	return NewMonitorWithConfig(
		config.HealthWindowSize,
		time.Duration(config.HealthWindowDurationMinutes)*time.Minute,
	)
}

// NewMonitorWithConfig creates a monitor with custom window settings for testing.
func NewMonitorWithConfig(windowSize int, windowDuration time.Duration) *Monitor {
	return &Monitor{
		windows:        make(map[string][]sample),
		windowSize:     windowSize,
		windowDuration: windowDuration,
	}
}

// RecordOutcome records a save outcome for an account.
func (m *Monitor) RecordOutcome(accountID string, o Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.windows[accountID] = append(m.windows[accountID], sample{
		outcome:   o,
		timestamp: time.Now(),
	})

	m.windows[accountID] = m.trim(m.windows[accountID])
}

// GetHealth returns the current save health for an account.
func (m *Monitor) GetHealth(accountID string) SaveHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()

	window := m.trim(m.windows[accountID])

	h := SaveHealth{
		AccountID:      accountID,
		AcceptanceRate: 1.0, // accounts without recent saves are healthy
		Status:         StatusHealthy,
		TotalRecent:    len(window),
		LastUpdated:    time.Now(),
	}
	if len(window) == 0 {
		return h
	}

	for _, s := range window {
		switch s.outcome {
		case OutcomeAccepted:
			h.AcceptedCount++
		case OutcomeRejected:
			h.RejectedCount++
		default:
			h.FailedCount++
		}
	}

	h.AcceptanceRate = float64(h.AcceptedCount) / float64(len(window))
	if h.AcceptanceRate < config.FailingThreshold {
		h.Status = StatusFailing
	} else if h.AcceptanceRate < config.DegradedThreshold {
		h.Status = StatusDegraded
	}
	return h
}

// GetAllHealth returns save health for all tracked accounts, ordered by ID.
func (m *Monitor) GetAllHealth() []SaveHealth {
	m.mu.RLock()
	accounts := make([]string, 0, len(m.windows))
	for id := range m.windows {
		accounts = append(accounts, id)
	}
	m.mu.RUnlock()

	slices.Sort(accounts)

	healths := make([]SaveHealth, 0, len(accounts))
	for _, id := range accounts {
		healths = append(healths, m.GetHealth(id))
	}
	return healths
}

// Worst returns the most severe status across all tracked accounts.
func (m *Monitor) Worst() Status {
	worst := StatusHealthy
	for _, h := range m.GetAllHealth() {
		if cmp.Compare(severity(h.Status), severity(worst)) > 0 {
			worst = h.Status
		}
	}
	return worst
}

func severity(s Status) int {
	switch s {
	case StatusFailing:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

// trim drops expired samples and keeps at most windowSize of the most
// recent ones. It never modifies window in place.
func (m *Monitor) trim(window []sample) []sample {
	if len(window) == 0 {
		return nil
	}

	cutoff := time.Now().Add(-m.windowDuration)
	active := make([]sample, 0, len(window))
	for _, s := range window {
		if s.timestamp.After(cutoff) {
			active = append(active, s)
		}
	}

	if len(active) > m.windowSize {
		active = active[len(active)-m.windowSize:]
	}
	return active
}
