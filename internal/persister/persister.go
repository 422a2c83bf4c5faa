package persister

import (
	"context"
	"errors"

	"github.com/voltz-checkout/cycle-ladder/internal/model"
)

var (
	// ErrNotSaved is returned by Load when the account never saved a ladder.
	ErrNotSaved = errors.New("no saved ladder")

	// ErrUnavailable is returned when the backing store refuses a save.
	ErrUnavailable = errors.New("persister unavailable")
)

// Persister defines the interface for ladder persistence backends.
type Persister interface {
	// Name returns the persister's unique identifier.
	Name() string
	// Persist stores an already validated ladder as the account's active one.
	Persist(ctx context.Context, accountID string, l model.Ladder) (model.SaveReceipt, error)
	// Load returns the account's last persisted ladder.
	Load(ctx context.Context, accountID string) (model.Ladder, error)
}
