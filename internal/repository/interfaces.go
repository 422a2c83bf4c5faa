package repository

import (
	"context"
	"time"

	"github.com/voltz-checkout/cycle-ladder/internal/model"
)

// Slot distinguishes the working copy of a ladder from the last accepted one.
type Slot string

const (
	SlotDraft  Slot = "draft"
	SlotActive Slot = "active"
)

// IsValid returns true for the known slots.
func (s Slot) IsValid() bool {
	return s == SlotDraft || s == SlotActive
}

// StoredLadder is a ladder as persisted for one account and slot.
type StoredLadder struct {
	AccountID string       `json:"account_id"`
	Slot      Slot         `json:"slot"`
	Bands     model.Ladder `json:"bands"`
	Revision  int          `json:"revision"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// LadderRepo stores whole ladders. Put replaces every band of the slot and
// bumps its revision by one.
type LadderRepo interface {
	Get(ctx context.Context, accountID string, slot Slot) (*StoredLadder, error)
	Put(ctx context.Context, accountID string, slot Slot, bands model.Ladder) (*StoredLadder, error)
	Delete(ctx context.Context, accountID string, slot Slot) error
	ListAccounts(ctx context.Context) ([]string, error)
}
