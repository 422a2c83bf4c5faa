package persister

import (
	"context"
	"errors"
	"fmt"

	"github.com/voltz-checkout/cycle-ladder/internal/model"
	"github.com/voltz-checkout/cycle-ladder/internal/repository"
)

// Repo persists ladders to the active slot of a LadderRepo.
type Repo struct {
	name string
	repo repository.LadderRepo
}

// NewRepo creates a persister named after its storage backend.
func NewRepo(name string, repo repository.LadderRepo) *Repo {
	return &Repo{name: name, repo: repo}
}

func (p *Repo) Name() string {
	return p.name
}

func (p *Repo) Persist(ctx context.Context, accountID string, l model.Ladder) (model.SaveReceipt, error) {
	stored, err := p.repo.Put(ctx, accountID, repository.SlotActive, l)
	if err != nil {
		return model.SaveReceipt{}, fmt.Errorf("saving ladder for %s: %w: %w", accountID, ErrUnavailable, err)
	}
	return model.SaveReceipt{
		AccountID: accountID,
		Persister: p.name,
		Revision:  stored.Revision,
		Bands:     len(stored.Bands),
		SavedAt:   stored.UpdatedAt,
	}, nil
}

func (p *Repo) Load(ctx context.Context, accountID string) (model.Ladder, error) {
	stored, err := p.repo.Get(ctx, accountID, repository.SlotActive)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("loading ladder for %s: %w", accountID, ErrNotSaved)
		}
		return nil, fmt.Errorf("loading ladder for %s: %w", accountID, err)
	}
	return stored.Bands, nil
}
