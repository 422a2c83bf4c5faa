package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voltz-checkout/cycle-ladder/internal/ladder"
	"github.com/voltz-checkout/cycle-ladder/internal/model"
	"github.com/voltz-checkout/cycle-ladder/internal/repository"
)

// DefaultAccount is used when --account is not given.
const DefaultAccount = "default"

// App holds what the commands need. Ladders is set directly in tests; the
// binary sets OpenLadders so the --db flag is honored.
type App struct {
	Ladders     repository.LadderRepo
	OpenLadders func(dbPath string) (repository.LadderRepo, error)

	account string
	dbPath  string
}

// NewRootCmd creates the top-level "ladderctl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "ladderctl",
		Short:         "Edit and save billing-cycle revenue ladders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Ladders != nil {
				return nil
			}
			if app.OpenLadders == nil {
				return errors.New("no ladder storage configured")
			}
			repo, err := app.OpenLadders(app.dbPath)
			if err != nil {
				return err
			}
			app.Ladders = repo
			return nil
		},
	}

	root.PersistentFlags().StringVar(&app.account, "account", DefaultAccount, "store account whose ladder is edited")
	root.PersistentFlags().StringVar(&app.dbPath, "db", "", "SQLite database path")

	root.AddCommand(
		newShowCmd(app),
		newAddCmd(app),
		newRemoveCmd(app),
		newSetCmd(app),
		newValidateCmd(app),
		newSaveCmd(app),
		newResetCmd(app),
		newCycleCmd(app),
	)

	return root
}

// active returns the account's saved ladder, or nil when it never saved.
func (a *App) active(ctx context.Context) (model.Ladder, error) {
	stored, err := a.Ladders.Get(ctx, a.account, repository.SlotActive)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading saved ladder: %w", err)
	}
	return stored.Bands, nil
}

// draft returns the working ladder: the stored draft, else the saved
// ladder, else the defaults.
func (a *App) draft(ctx context.Context) (model.Ladder, error) {
	stored, err := a.Ladders.Get(ctx, a.account, repository.SlotDraft)
	if err == nil {
		return stored.Bands, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("reading draft ladder: %w", err)
	}

	l, err := a.active(ctx)
	if err != nil {
		return nil, err
	}
	if l == nil {
		l = ladder.DefaultLadder()
	}
	return l, nil
}

// editDraft applies edit to the working ladder and stores the result
// without validating it.
func (a *App) editDraft(ctx context.Context, edit func(model.Ladder) (model.Ladder, error)) (model.Ladder, error) {
	l, err := a.draft(ctx)
	if err != nil {
		return nil, err
	}
	next, err := edit(l)
	if err != nil {
		return nil, err
	}
	if _, err := a.Ladders.Put(ctx, a.account, repository.SlotDraft, next); err != nil {
		return nil, fmt.Errorf("storing draft ladder: %w", err)
	}
	return next, nil
}
