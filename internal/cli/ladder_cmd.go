package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/voltz-checkout/cycle-ladder/internal/config"
	"github.com/voltz-checkout/cycle-ladder/internal/ladder"
	"github.com/voltz-checkout/cycle-ladder/internal/model"
	"github.com/voltz-checkout/cycle-ladder/internal/persister"
	"github.com/voltz-checkout/cycle-ladder/internal/repository"
)

// SaveSuccessMessage is printed after an accepted save.
const SaveSuccessMessage = "Configurações salvas com sucesso"

func newShowCmd(app *App) *cobra.Command {
	var active, asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the working ladder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				l   model.Ladder
				err error
			)
			if active {
				l, err = app.active(ctx)
				if err == nil && l == nil {
					return fmt.Errorf("account %q has no saved ladder", app.account)
				}
			} else {
				l, err = app.draft(ctx)
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(l)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderLadder(l))
			return nil
		},
	}

	cmd.Flags().BoolVar(&active, "active", false, "show the last saved ladder instead")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the ladder as JSON")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Append a band above the current top band",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.editDraft(cmd.Context(), func(l model.Ladder) (model.Ladder, error) {
				return ladder.AddBand(l), nil
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderLadder(l))
			return nil
		},
	}
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <band-id>",
		Short: "Remove a band",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.editDraft(cmd.Context(), func(l model.Ladder) (model.Ladder, error) {
				return ladder.RemoveBand(l, args[0])
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderLadder(l))
			return nil
		},
	}
}

func newSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <band-id> <minRevenue|maxRevenue|cycleValue> <value>",
		Short: "Set one field of a band",
		Long:  "Set one field of a band. An empty maxRevenue makes the band unbounded; unparseable numbers are stored as 0.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := ladder.ParseField(args[1])
			if err != nil {
				return err
			}
			l, err := app.editDraft(cmd.Context(), func(l model.Ladder) (model.Ladder, error) {
				return ladder.UpdateBandField(l, args[0], field, args[2])
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderLadder(l))
			return nil
		},
	}
}

func newValidateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the working ladder without saving it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.draft(cmd.Context())
			if err != nil {
				return err
			}
			if err := ladder.Validate(l); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styleGreen.Render("✓ ladder is valid"))
			return nil
		},
	}
}

func newSaveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Validate the working ladder and save it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l, err := app.draft(ctx)
			if err != nil {
				return err
			}
			if err := ladder.Validate(l); err != nil {
				return err
			}

			saved, err := app.active(ctx)
			if err != nil {
				return err
			}
			if saved != nil && saved.Equal(l) {
				fmt.Fprintln(cmd.OutOrStdout(), styleDim.Render("ladder unchanged, nothing to save"))
				return nil
			}

			receipt, err := persister.NewRepo(config.BackendSQLite, app.Ladders).Persist(ctx, app.account, l)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s revision %d, %d bands)\n",
				styleGreen.Render(SaveSuccessMessage), receipt.Persister, receipt.Revision, receipt.Bands)
			return nil
		},
	}
}

func newResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard unsaved edits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l, err := app.active(ctx)
			if err != nil {
				return err
			}
			if l == nil {
				l = ladder.DefaultLadder()
			}
			if _, err := app.Ladders.Put(ctx, app.account, repository.SlotDraft, l); err != nil {
				return fmt.Errorf("storing draft ladder: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderLadder(l))
			return nil
		},
	}
}

func newCycleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cycle <revenue>",
		Short: "Show the cycle value applied at a cumulative revenue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			revenue, err := strconv.ParseFloat(args[0], 64)
			if err != nil || revenue < 0 || math.IsNaN(revenue) || math.IsInf(revenue, 0) {
				return fmt.Errorf("revenue must be a non-negative number, got %q", args[0])
			}

			l, err := app.active(ctx)
			if err != nil {
				return err
			}
			if l == nil {
				if l, err = app.draft(ctx); err != nil {
					return err
				}
			}

			b, err := ladder.CycleFor(l, revenue)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "band %s: cycle value %s\n", b.ID, formatAmount(b.CycleValue))
			return nil
		},
	}
}
