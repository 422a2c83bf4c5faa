package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/voltz-checkout/cycle-ladder/internal/db"
	"github.com/voltz-checkout/cycle-ladder/internal/model"
)

// SQLiteLadderRepo implements LadderRepo using a SQLite database.
type SQLiteLadderRepo struct {
	db  db.DBTX
	uow db.UnitOfWork
}

// NewSQLiteLadderRepo creates a new SQLiteLadderRepo. Writes run inside a
// transaction so a ladder is never stored half-replaced.
func NewSQLiteLadderRepo(database *sql.DB) *SQLiteLadderRepo {
	return &SQLiteLadderRepo{db: database, uow: db.NewSQLiteUnitOfWork(database)}
}

func (r *SQLiteLadderRepo) Get(ctx context.Context, accountID string, slot Slot) (*StoredLadder, error) {
	if !slot.IsValid() {
		return nil, fmt.Errorf("ladder slot %q: %w", slot, ErrInvalidSlot)
	}

	var (
		revision  int
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT revision, updated_at FROM ladders WHERE account_id = ? AND slot = ?`,
		accountID, string(slot),
	).Scan(&revision, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ladder %s/%s: %w", accountID, slot, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning ladder: %w", err)
	}

	bands, err := r.listBands(ctx, r.db, accountID, slot)
	if err != nil {
		return nil, err
	}

	return &StoredLadder{
		AccountID: accountID,
		Slot:      slot,
		Bands:     bands,
		Revision:  revision,
		UpdatedAt: parseTime(updatedAt),
	}, nil
}

func (r *SQLiteLadderRepo) Put(ctx context.Context, accountID string, slot Slot, bands model.Ladder) (*StoredLadder, error) {
	if !slot.IsValid() {
		return nil, fmt.Errorf("ladder slot %q: %w", slot, ErrInvalidSlot)
	}

	now := time.Now().UTC()
	var revision int

	err := r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var current int
		err := tx.QueryRowContext(ctx,
			`SELECT revision FROM ladders WHERE account_id = ? AND slot = ?`,
			accountID, string(slot),
		).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("reading ladder revision: %w", err)
		}
		revision = current + 1

		_, err = tx.ExecContext(ctx,
			`INSERT INTO ladders (account_id, slot, revision, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(account_id, slot) DO UPDATE SET revision = excluded.revision, updated_at = excluded.updated_at`,
			accountID, string(slot), revision, now.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("upserting ladder: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM ladder_bands WHERE account_id = ? AND slot = ?`,
			accountID, string(slot),
		); err != nil {
			return fmt.Errorf("clearing ladder bands: %w", err)
		}

		for i, b := range bands {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO ladder_bands (account_id, slot, position, band_id, min_revenue, max_revenue, cycle_value)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				accountID, string(slot), i, b.ID, b.MinRevenue, nullableFloatToValue(b.MaxRevenue), b.CycleValue,
			)
			if err != nil {
				return fmt.Errorf("inserting band %s: %w", b.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &StoredLadder{
		AccountID: accountID,
		Slot:      slot,
		Bands:     bands.Clone(),
		Revision:  revision,
		UpdatedAt: now,
	}, nil
}

func (r *SQLiteLadderRepo) Delete(ctx context.Context, accountID string, slot Slot) error {
	return r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM ladder_bands WHERE account_id = ? AND slot = ?`, accountID, string(slot),
		); err != nil {
			return fmt.Errorf("deleting ladder bands: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM ladders WHERE account_id = ? AND slot = ?`, accountID, string(slot),
		)
		if err != nil {
			return fmt.Errorf("deleting ladder: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking deleted ladder: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("ladder %s/%s: %w", accountID, slot, ErrNotFound)
		}
		return nil
	})
}

func (r *SQLiteLadderRepo) ListAccounts(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT account_id FROM ladders ORDER BY account_id`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, id)
	}
	return accounts, rows.Err()
}

func (r *SQLiteLadderRepo) listBands(ctx context.Context, q db.DBTX, accountID string, slot Slot) (model.Ladder, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT band_id, min_revenue, max_revenue, cycle_value FROM ladder_bands
		WHERE account_id = ? AND slot = ? ORDER BY position`,
		accountID, string(slot),
	)
	if err != nil {
		return nil, fmt.Errorf("listing ladder bands: %w", err)
	}
	defer rows.Close()

	bands := model.Ladder{}
	for rows.Next() {
		var (
			b     model.Band
			upper sql.NullFloat64
		)
		if err := rows.Scan(&b.ID, &b.MinRevenue, &upper, &b.CycleValue); err != nil {
			return nil, fmt.Errorf("scanning band: %w", err)
		}
		b.MaxRevenue = nullFloatToPtr(upper)
		bands = append(bands, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bands: %w", err)
	}
	return bands, nil
}
