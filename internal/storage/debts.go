package storage

import (
	"context"
	"database/sql"
	"fmt"

	"nexu/internal/core"
	"nexu/internal/ledger"
)

const debtColumns = "id, person_name, amount, date, origin, status"

func scanDebt(s scanner) (core.ThirdPartyDebt, error) {
	var d core.ThirdPartyDebt
	var status string
	err := s.Scan(&d.ID, &d.PersonName, &d.Amount, &d.Date, &d.Origin, &status)
	d.Status = core.DebtStatus(status)
	return d, err
}

func (r *SQLiteRepository) CreateDebt(ctx context.Context, d core.ThirdPartyDebt) (core.ThirdPartyDebt, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO third_party_debts (person_name, amount, date, origin, status) VALUES (?, ?, ?, ?, ?)`,
		d.PersonName, d.Amount.String(), d.Date.String(), d.Origin, string(d.Status))
	if err != nil {
		return core.ThirdPartyDebt{}, fmt.Errorf("insert debt: %w", err)
	}
	if d.ID, err = res.LastInsertId(); err != nil {
		return core.ThirdPartyDebt{}, fmt.Errorf("debt id: %w", err)
	}
	return d, nil
}

func (r *SQLiteRepository) GetDebt(ctx context.Context, id int64) (core.ThirdPartyDebt, error) {
	d, err := scanDebt(r.db.QueryRowContext(ctx, `SELECT `+debtColumns+` FROM third_party_debts WHERE id = ?`, id))
	if err != nil {
		return core.ThirdPartyDebt{}, fmt.Errorf("get debt %d: %w", id, notFound(err))
	}
	return d, nil
}

func (r *SQLiteRepository) ListDebts(ctx context.Context, f ledger.Filter) ([]core.ThirdPartyDebt, error) {
	clause, args := where(ledger.Filter{Range: f.Range}, "date")
	rows, err := r.db.QueryContext(ctx, `SELECT `+debtColumns+` FROM third_party_debts`+clause+` ORDER BY date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	out := []core.ThirdPartyDebt{}
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateDebt(ctx context.Context, id int64, cmd core.DebtUpdate) (core.ThirdPartyDebt, error) {
	var updated core.ThirdPartyDebt
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanDebt(tx.QueryRowContext(ctx, `SELECT `+debtColumns+` FROM third_party_debts WHERE id = ?`, id))
		if err != nil {
			return notFound(err)
		}
		updated = cmd.Apply(current)

		switch cmd.(type) {
		case core.DebtSetStatus:
			_, err = tx.ExecContext(ctx, `UPDATE third_party_debts SET status = ? WHERE id = ?`, string(updated.Status), id)
		default:
			_, err = tx.ExecContext(ctx,
				`UPDATE third_party_debts SET person_name = ?, amount = ?, date = ?, origin = ? WHERE id = ?`,
				updated.PersonName, updated.Amount.String(), updated.Date.String(), updated.Origin, id)
		}
		return err
	})
	if err != nil {
		return core.ThirdPartyDebt{}, fmt.Errorf("update debt %d: %w", id, err)
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteDebt(ctx context.Context, id int64) error {
	if err := expectOne(r.db.ExecContext(ctx, `DELETE FROM third_party_debts WHERE id = ?`, id)); err != nil {
		return fmt.Errorf("delete debt %d: %w", id, err)
	}
	return nil
}
