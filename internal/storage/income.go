package storage

import (
	"context"
	"fmt"
	"log/slog"

	"nexu/internal/core"
	"nexu/internal/ledger"
)

const incomeColumns = "id, description, category, amount, date, is_recurring"

func scanIncome(s scanner) (core.Income, error) {
	var in core.Income
	err := s.Scan(&in.ID, &in.Description, &in.Category, &in.Amount, &in.Date, &in.Recurring)
	return in, err
}

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO income (description, category, amount, date, is_recurring) VALUES (?, ?, ?, ?, ?)`,
		in.Description, in.Category, in.Amount.String(), in.Date.String(), in.Recurring)
	if err != nil {
		return core.Income{}, fmt.Errorf("insert income: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Income{}, fmt.Errorf("income id: %w", err)
	}
	in.ID = id

	slog.DebugContext(ctx, "Income saved to SQLite", "id", id, "date", in.Date.String())
	return in, nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id int64) (core.Income, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+incomeColumns+` FROM income WHERE id = ?`, id)
	in, err := scanIncome(row)
	if err != nil {
		return core.Income{}, fmt.Errorf("get income %d: %w", id, notFound(err))
	}
	return in, nil
}

func (r *SQLiteRepository) ListIncome(ctx context.Context, f ledger.Filter) ([]core.Income, error) {
	clause, args := where(ledger.Filter{Range: f.Range}, "date")
	rows, err := r.db.QueryContext(ctx, `SELECT `+incomeColumns+` FROM income`+clause+` ORDER BY date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	defer rows.Close()

	out := []core.Income{}
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	err := expectOne(r.db.ExecContext(ctx,
		`UPDATE income SET description = ?, category = ?, amount = ?, date = ?, is_recurring = ? WHERE id = ?`,
		in.Description, in.Category, in.Amount.String(), in.Date.String(), in.Recurring, in.ID))
	if err != nil {
		return core.Income{}, fmt.Errorf("update income %d: %w", in.ID, err)
	}
	return in, nil
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id int64) error {
	if err := expectOne(r.db.ExecContext(ctx, `DELETE FROM income WHERE id = ?`, id)); err != nil {
		return fmt.Errorf("delete income %d: %w", id, err)
	}
	return nil
}
