package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"nexu/internal/core"
	"nexu/internal/ledger"
)

const expenseColumns = "id, description, category, amount_planned, amount_actual, due_date, status, is_recurring, notes"

func scanExpense(s scanner) (core.Expense, error) {
	var e core.Expense
	var status string
	err := s.Scan(&e.ID, &e.Description, &e.Category, &e.AmountPlanned, &e.AmountActual,
		&e.DueDate, &status, &e.Recurring, &e.Notes)
	e.Status = core.ExpenseStatus(status)
	return e, err
}

func nullAmount(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (description, category, amount_planned, amount_actual, due_date, status, is_recurring, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Description, e.Category, e.AmountPlanned.String(), nullAmount(e.AmountActual),
		e.DueDate.String(), string(e.Status), e.Recurring, e.Notes)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}
	e.ID = id
	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, notFound(err))
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, f ledger.Filter) ([]core.Expense, error) {
	clause, args := where(ledger.Filter{Range: f.Range}, "due_date")
	rows, err := r.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses`+clause+` ORDER BY due_date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateExpense reads the row, applies cmd and writes back only the columns
// the command owns, inside one transaction.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id int64, cmd core.ExpenseUpdate) (core.Expense, error) {
	var updated core.Expense
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanExpense(tx.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
		if err != nil {
			return notFound(err)
		}
		updated = cmd.Apply(current)

		switch cmd.(type) {
		case core.ExpenseSetStatus:
			_, err = tx.ExecContext(ctx,
				`UPDATE expenses SET status = ?, amount_actual = ? WHERE id = ?`,
				string(updated.Status), nullAmount(updated.AmountActual), id)
		default:
			_, err = tx.ExecContext(ctx,
				`UPDATE expenses SET description = ?, category = ?, amount_planned = ?,
				 due_date = ?, is_recurring = ?, notes = ? WHERE id = ?`,
				updated.Description, updated.Category, updated.AmountPlanned.String(),
				updated.DueDate.String(), updated.Recurring, updated.Notes, id)
		}
		return err
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	if err := expectOne(r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return nil
}
