package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nexu/internal/core"
	"nexu/internal/ledger"
)

const (
	cardColumns = "id, name, credit_limit, closing_day, due_day"
	txColumns   = "id, card_id, description, amount, date, installments_total, installment_current, buyer_type, third_party_name"
)

func scanCard(s scanner) (core.CreditCard, error) {
	var c core.CreditCard
	err := s.Scan(&c.ID, &c.Name, &c.CreditLimit, &c.ClosingDay, &c.DueDay)
	return c, err
}

func scanTransaction(s scanner) (core.CardTransaction, error) {
	var t core.CardTransaction
	var buyer string
	err := s.Scan(&t.ID, &t.CardID, &t.Description, &t.Amount, &t.Date,
		&t.InstallmentsTotal, &t.InstallmentCurrent, &buyer, &t.ThirdPartyName)
	t.BuyerType = core.BuyerType(buyer)
	return t, err
}

func (r *SQLiteRepository) CreateCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_cards (name, credit_limit, closing_day, due_day) VALUES (?, ?, ?, ?)`,
		c.Name, c.CreditLimit.String(), c.ClosingDay, c.DueDay)
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("insert credit card: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.CreditCard{}, fmt.Errorf("credit card id: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCard(ctx context.Context, id int64) (core.CreditCard, error) {
	c, err := scanCard(r.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM credit_cards WHERE id = ?`, id))
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("get credit card %d: %w", id, notFound(err))
	}
	return c, nil
}

func (r *SQLiteRepository) ListCards(ctx context.Context) ([]core.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+cardColumns+` FROM credit_cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list credit cards: %w", err)
	}
	defer rows.Close()

	out := []core.CreditCard{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credit card: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error) {
	err := expectOne(r.db.ExecContext(ctx,
		`UPDATE credit_cards SET name = ?, credit_limit = ?, closing_day = ?, due_day = ? WHERE id = ?`,
		c.Name, c.CreditLimit.String(), c.ClosingDay, c.DueDay, c.ID))
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("update credit card %d: %w", c.ID, err)
	}
	return c, nil
}

// DeleteCard refuses to orphan transactions.
func (r *SQLiteRepository) DeleteCard(ctx context.Context, id int64) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM card_transactions WHERE card_id = ?`, id).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return core.ErrCardInUse
		}
		return expectOne(tx.ExecContext(ctx, `DELETE FROM credit_cards WHERE id = ?`, id))
	})
	if err != nil {
		return fmt.Errorf("delete credit card %d: %w", id, err)
	}
	return nil
}

func cardExists(ctx context.Context, tx *sql.Tx, id int64) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM credit_cards WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrReferential
	}
	return err
}

func (r *SQLiteRepository) CreateCardTransaction(ctx context.Context, t core.CardTransaction) (core.CardTransaction, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := cardExists(ctx, tx, t.CardID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO card_transactions (card_id, description, amount, date, installments_total, installment_current, buyer_type, third_party_name)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.CardID, t.Description, t.Amount.String(), t.Date.String(),
			t.InstallmentsTotal, t.InstallmentCurrent, string(t.BuyerType), t.ThirdPartyName)
		if err != nil {
			return err
		}
		t.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return core.CardTransaction{}, fmt.Errorf("insert card transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) GetCardTransaction(ctx context.Context, id int64) (core.CardTransaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, `SELECT `+txColumns+` FROM card_transactions WHERE id = ?`, id))
	if err != nil {
		return core.CardTransaction{}, fmt.Errorf("get card transaction %d: %w", id, notFound(err))
	}
	return t, nil
}

func (r *SQLiteRepository) ListCardTransactions(ctx context.Context, f ledger.Filter) ([]core.CardTransaction, error) {
	clause, args := where(f, "date")
	rows, err := r.db.QueryContext(ctx, `SELECT `+txColumns+` FROM card_transactions`+clause+` ORDER BY date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list card transactions: %w", err)
	}
	defer rows.Close()

	out := []core.CardTransaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateCardTransaction(ctx context.Context, t core.CardTransaction) (core.CardTransaction, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := cardExists(ctx, tx, t.CardID); err != nil {
			return err
		}
		return expectOne(tx.ExecContext(ctx,
			`UPDATE card_transactions SET card_id = ?, description = ?, amount = ?, date = ?,
			 installments_total = ?, installment_current = ?, buyer_type = ?, third_party_name = ? WHERE id = ?`,
			t.CardID, t.Description, t.Amount.String(), t.Date.String(),
			t.InstallmentsTotal, t.InstallmentCurrent, string(t.BuyerType), t.ThirdPartyName, t.ID))
	})
	if err != nil {
		return core.CardTransaction{}, fmt.Errorf("update card transaction %d: %w", t.ID, err)
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteCardTransaction(ctx context.Context, id int64) error {
	if err := expectOne(r.db.ExecContext(ctx, `DELETE FROM card_transactions WHERE id = ?`, id)); err != nil {
		return fmt.Errorf("delete card transaction %d: %w", id, err)
	}
	return nil
}
