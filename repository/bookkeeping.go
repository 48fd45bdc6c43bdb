package repository

import (
	"context"
	"fmt"

	"github.com/tomyedwab/smartexpense/database"
	"github.com/tomyedwab/smartexpense/state"
)

// InsertTransaction stores t and applies its effects: the account balance
// moves by the amount (down for expenses, up for income) and an expense with
// a category counts against that category's budget and the total budget for
// the month it was recorded in. Everything commits together or not at all.
func (r *ExpenseRepository) InsertTransaction(ctx context.Context, t *state.Transaction) (int64, error) {
	var id int64
	err := r.db.RunInTransaction(ctx, func(tx *database.Tx) error {
		var err error
		id, err = tx.TransactionDao().Insert(ctx, t)
		if err != nil {
			return err
		}
		return r.applyEffects(ctx, tx, t, 1)
	})
	if err != nil {
		return 0, err
	}
	r.log.Debug().Int64("id", id).Int64("amount", t.Amount).Stringer("type", t.Type).Msg("recorded transaction")
	return id, nil
}

// DeleteTransaction removes the stored transaction with t.ID and reverses its
// effects. Budget spent amounts never drop below zero. Deleting a
// transaction that is not stored does nothing.
func (r *ExpenseRepository) DeleteTransaction(ctx context.Context, t *state.Transaction) error {
	return r.db.RunInTransaction(ctx, func(tx *database.Tx) error {
		stored, err := tx.TransactionDao().GetTransactionById(ctx, t.ID)
		if err != nil {
			return err
		}
		if stored == nil {
			return nil
		}
		if err := r.applyEffects(ctx, tx, stored, -1); err != nil {
			return err
		}
		return tx.TransactionDao().Delete(ctx, stored)
	})
}

// UpdateTransaction replaces the stored transaction with t, reversing the
// old effects and applying the new ones.
func (r *ExpenseRepository) UpdateTransaction(ctx context.Context, t *state.Transaction) error {
	return r.db.RunInTransaction(ctx, func(tx *database.Tx) error {
		stored, err := tx.TransactionDao().GetTransactionById(ctx, t.ID)
		if err != nil {
			return err
		}
		if stored == nil {
			return fmt.Errorf("transaction %d: %w", t.ID, ErrNoSuchRecord)
		}
		if err := r.applyEffects(ctx, tx, stored, -1); err != nil {
			return err
		}
		if err := tx.TransactionDao().Update(ctx, t); err != nil {
			return err
		}
		return r.applyEffects(ctx, tx, t, 1)
	})
}

// DeleteBook removes the book together with its categories, accounts,
// transactions and reports. The effects of its transactions are reversed
// first, so accounts and budgets outside the book stay consistent.
func (r *ExpenseRepository) DeleteBook(ctx context.Context, b *state.Book) error {
	return r.db.RunInTransaction(ctx, func(tx *database.Tx) error {
		txs, err := tx.TransactionDao().GetTransactionsByBook(ctx, b.ID)
		if err != nil {
			return err
		}
		for i := range txs {
			if err := r.applyEffects(ctx, tx, &txs[i], -1); err != nil {
				return err
			}
		}
		return tx.BookDao().Delete(ctx, b)
	})
}

// DeleteCategory removes the category. Its expenses become uncategorized, so
// their charges against the category budget and the total budget are
// reversed first. Account balances are unchanged.
func (r *ExpenseRepository) DeleteCategory(ctx context.Context, c *state.Category) error {
	return r.db.RunInTransaction(ctx, func(tx *database.Tx) error {
		category, err := tx.CategoryDao().GetCategoryById(ctx, c.ID)
		if err != nil {
			return err
		}
		if category == nil {
			return nil
		}
		txs, err := tx.TransactionDao().GetTransactionsByCategory(ctx, c.ID)
		if err != nil {
			return err
		}
		for i := range txs {
			if err := r.applyBudgetEffects(ctx, tx, &txs[i], category, -1); err != nil {
				return err
			}
		}
		return tx.CategoryDao().Delete(ctx, c)
	})
}

// applyEffects adjusts balances and budgets for t. sign is 1 to apply and -1
// to reverse.
func (r *ExpenseRepository) applyEffects(ctx context.Context, tx *database.Tx, t *state.Transaction, sign int64) error {
	if t.AccountID != nil {
		delta := t.Amount
		if t.Type == state.TypeExpense {
			delta = -delta
		}
		if err := tx.AccountDao().UpdateBalance(ctx, *t.AccountID, sign*delta); err != nil {
			return err
		}
	}

	if t.Type != state.TypeExpense || t.CategoryID == nil {
		return nil
	}
	category, err := tx.CategoryDao().GetCategoryById(ctx, *t.CategoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return nil
	}
	return r.applyBudgetEffects(ctx, tx, t, category, sign)
}

// applyBudgetEffects charges an expense against its category budget and the
// total budget for the month it was recorded in.
func (r *ExpenseRepository) applyBudgetEffects(ctx context.Context, tx *database.Tx, t *state.Transaction, category *state.Category, sign int64) error {
	if t.Type != state.TypeExpense {
		return nil
	}
	recorded := r.timeOf(t.RecordTime)
	year, month := recorded.Year(), int(recorded.Month())
	names := []string{category.Name}
	if category.Name != state.TotalBudgetCategory {
		names = append(names, state.TotalBudgetCategory)
	}
	for _, name := range names {
		if err := r.addSpent(ctx, tx.BudgetDao(), name, year, month, sign*t.Amount); err != nil {
			return err
		}
	}
	return nil
}

// addSpent moves a budget's spent amount by delta, clamped at zero. Months
// without a matching budget are left alone.
func (r *ExpenseRepository) addSpent(ctx context.Context, budgets *state.BudgetDao, category string, year, month int, delta int64) error {
	b, err := budgets.GetBudgetByCategoryAndMonth(ctx, category, year, month)
	if err != nil {
		return err
	}
	if b == nil {
		return nil
	}
	b.SpentAmount += delta
	if b.SpentAmount < 0 {
		b.SpentAmount = 0
	}
	b.UpdateTime = r.now().UnixMilli()
	return budgets.Update(ctx, b)
}

// ChangeAccountBalance adds delta to the account balance.
func (r *ExpenseRepository) ChangeAccountBalance(ctx context.Context, accountID, delta int64) error {
	return r.db.AccountDao().UpdateBalance(ctx, accountID, delta)
}

// SetAccountBalance sets the account balance to balance.
func (r *ExpenseRepository) SetAccountBalance(ctx context.Context, accountID, balance int64) error {
	return r.db.RunInTransaction(ctx, func(tx *database.Tx) error {
		account, err := tx.AccountDao().GetAccountById(ctx, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return fmt.Errorf("account %d: %w", accountID, ErrNoSuchRecord)
		}
		return tx.AccountDao().UpdateBalance(ctx, accountID, balance-account.Balance)
	})
}

// DeleteAccountById removes the account if it exists. Its transactions stay
// with no account.
func (r *ExpenseRepository) DeleteAccountById(ctx context.Context, accountID int64) error {
	return r.db.AccountDao().Delete(ctx, &state.Account{ID: accountID})
}

// SetTotalBudgetForMonth makes the month's total budget a single row with
// the given amounts, replacing any existing total budget rows.
func (r *ExpenseRepository) SetTotalBudgetForMonth(ctx context.Context, year, month int, amount, spent int64) (int64, error) {
	var id int64
	err := r.db.RunInTransaction(ctx, func(tx *database.Tx) error {
		budgets := tx.BudgetDao()
		if err := budgets.DeleteByCategoryAndMonth(ctx, state.TotalBudgetCategory, year, month); err != nil {
			return err
		}
		b := &state.Budget{
			Category:     state.TotalBudgetCategory,
			BudgetAmount: amount,
			SpentAmount:  spent,
			Year:         year,
			Month:        month,
			Note:         "Total budget for the month",
		}
		r.stamp(b)
		var err error
		id, err = budgets.Insert(ctx, b)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateBudgetSpentAmount overwrites the spent amount of a category's budget
// for the month. It does nothing when there is no such budget.
func (r *ExpenseRepository) UpdateBudgetSpentAmount(ctx context.Context, category string, year, month int, spent int64) error {
	return r.db.RunInTransaction(ctx, func(tx *database.Tx) error {
		b, err := tx.BudgetDao().GetBudgetByCategoryAndMonth(ctx, category, year, month)
		if err != nil {
			return err
		}
		if b == nil {
			return nil
		}
		b.SpentAmount = spent
		b.UpdateTime = r.now().UnixMilli()
		return tx.BudgetDao().Update(ctx, b)
	})
}
