package repository

import (
	"context"

	"github.com/tomyedwab/smartexpense/database"
	"github.com/tomyedwab/smartexpense/state"
)

const DefaultBookName = "Default Book"

var defaultCategories = []state.Category{
	{Name: "Dining", Type: state.TypeExpense, IconRes: "restaurant"},
	{Name: "Shopping", Type: state.TypeExpense, IconRes: "shopping"},
	{Name: "Transport", Type: state.TypeExpense, IconRes: "transport"},
	{Name: "Entertainment", Type: state.TypeExpense, IconRes: "entertainment"},
	{Name: "Medical", Type: state.TypeExpense, IconRes: "medical"},
	{Name: "Education", Type: state.TypeExpense, IconRes: "education"},
	{Name: "Other", Type: state.TypeExpense, IconRes: "other"},
	{Name: "Salary", Type: state.TypeIncome, IconRes: "salary"},
	{Name: "Investment", Type: state.TypeIncome, IconRes: "investment"},
	{Name: "Other Income", Type: state.TypeIncome, IconRes: "other_income"},
}

var defaultAccounts = []string{"Cash", "Bank Card", "WeChat", "Alipay"}

// InitializeDefaultData seeds a default book, the standard categories and
// the standard accounts. Each group is only inserted when its table is
// empty, so calling it on every start is safe.
func (r *ExpenseRepository) InitializeDefaultData(ctx context.Context) error {
	return r.db.RunInTransaction(ctx, func(tx *database.Tx) error {
		books, err := tx.BookDao().GetAllBooks(ctx)
		if err != nil {
			return err
		}
		if len(books) == 0 {
			book := &state.Book{Name: DefaultBookName, IsDefault: true, CreateTime: r.now().UnixMilli()}
			if _, err := tx.BookDao().Insert(ctx, book); err != nil {
				return err
			}
			r.log.Info().Str("name", book.Name).Msg("created default book")
		}

		categories, err := tx.CategoryDao().GetAllCategories(ctx)
		if err != nil {
			return err
		}
		if len(categories) == 0 {
			for _, c := range defaultCategories {
				c := c
				if _, err := tx.CategoryDao().Insert(ctx, &c); err != nil {
					return err
				}
			}
			r.log.Info().Int("count", len(defaultCategories)).Msg("created default categories")
		}

		accounts, err := tx.AccountDao().GetAllAccounts(ctx)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			for _, name := range defaultAccounts {
				a := &state.Account{Name: name, Color: defaultAccountColor(name)}
				if _, err := tx.AccountDao().Insert(ctx, a); err != nil {
					return err
				}
			}
			r.log.Info().Int("count", len(defaultAccounts)).Msg("created default accounts")
		}
		return nil
	})
}
