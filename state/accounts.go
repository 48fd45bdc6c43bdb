package state

import (
	"context"
)

// Account is a money source or sink such as cash or a card. Balance is in
// minor units and goes negative for liabilities.
type Account struct {
	ID      int64  `db:"id" json:"id"`
	BookID  *int64 `db:"book_id" json:"book_id,omitempty"`
	Name    string `db:"name" json:"name"`
	Balance int64  `db:"balance" json:"balance"`
	Color   int64  `db:"color" json:"color"`
}

var accountsTable = Table{
	Name: AccountsTable,
	DDL: []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			book_id INTEGER REFERENCES books(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			balance INTEGER NOT NULL DEFAULT 0,
			color INTEGER NOT NULL DEFAULT 0
		)`,
	},
}

const accountColumns = `id, book_id, name, balance, color`

type AccountDao struct {
	env Env
}

func NewAccountDao(env Env) *AccountDao {
	return &AccountDao{env: env}
}

func (d *AccountDao) Insert(ctx context.Context, a *Account) (int64, error) {
	return insertRecord(ctx, d.env, AccountsTable, `
		INSERT INTO accounts (book_id, name, balance, color)
		VALUES (:book_id, :name, :balance, :color)`, a)
}

func (d *AccountDao) Update(ctx context.Context, a *Account) error {
	return updateRecord(ctx, d.env, AccountsTable, `
		UPDATE accounts SET book_id = :book_id, name = :name, balance = :balance, color = :color
		WHERE id = :id`, a)
}

// Delete removes the account; transactions that used it keep a NULL
// account.
func (d *AccountDao) Delete(ctx context.Context, a *Account) error {
	return deleteById(ctx, d.env, AccountsTable, a.ID, TransactionsTable)
}

func (d *AccountDao) GetAllAccounts(ctx context.Context) ([]Account, error) {
	return selectAll[Account](ctx, d.env.Ext, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
}

func (d *AccountDao) GetAccountById(ctx context.Context, id int64) (*Account, error) {
	return getOne[Account](ctx, d.env.Ext, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// UpdateBalance adds delta to the account balance in place.
func (d *AccountDao) UpdateBalance(ctx context.Context, id int64, delta int64) error {
	result, err := d.env.Ext.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + $1 WHERE id = $2`, delta, id)
	return execWrite(d.env, AccountsTable, "update balance of", result, err)
}

// ObserveAccounts is a live query over every account.
func (d *AccountDao) ObserveAccounts(ctx context.Context) *LiveQuery[[]Account] {
	return Watch(ctx, d.env.Events, d.env.Log, func(ctx context.Context) ([]Account, error) {
		return selectAll[Account](ctx, d.env.Live, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	}, AccountsTable)
}
