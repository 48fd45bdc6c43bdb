package state

import (
	"context"
	"fmt"
)

// Transaction is one monetary event. Amount is in minor units and
// RecordTime in Unix milliseconds.
type Transaction struct {
	ID         int64           `db:"id" json:"id"`
	BookID     int64           `db:"book_id" json:"book_id"`
	CategoryID *int64          `db:"category_id" json:"category_id,omitempty"`
	AccountID  *int64          `db:"account_id" json:"account_id,omitempty"`
	Amount     int64           `db:"amount" json:"amount"`
	Type       TransactionType `db:"type" json:"type"`
	RecordTime int64           `db:"record_time" json:"record_time"`
	Remark     string          `db:"remark" json:"remark"`
}

var transactionsTable = Table{
	Name: TransactionsTable,
	DDL: []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
			category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
			account_id INTEGER REFERENCES accounts(id) ON DELETE SET NULL,
			amount INTEGER NOT NULL,
			type INTEGER NOT NULL CHECK (type IN (0, 1)),
			record_time INTEGER NOT NULL,
			remark TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_record_time ON transactions(record_time)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_book_time ON transactions(book_id, record_time)`,
	},
}

const transactionColumns = `id, book_id, category_id, account_id, amount, type, record_time, remark`

// Newest first; the id breaks ties between equal timestamps.
const transactionOrder = ` ORDER BY record_time DESC, id DESC`

const insertTransactionSql = `
INSERT INTO transactions (book_id, category_id, account_id, amount, type, record_time, remark)
VALUES (:book_id, :category_id, :account_id, :amount, :type, :record_time, :remark)
`

const updateTransactionSql = `
UPDATE transactions
SET book_id = :book_id, category_id = :category_id, account_id = :account_id,
	amount = :amount, type = :type, record_time = :record_time, remark = :remark
WHERE id = :id
`

const sumTransactionsSql = `
SELECT COALESCE(SUM(amount), 0) FROM transactions
WHERE type = $1 AND record_time BETWEEN $2 AND $3
`

type TransactionDao struct {
	env Env
}

func NewTransactionDao(env Env) *TransactionDao {
	return &TransactionDao{env: env}
}

// Insert stores a new transaction and returns its generated id. The ID field
// of the argument is ignored.
func (d *TransactionDao) Insert(ctx context.Context, t *Transaction) (int64, error) {
	return insertRecord(ctx, d.env, TransactionsTable, insertTransactionSql, t)
}

// Update replaces the row with the same id. Missing rows are ignored.
func (d *TransactionDao) Update(ctx context.Context, t *Transaction) error {
	return updateRecord(ctx, d.env, TransactionsTable, updateTransactionSql, t)
}

// Delete removes the row with the same id. Missing rows are ignored.
func (d *TransactionDao) Delete(ctx context.Context, t *Transaction) error {
	return deleteById(ctx, d.env, TransactionsTable, t.ID)
}

func (d *TransactionDao) GetTransactionById(ctx context.Context, id int64) (*Transaction, error) {
	return getOne[Transaction](ctx, d.env.Ext,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
}

// GetAllTransactions is a live query over every transaction, newest first.
func (d *TransactionDao) GetAllTransactions(ctx context.Context) *LiveQuery[[]Transaction] {
	return Watch(ctx, d.env.Events, d.env.Log, func(ctx context.Context) ([]Transaction, error) {
		return selectAll[Transaction](ctx, d.env.Live,
			`SELECT `+transactionColumns+` FROM transactions`+transactionOrder)
	}, TransactionsTable)
}

func (d *TransactionDao) GetTransactionsByBook(ctx context.Context, bookID int64) ([]Transaction, error) {
	return selectAll[Transaction](ctx, d.env.Ext,
		`SELECT `+transactionColumns+` FROM transactions WHERE book_id = $1`+transactionOrder, bookID)
}

func (d *TransactionDao) GetTransactionsByCategory(ctx context.Context, categoryID int64) ([]Transaction, error) {
	return selectAll[Transaction](ctx, d.env.Ext,
		`SELECT `+transactionColumns+` FROM transactions WHERE category_id = $1`+transactionOrder, categoryID)
}

// GetTotalExpense sums expense amounts with record_time in [start, end]. It
// returns zero when nothing matches.
func (d *TransactionDao) GetTotalExpense(ctx context.Context, start, end int64) (int64, error) {
	total, err := getSum(ctx, d.env.Ext, sumTransactionsSql, TypeExpense, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to sum expenses: %w", err)
	}
	return total, nil
}

// GetTotalIncome sums income amounts with record_time in [start, end]. It
// returns zero when nothing matches.
func (d *TransactionDao) GetTotalIncome(ctx context.Context, start, end int64) (int64, error) {
	total, err := getSum(ctx, d.env.Ext, sumTransactionsSql, TypeIncome, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to sum income: %w", err)
	}
	return total, nil
}

func (d *TransactionDao) GetTransactionsByPeriod(ctx context.Context, start, end int64) ([]Transaction, error) {
	return selectAll[Transaction](ctx, d.env.Ext,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE record_time BETWEEN $1 AND $2`+transactionOrder, start, end)
}

func (d *TransactionDao) GetTransactionsByPeriodAndBook(ctx context.Context, start, end, bookID int64) ([]Transaction, error) {
	return selectAll[Transaction](ctx, d.env.Ext,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE book_id = $1 AND record_time BETWEEN $2 AND $3`+transactionOrder, bookID, start, end)
}

// GetTransactionsBetween is the live variant of GetTransactionsByPeriod.
func (d *TransactionDao) GetTransactionsBetween(ctx context.Context, start, end int64) *LiveQuery[[]Transaction] {
	return Watch(ctx, d.env.Events, d.env.Log, func(ctx context.Context) ([]Transaction, error) {
		return selectAll[Transaction](ctx, d.env.Live,
			`SELECT `+transactionColumns+` FROM transactions
			WHERE record_time BETWEEN $1 AND $2`+transactionOrder, start, end)
	}, TransactionsTable)
}
