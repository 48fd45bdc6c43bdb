package state

import (
	"context"
)

// Book is a named ledger.
type Book struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	IsDefault  bool   `db:"is_default" json:"is_default"`
	CreateTime int64  `db:"create_time" json:"create_time"`
}

var booksTable = Table{
	Name: BooksTable,
	DDL: []string{
		`CREATE TABLE IF NOT EXISTS books (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			is_default INTEGER NOT NULL DEFAULT 0,
			create_time INTEGER NOT NULL
		)`,
	},
}

const bookColumns = `id, name, is_default, create_time`

type BookDao struct {
	env Env
}

func NewBookDao(env Env) *BookDao {
	return &BookDao{env: env}
}

func (d *BookDao) Insert(ctx context.Context, b *Book) (int64, error) {
	return insertRecord(ctx, d.env, BooksTable, `
		INSERT INTO books (name, is_default, create_time)
		VALUES (:name, :is_default, :create_time)`, b)
}

func (d *BookDao) Update(ctx context.Context, b *Book) error {
	return updateRecord(ctx, d.env, BooksTable, `
		UPDATE books SET name = :name, is_default = :is_default, create_time = :create_time
		WHERE id = :id`, b)
}

// Delete removes the book. Its categories, accounts, transactions and
// reports go with it.
func (d *BookDao) Delete(ctx context.Context, b *Book) error {
	return deleteById(ctx, d.env, BooksTable, b.ID,
		CategoriesTable, AccountsTable, TransactionsTable, AiReportsTable)
}

func (d *BookDao) GetAllBooks(ctx context.Context) ([]Book, error) {
	return selectAll[Book](ctx, d.env.Ext, `SELECT `+bookColumns+` FROM books ORDER BY id`)
}

func (d *BookDao) GetBookById(ctx context.Context, id int64) (*Book, error) {
	return getOne[Book](ctx, d.env.Ext, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
}

// GetDefaultBook returns the book flagged as default, else the oldest book,
// else nil.
func (d *BookDao) GetDefaultBook(ctx context.Context) (*Book, error) {
	return getOne[Book](ctx, d.env.Ext,
		`SELECT `+bookColumns+` FROM books ORDER BY is_default DESC, id ASC LIMIT 1`)
}

// ObserveBooks is a live query over every book.
func (d *BookDao) ObserveBooks(ctx context.Context) *LiveQuery[[]Book] {
	return Watch(ctx, d.env.Events, d.env.Log, func(ctx context.Context) ([]Book, error) {
		return selectAll[Book](ctx, d.env.Live, `SELECT `+bookColumns+` FROM books ORDER BY id`)
	}, BooksTable)
}
