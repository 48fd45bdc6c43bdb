package state

import (
	"context"
)

// Category classifies transactions as a kind of expense or income. A nil
// BookID means the category is shared by every book.
type Category struct {
	ID      int64           `db:"id" json:"id"`
	BookID  *int64          `db:"book_id" json:"book_id,omitempty"`
	Name    string          `db:"name" json:"name"`
	Type    TransactionType `db:"type" json:"type"`
	IconRes string          `db:"icon_res" json:"icon_res"`
}

var categoriesTable = Table{
	Name: CategoriesTable,
	DDL: []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			book_id INTEGER REFERENCES books(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			type INTEGER NOT NULL CHECK (type IN (0, 1)),
			icon_res TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_type ON categories(type)`,
	},
}

const categoryColumns = `id, book_id, name, type, icon_res`

type CategoryDao struct {
	env Env
}

func NewCategoryDao(env Env) *CategoryDao {
	return &CategoryDao{env: env}
}

func (d *CategoryDao) Insert(ctx context.Context, c *Category) (int64, error) {
	return insertRecord(ctx, d.env, CategoriesTable, `
		INSERT INTO categories (book_id, name, type, icon_res)
		VALUES (:book_id, :name, :type, :icon_res)`, c)
}

func (d *CategoryDao) Update(ctx context.Context, c *Category) error {
	return updateRecord(ctx, d.env, CategoriesTable, `
		UPDATE categories SET book_id = :book_id, name = :name, type = :type, icon_res = :icon_res
		WHERE id = :id`, c)
}

// Delete removes the category; transactions that used it keep a NULL
// category.
func (d *CategoryDao) Delete(ctx context.Context, c *Category) error {
	return deleteById(ctx, d.env, CategoriesTable, c.ID, TransactionsTable)
}

func (d *CategoryDao) GetAllCategories(ctx context.Context) ([]Category, error) {
	return selectAll[Category](ctx, d.env.Ext, `SELECT `+categoryColumns+` FROM categories ORDER BY id`)
}

func (d *CategoryDao) GetCategoriesByType(ctx context.Context, t TransactionType) ([]Category, error) {
	return selectAll[Category](ctx, d.env.Ext,
		`SELECT `+categoryColumns+` FROM categories WHERE type = $1 ORDER BY id`, t)
}

func (d *CategoryDao) GetCategoryById(ctx context.Context, id int64) (*Category, error) {
	return getOne[Category](ctx, d.env.Ext, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
}

// GetCategoryByName returns the first category with the given name and type.
func (d *CategoryDao) GetCategoryByName(ctx context.Context, name string, t TransactionType) (*Category, error) {
	return getOne[Category](ctx, d.env.Ext,
		`SELECT `+categoryColumns+` FROM categories WHERE name = $1 AND type = $2 ORDER BY id LIMIT 1`, name, t)
}
