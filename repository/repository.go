package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomyedwab/smartexpense/database"
	"github.com/tomyedwab/smartexpense/state"
)

// ErrNoSuchRecord is returned when an operation needs a stored row that does
// not exist.
var ErrNoSuchRecord = errors.New("no such record")

// ExpenseRepository is the application-facing view of the database. Writes
// that touch more than one table run in a single engine transaction.
type ExpenseRepository struct {
	db  *database.Database
	loc *time.Location
	log zerolog.Logger

	// now is replaced in tests
	now func() time.Time
}

// New returns a repository over db. Calendar boundaries (days, months) are
// computed in loc; nil means UTC.
func New(db *database.Database, loc *time.Location) *ExpenseRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &ExpenseRepository{
		db:  db,
		loc: loc,
		log: db.Logger().With().Str("component", "repository").Logger(),
		now: time.Now,
	}
}

func (r *ExpenseRepository) Location() *time.Location {
	return r.loc
}

// -- Books --

func (r *ExpenseRepository) GetAllBooks(ctx context.Context) ([]state.Book, error) {
	return r.db.BookDao().GetAllBooks(ctx)
}

func (r *ExpenseRepository) GetDefaultBook(ctx context.Context) (*state.Book, error) {
	return r.db.BookDao().GetDefaultBook(ctx)
}

func (r *ExpenseRepository) InsertBook(ctx context.Context, b *state.Book) (int64, error) {
	if b.CreateTime == 0 {
		b.CreateTime = r.now().UnixMilli()
	}
	return r.db.BookDao().Insert(ctx, b)
}

func (r *ExpenseRepository) UpdateBook(ctx context.Context, b *state.Book) error {
	return r.db.BookDao().Update(ctx, b)
}


// -- Categories --

func (r *ExpenseRepository) GetAllCategories(ctx context.Context) ([]state.Category, error) {
	return r.db.CategoryDao().GetAllCategories(ctx)
}

func (r *ExpenseRepository) GetCategoriesByType(ctx context.Context, t state.TransactionType) ([]state.Category, error) {
	return r.db.CategoryDao().GetCategoriesByType(ctx, t)
}

func (r *ExpenseRepository) GetCategoryById(ctx context.Context, id int64) (*state.Category, error) {
	return r.db.CategoryDao().GetCategoryById(ctx, id)
}

func (r *ExpenseRepository) GetCategoryByName(ctx context.Context, name string, t state.TransactionType) (*state.Category, error) {
	return r.db.CategoryDao().GetCategoryByName(ctx, name, t)
}

func (r *ExpenseRepository) InsertCategory(ctx context.Context, c *state.Category) (int64, error) {
	return r.db.CategoryDao().Insert(ctx, c)
}

func (r *ExpenseRepository) UpdateCategory(ctx context.Context, c *state.Category) error {
	return r.db.CategoryDao().Update(ctx, c)
}


// -- Accounts --

func (r *ExpenseRepository) GetAllAccounts(ctx context.Context) ([]state.Account, error) {
	return r.db.AccountDao().GetAllAccounts(ctx)
}

func (r *ExpenseRepository) GetAccountById(ctx context.Context, id int64) (*state.Account, error) {
	return r.db.AccountDao().GetAccountById(ctx, id)
}

func (r *ExpenseRepository) InsertAccount(ctx context.Context, a *state.Account) (int64, error) {
	return r.db.AccountDao().Insert(ctx, a)
}

func (r *ExpenseRepository) UpdateAccount(ctx context.Context, a *state.Account) error {
	return r.db.AccountDao().Update(ctx, a)
}

func (r *ExpenseRepository) DeleteAccount(ctx context.Context, a *state.Account) error {
	return r.db.AccountDao().Delete(ctx, a)
}

func (r *ExpenseRepository) ObserveAccounts(ctx context.Context) *state.LiveQuery[[]state.Account] {
	return r.db.AccountDao().ObserveAccounts(ctx)
}

// -- Transactions --

// GetAllTransactions returns the current contents of the live transaction
// list, newest first.
func (r *ExpenseRepository) GetAllTransactions(ctx context.Context) ([]state.Transaction, error) {
	q := r.db.TransactionDao().GetAllTransactions(ctx)
	defer q.Close()
	txs, ok := <-q.Updates()
	if !ok {
		if err := q.Err(); err != nil {
			return nil, err
		}
		return nil, ctx.Err()
	}
	return txs, nil
}

func (r *ExpenseRepository) ObserveTransactions(ctx context.Context) *state.LiveQuery[[]state.Transaction] {
	return r.db.TransactionDao().GetAllTransactions(ctx)
}

func (r *ExpenseRepository) GetTransactionById(ctx context.Context, id int64) (*state.Transaction, error) {
	return r.db.TransactionDao().GetTransactionById(ctx, id)
}

func (r *ExpenseRepository) GetTransactionsByBook(ctx context.Context, bookID int64) ([]state.Transaction, error) {
	return r.db.TransactionDao().GetTransactionsByBook(ctx, bookID)
}

func (r *ExpenseRepository) GetTotalExpense(ctx context.Context, start, end int64) (int64, error) {
	return r.db.TransactionDao().GetTotalExpense(ctx, start, end)
}

func (r *ExpenseRepository) GetTotalIncome(ctx context.Context, start, end int64) (int64, error) {
	return r.db.TransactionDao().GetTotalIncome(ctx, start, end)
}

// -- Budgets --

func (r *ExpenseRepository) GetAllBudgets(ctx context.Context) ([]state.Budget, error) {
	return r.db.BudgetDao().GetAllBudgets(ctx)
}

func (r *ExpenseRepository) GetBudgetsByMonth(ctx context.Context, year, month int) ([]state.Budget, error) {
	return r.db.BudgetDao().GetBudgetsByMonth(ctx, year, month)
}

func (r *ExpenseRepository) GetBudgetByCategoryAndMonth(ctx context.Context, category string, year, month int) (*state.Budget, error) {
	return r.db.BudgetDao().GetBudgetByCategoryAndMonth(ctx, category, year, month)
}

func (r *ExpenseRepository) GetTotalBudgetByMonth(ctx context.Context, year, month int) (int64, error) {
	return r.db.BudgetDao().GetTotalBudgetByMonth(ctx, year, month)
}

func (r *ExpenseRepository) GetRemainingBudgetByMonth(ctx context.Context, year, month int) (int64, error) {
	return r.db.BudgetDao().GetRemainingBudgetByMonth(ctx, year, month)
}

func (r *ExpenseRepository) InsertBudget(ctx context.Context, b *state.Budget) (int64, error) {
	r.stamp(b)
	return r.db.BudgetDao().Insert(ctx, b)
}

func (r *ExpenseRepository) UpdateBudget(ctx context.Context, b *state.Budget) error {
	b.UpdateTime = r.now().UnixMilli()
	return r.db.BudgetDao().Update(ctx, b)
}

func (r *ExpenseRepository) DeleteBudget(ctx context.Context, b *state.Budget) error {
	return r.db.BudgetDao().Delete(ctx, b)
}

func (r *ExpenseRepository) ObserveBudgetsByMonth(ctx context.Context, year, month int) *state.LiveQuery[[]state.Budget] {
	return r.db.BudgetDao().ObserveBudgetsByMonth(ctx, year, month)
}

func (r *ExpenseRepository) stamp(b *state.Budget) {
	now := r.now().UnixMilli()
	if b.CreateTime == 0 {
		b.CreateTime = now
	}
	b.UpdateTime = now
}

// -- Reports --

func (r *ExpenseRepository) InsertReport(ctx context.Context, rep *state.AiReport) (int64, error) {
	if rep.CreateTime == 0 {
		rep.CreateTime = r.now().UnixMilli()
	}
	return r.db.AiReportDao().Insert(ctx, rep)
}

func (r *ExpenseRepository) DeleteReport(ctx context.Context, rep *state.AiReport) error {
	return r.db.AiReportDao().Delete(ctx, rep)
}

func (r *ExpenseRepository) GetReportById(ctx context.Context, id int64) (*state.AiReport, error) {
	return r.db.AiReportDao().GetReportById(ctx, id)
}

func (r *ExpenseRepository) GetReportsByBook(ctx context.Context, bookID int64) ([]state.AiReport, error) {
	return r.db.AiReportDao().GetReportsByBook(ctx, bookID)
}

func (r *ExpenseRepository) GetLatestReport(ctx context.Context, bookID int64, reportType string) (*state.AiReport, error) {
	return r.db.AiReportDao().GetLatestReport(ctx, bookID, reportType)
}

func (r *ExpenseRepository) GetReportsBetween(ctx context.Context, start, end int64) ([]state.AiReport, error) {
	return r.db.AiReportDao().GetReportsBetween(ctx, start, end)
}

func (r *ExpenseRepository) ObserveReports(ctx context.Context) *state.LiveQuery[[]state.AiReport] {
	return r.db.AiReportDao().ObserveReports(ctx)
}
