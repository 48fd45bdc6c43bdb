package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tomyedwab/smartexpense/state"
)

// UncategorizedID keys expenses without a category in category statistics.
const UncategorizedID int64 = 0

type TodayStats struct {
	Date    time.Time `json:"date"`
	Expense int64     `json:"expense"`
	Income  int64     `json:"income"`
	Balance int64     `json:"balance"`
}

type MonthlyStats struct {
	Year    int   `json:"year"`
	Month   int   `json:"month"`
	Expense int64 `json:"expense"`
	Income  int64 `json:"income"`
	Balance int64 `json:"balance"`
	// Expense totals by category id
	CategoryStats map[int64]int64 `json:"category_stats"`
}

type AccountKind int

const (
	AccountAsset AccountKind = iota
	AccountLiability
)

func (k AccountKind) String() string {
	if k == AccountLiability {
		return "liability"
	}
	return "asset"
}

// AccountItem is an account prepared for display.
type AccountItem struct {
	ID       int64           `json:"id"`
	Kind     AccountKind     `json:"kind"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Color    int64           `json:"color"`
}

type AssetOverview struct {
	TotalAssets int64 `json:"total_assets"`
	// Sum of negative balances as a positive number
	TotalLiabilities int64         `json:"total_liabilities"`
	NetAssets        int64         `json:"net_assets"`
	Accounts         []AccountItem `json:"accounts"`
}

// -- Calendar ranges --

func (r *ExpenseRepository) timeOf(ms int64) time.Time {
	return time.UnixMilli(ms).In(r.loc)
}

// DayRange returns the first and last millisecond of the local day holding t.
func (r *ExpenseRepository) DayRange(t time.Time) (int64, int64) {
	t = t.In(r.loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, r.loc)
	return start.UnixMilli(), start.AddDate(0, 0, 1).UnixMilli() - 1
}

// MonthRange returns the first and last millisecond of a local calendar
// month.
func (r *ExpenseRepository) MonthRange(year, month int) (int64, int64) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, r.loc)
	return start.UnixMilli(), start.AddDate(0, 1, 0).UnixMilli() - 1
}

// YearRange returns the first and last millisecond of a local calendar year.
func (r *ExpenseRepository) YearRange(year int) (int64, int64) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, r.loc)
	return start.UnixMilli(), start.AddDate(1, 0, 0).UnixMilli() - 1
}

// -- Stats --

// GetTodayStats totals the local day holding now.
func (r *ExpenseRepository) GetTodayStats(ctx context.Context, now time.Time) (*TodayStats, error) {
	start, end := r.DayRange(now)
	stats := &TodayStats{Date: r.timeOf(start)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.Expense, err = r.GetTotalExpense(gctx, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Income, err = r.GetTotalIncome(gctx, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to get today's stats: %w", err)
	}
	stats.Balance = stats.Income - stats.Expense
	return stats, nil
}

// GetMonthlyStats totals a local calendar month across all books.
func (r *ExpenseRepository) GetMonthlyStats(ctx context.Context, year, month int) (*MonthlyStats, error) {
	start, end := r.MonthRange(year, month)
	stats := &MonthlyStats{Year: year, Month: month}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.Expense, err = r.GetTotalExpense(gctx, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Income, err = r.GetTotalIncome(gctx, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		stats.CategoryStats, err = r.GetCategoryStatistics(gctx, start, end, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to get stats for %04d-%02d: %w", year, month, err)
	}
	stats.Balance = stats.Income - stats.Expense
	return stats, nil
}

// GetCategoryStatistics sums expenses in [start, end] by category id,
// optionally limited to one book.
func (r *ExpenseRepository) GetCategoryStatistics(ctx context.Context, start, end int64, bookID *int64) (map[int64]int64, error) {
	txs, err := r.GetTransactionsByPeriod(ctx, start, end, bookID)
	if err != nil {
		return nil, err
	}
	return expensesByCategory(txs), nil
}

// GetTransactionsByPeriod lists transactions in [start, end], newest first,
// optionally limited to one book.
func (r *ExpenseRepository) GetTransactionsByPeriod(ctx context.Context, start, end int64, bookID *int64) ([]state.Transaction, error) {
	if bookID != nil {
		return r.db.TransactionDao().GetTransactionsByPeriodAndBook(ctx, start, end, *bookID)
	}
	return r.db.TransactionDao().GetTransactionsByPeriod(ctx, start, end)
}

// GetTransactionsByDate lists the transactions of one local day given as
// YYYY-MM-DD.
func (r *ExpenseRepository) GetTransactionsByDate(ctx context.Context, date string, bookID *int64) ([]state.Transaction, error) {
	day, err := time.ParseInLocation(time.DateOnly, date, r.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	start, end := r.DayRange(day)
	return r.GetTransactionsByPeriod(ctx, start, end, bookID)
}

// GetAssetOverview splits accounts into assets (balance >= 0) and
// liabilities.
func (r *ExpenseRepository) GetAssetOverview(ctx context.Context) (*AssetOverview, error) {
	accounts, err := r.GetAllAccounts(ctx)
	if err != nil {
		return nil, err
	}
	overview := &AssetOverview{Accounts: make([]AccountItem, 0, len(accounts))}
	for _, a := range accounts {
		if a.Balance >= 0 {
			overview.TotalAssets += a.Balance
		} else {
			overview.TotalLiabilities -= a.Balance
		}
		overview.Accounts = append(overview.Accounts, toAccountItem(a))
	}
	overview.NetAssets = overview.TotalAssets - overview.TotalLiabilities
	return overview, nil
}

// GetCategoryExpenses is GetCategoryStatistics with the categories attached,
// largest total first.
func (r *ExpenseRepository) GetCategoryExpenses(ctx context.Context, start, end int64, bookID *int64) ([]CategoryExpense, error) {
	totals, err := r.GetCategoryStatistics(ctx, start, end, bookID)
	if err != nil {
		return nil, err
	}
	categories, err := r.GetAllCategories(ctx)
	if err != nil {
		return nil, err
	}
	return joinCategories(totals, categories), nil
}

func expensesByCategory(txs []state.Transaction) map[int64]int64 {
	totals := make(map[int64]int64)
	for _, t := range txs {
		if t.Type != state.TypeExpense {
			continue
		}
		id := UncategorizedID
		if t.CategoryID != nil {
			id = *t.CategoryID
		}
		totals[id] += t.Amount
	}
	return totals
}

// -- Account display --

type accountStyle struct {
	keywords []string
	category string
	color    int64
}

// Matched in order against lower-cased account names.
var accountStyles = []accountStyle{
	{[]string{"cash"}, "Cash", 0xFFFF9800},
	{[]string{"bank", "savings", "debit"}, "Debit Card", 0xFF2196F3},
	{[]string{"wechat"}, "WeChat", 0xFF4CAF50},
	{[]string{"alipay"}, "Alipay", 0xFF2196F3},
	{[]string{"credit"}, "Credit Card", 0xFFF44336},
	{[]string{"loan"}, "Loan", 0xFFF44336},
}

var otherAccountStyle = accountStyle{category: "Other", color: 0xFF9C27B0}

func styleFor(name string) accountStyle {
	lower := strings.ToLower(name)
	for _, s := range accountStyles {
		for _, kw := range s.keywords {
			if strings.Contains(lower, kw) {
				return s
			}
		}
	}
	return otherAccountStyle
}

func defaultAccountColor(name string) int64 {
	return styleFor(name).color
}

func toAccountItem(a state.Account) AccountItem {
	style := styleFor(a.Name)
	kind := AccountAsset
	if a.Balance < 0 {
		kind = AccountLiability
	}
	color := a.Color
	if color == 0 {
		color = style.color
	}
	return AccountItem{
		ID:       a.ID,
		Kind:     kind,
		Name:     a.Name,
		Amount:   ToMajor(a.Balance),
		Category: style.category,
		Color:    color,
	}
}

// CategoryExpense is one category's expense total.
type CategoryExpense struct {
	Category state.Category `json:"category"`
	Amount   int64          `json:"amount"`
}

// UnknownCategoryName labels expenses whose category no longer exists.
const UnknownCategoryName = "Unknown"

// joinCategories attaches categories to per-category totals, largest total
// first.
func joinCategories(totals map[int64]int64, categories []state.Category) []CategoryExpense {
	byID := make(map[int64]state.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	out := make([]CategoryExpense, 0, len(totals))
	for id, amount := range totals {
		c, ok := byID[id]
		if !ok {
			c = state.Category{ID: id, Name: UnknownCategoryName, Type: state.TypeExpense}
		}
		out = append(out, CategoryExpense{Category: c, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category.ID < out[j].Category.ID
	})
	return out
}
