package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomyedwab/smartexpense/repository"
	"github.com/tomyedwab/smartexpense/state"
)

// Summary is the data a report is written from.
type Summary struct {
	Title      string
	ReportType string
	Start      time.Time
	End        time.Time

	Expense          int64
	Income           int64
	Balance          int64
	TransactionCount int
	Categories       []repository.CategoryExpense
}

// Generator turns a summary into report text.
type Generator interface {
	// Model names what wrote the report; stored with it.
	Model() string
	Generate(ctx context.Context, s *Summary) (string, error)
}

type Service struct {
	repo *repository.ExpenseRepository
	gen  Generator
	log  zerolog.Logger
}

func NewService(repo *repository.ExpenseRepository, gen Generator, log zerolog.Logger) *Service {
	return &Service{repo: repo, gen: gen, log: log.With().Str("component", "reports").Logger()}
}

// Monthly writes and stores the report for one local calendar month.
func (s *Service) Monthly(ctx context.Context, bookID *int64, year, month int) (*state.AiReport, error) {
	start, end := s.repo.MonthRange(year, month)
	title := fmt.Sprintf("Monthly report %04d-%02d", year, month)
	return s.Generate(ctx, bookID, state.ReportTypeMonthly, title, start, end)
}

// Yearly writes and stores the report for one local calendar year.
func (s *Service) Yearly(ctx context.Context, bookID *int64, year int) (*state.AiReport, error) {
	start, end := s.repo.YearRange(year)
	title := fmt.Sprintf("Yearly report %04d", year)
	return s.Generate(ctx, bookID, state.ReportTypeYearly, title, start, end)
}

// Generate summarises [start, end], asks the generator for the text and
// stores the result.
func (s *Service) Generate(ctx context.Context, bookID *int64, reportType, title string, start, end int64) (*state.AiReport, error) {
	summary, err := s.Summarize(ctx, bookID, start, end)
	if err != nil {
		return nil, err
	}
	summary.Title = title
	summary.ReportType = reportType

	started := time.Now()
	content, err := s.gen.Generate(ctx, summary)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}
	s.log.Info().
		Str("model", s.gen.Model()).
		Str("type", reportType).
		Dur("took", time.Since(started)).
		Msg("generated report")

	report := &state.AiReport{
		BookID:     bookID,
		ReportType: reportType,
		StartTime:  start,
		EndTime:    end,
		Title:      title,
		Content:    content,
		Model:      s.gen.Model(),
	}
	id, err := s.repo.InsertReport(ctx, report)
	if err != nil {
		return nil, err
	}
	report.ID = id
	return report, nil
}

// Summarize totals [start, end], optionally for one book.
func (s *Service) Summarize(ctx context.Context, bookID *int64, start, end int64) (*Summary, error) {
	txs, err := s.repo.GetTransactionsByPeriod(ctx, start, end, bookID)
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.GetCategoryExpenses(ctx, start, end, bookID)
	if err != nil {
		return nil, err
	}

	loc := s.repo.Location()
	summary := &Summary{
		Start:            time.UnixMilli(start).In(loc),
		End:              time.UnixMilli(end).In(loc),
		TransactionCount: len(txs),
		Categories:       categories,
	}
	for _, t := range txs {
		switch t.Type {
		case state.TypeExpense:
			summary.Expense += t.Amount
		case state.TypeIncome:
			summary.Income += t.Amount
		}
	}
	summary.Balance = summary.Income - summary.Expense
	return summary, nil
}
