package state

import (
	"context"
)

// Report types produced by the report generator.
const (
	ReportTypeMonthly = "monthly"
	ReportTypeYearly  = "yearly"
	ReportTypeCustom  = "custom"
)

// AiReport is a generated summary of a book's activity over
// [StartTime, EndTime]. A nil BookID covers every book.
type AiReport struct {
	ID         int64  `db:"id" json:"id"`
	BookID     *int64 `db:"book_id" json:"book_id,omitempty"`
	ReportType string `db:"report_type" json:"report_type"`
	StartTime  int64  `db:"start_time" json:"start_time"`
	EndTime    int64  `db:"end_time" json:"end_time"`
	Title      string `db:"title" json:"title"`
	Content    string `db:"content" json:"content"`
	Model      string `db:"model" json:"model"`
	CreateTime int64  `db:"create_time" json:"create_time"`
}

var aiReportsTable = Table{
	Name: AiReportsTable,
	DDL: []string{
		`CREATE TABLE IF NOT EXISTS ai_reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			book_id INTEGER REFERENCES books(id) ON DELETE CASCADE,
			report_type TEXT NOT NULL,
			start_time INTEGER NOT NULL,
			end_time INTEGER NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			create_time INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ai_reports_book_type ON ai_reports(book_id, report_type, create_time)`,
	},
}

const aiReportColumns = `id, book_id, report_type, start_time, end_time, title, content, model, create_time`

// Newest first; the id breaks ties.
const aiReportOrder = ` ORDER BY create_time DESC, id DESC`

type AiReportDao struct {
	env Env
}

func NewAiReportDao(env Env) *AiReportDao {
	return &AiReportDao{env: env}
}

func (d *AiReportDao) Insert(ctx context.Context, r *AiReport) (int64, error) {
	return insertRecord(ctx, d.env, AiReportsTable, `
		INSERT INTO ai_reports (book_id, report_type, start_time, end_time, title, content, model, create_time)
		VALUES (:book_id, :report_type, :start_time, :end_time, :title, :content, :model, :create_time)`, r)
}

func (d *AiReportDao) Update(ctx context.Context, r *AiReport) error {
	return updateRecord(ctx, d.env, AiReportsTable, `
		UPDATE ai_reports
		SET book_id = :book_id, report_type = :report_type, start_time = :start_time, end_time = :end_time,
			title = :title, content = :content, model = :model, create_time = :create_time
		WHERE id = :id`, r)
}

func (d *AiReportDao) Delete(ctx context.Context, r *AiReport) error {
	return deleteById(ctx, d.env, AiReportsTable, r.ID)
}

func (d *AiReportDao) GetReportById(ctx context.Context, id int64) (*AiReport, error) {
	return getOne[AiReport](ctx, d.env.Ext, `SELECT `+aiReportColumns+` FROM ai_reports WHERE id = $1`, id)
}

func (d *AiReportDao) GetReportsByBook(ctx context.Context, bookID int64) ([]AiReport, error) {
	return selectAll[AiReport](ctx, d.env.Ext,
		`SELECT `+aiReportColumns+` FROM ai_reports WHERE book_id = $1`+aiReportOrder, bookID)
}

// GetLatestReport returns the newest report of the given type for a book, or
// nil.
func (d *AiReportDao) GetLatestReport(ctx context.Context, bookID int64, reportType string) (*AiReport, error) {
	return getOne[AiReport](ctx, d.env.Ext,
		`SELECT `+aiReportColumns+` FROM ai_reports
		WHERE book_id = $1 AND report_type = $2`+aiReportOrder+` LIMIT 1`, bookID, reportType)
}

// GetReportsBetween returns reports whose covered range overlaps [start, end].
func (d *AiReportDao) GetReportsBetween(ctx context.Context, start, end int64) ([]AiReport, error) {
	return selectAll[AiReport](ctx, d.env.Ext,
		`SELECT `+aiReportColumns+` FROM ai_reports
		WHERE end_time >= $1 AND start_time <= $2`+aiReportOrder, start, end)
}

// ObserveReports is a live query over every report, newest first.
func (d *AiReportDao) ObserveReports(ctx context.Context) *LiveQuery[[]AiReport] {
	return Watch(ctx, d.env.Events, d.env.Log, func(ctx context.Context) ([]AiReport, error) {
		return selectAll[AiReport](ctx, d.env.Live, `SELECT `+aiReportColumns+` FROM ai_reports`+aiReportOrder)
	}, AiReportsTable)
}
