package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/tomyedwab/smartexpense/database/events"
	"github.com/tomyedwab/smartexpense/state"
)

const driverName = "sqlite3"

type Options struct {
	// Path of the database file
	Path string
	// Schema to open with; DefaultSchema() when nil
	Schema *Schema
	// Drop and recreate every table when the stored version differs and no
	// migration path exists
	FallbackToDestructiveMigration bool
	Logger                         zerolog.Logger
}

// Database owns the SQLite connection, brings the schema to the registered
// version and hands out one DAO per record type.
type Database struct {
	db         *sqlx.DB
	path       string
	schema     *Schema
	eventState *events.EventState
	log        zerolog.Logger

	bookDao        *state.BookDao
	categoryDao    *state.CategoryDao
	accountDao     *state.AccountDao
	transactionDao *state.TransactionDao
	aiReportDao    *state.AiReportDao
	budgetDao      *state.BudgetDao
}

func dataSourceName(path string) string {
	return path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
}

// Open connects to the database file at opts.Path and brings its schema to
// the registered version.
func Open(ctx context.Context, opts Options) (*Database, error) {
	schema := opts.Schema
	if schema == nil {
		schema = DefaultSchema()
	}

	db, err := sqlx.ConnectContext(ctx, driverName, dataSourceName(opts.Path))
	if err != nil {
		return nil, err
	}

	if err := initSchema(ctx, db, schema, opts.FallbackToDestructiveMigration, opts.Logger); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{
		db:         db,
		path:       opts.Path,
		schema:     schema,
		eventState: events.NewEventState(0),
		log:        opts.Logger,
	}
	env := database.env()
	database.bookDao = state.NewBookDao(env)
	database.categoryDao = state.NewCategoryDao(env)
	database.accountDao = state.NewAccountDao(env)
	database.transactionDao = state.NewTransactionDao(env)
	database.aiReportDao = state.NewAiReportDao(env)
	database.budgetDao = state.NewBudgetDao(env)

	opts.Logger.Info().Str("path", opts.Path).Int("schema_version", schema.Version).Msg("opened database")
	return database, nil
}

// initSchema creates, migrates or rebuilds the schema inside one transaction.
func initSchema(ctx context.Context, db *sqlx.DB, schema *Schema, destructive bool, log zerolog.Logger) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(globalSchema); err != nil {
		return fmt.Errorf("failed to create versions table: %w", err)
	}

	current, ok, err := storedVersion(tx, schemaVersionType)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	switch {
	case !ok:
		if err := schema.create(tx); err != nil {
			return err
		}
		log.Info().Int("version", schema.Version).Msg("created schema")

	case current == schema.Version:
		// Up to date

	default:
		path, found := schema.migrationPath(current, schema.Version)
		switch {
		case found:
			for _, m := range path {
				if err := m.Up(tx); err != nil {
					return fmt.Errorf("failed to migrate schema from %d to %d: %w", m.From, m.To, err)
				}
				log.Info().Int("from", m.From).Int("to", m.To).Str("description", m.Description).Msg("migrated schema")
			}
		case destructive:
			log.Warn().Int("from", current).Int("to", schema.Version).
				Msg("no migration path; dropping all tables and recreating the schema")
			if err := schema.dropAll(tx); err != nil {
				return err
			}
			if err := schema.create(tx); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: stored version %d, expected %d", ErrMigrationRequired, current, schema.Version)
		}
	}

	if err := setVersion(tx, schemaVersionType, schema.Version); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// publishSink publishes every change straight away.
type publishSink struct {
	eventState *events.EventState
}

func (s publishSink) TablesChanged(tables ...string) {
	s.eventState.Publish(tables...)
}

func (db *Database) env() state.Env {
	return state.Env{
		Ext:    db.db,
		Live:   db.db,
		Events: db.eventState,
		Sink:   publishSink{eventState: db.eventState},
		Log:    db.log,
	}
}

func (db *Database) BookDao() *state.BookDao {
	return db.bookDao
}

func (db *Database) CategoryDao() *state.CategoryDao {
	return db.categoryDao
}

func (db *Database) AccountDao() *state.AccountDao {
	return db.accountDao
}

func (db *Database) TransactionDao() *state.TransactionDao {
	return db.transactionDao
}

func (db *Database) AiReportDao() *state.AiReportDao {
	return db.aiReportDao
}

func (db *Database) BudgetDao() *state.BudgetDao {
	return db.budgetDao
}

// Events exposes the change tracker that drives live queries.
func (db *Database) Events() *events.EventState {
	return db.eventState
}

func (db *Database) Path() string {
	return db.path
}

func (db *Database) Schema() *Schema {
	return db.schema
}

func (db *Database) GetDB() *sqlx.DB {
	return db.db
}

func (db *Database) Logger() zerolog.Logger {
	return db.log
}

// Close releases the database file. Live queries already running stop
// delivering once their next re-run fails.
func (db *Database) Close() error {
	return db.db.Close()
}
