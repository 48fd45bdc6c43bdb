package database

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tomyedwab/smartexpense/state"
)

// SchemaVersion is the current on-disk layout version.
const SchemaVersion = 2

// ErrMigrationRequired is returned when the stored schema version differs
// from the registry, no migration path exists and destructive fallback is
// disabled.
var ErrMigrationRequired = errors.New("database schema migration required")

// Migration transforms the schema from one version to another in place.
type Migration struct {
	From        int
	To          int
	Description string
	Up          func(tx *sqlx.Tx) error
}

// Schema is the registry of record types for one schema version.
type Schema struct {
	Version    int
	Tables     []state.Table
	Migrations []Migration
}

// DefaultSchema returns the expense schema. It carries no migrations, so any
// version change rebuilds the database when destructive fallback is on.
func DefaultSchema() *Schema {
	return &Schema{
		Version: SchemaVersion,
		Tables:  state.Tables(),
	}
}

// TableNames lists the registered tables in creation order.
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		names = append(names, t.Name)
	}
	return names
}

// migrationPath returns the chain of migrations leading from one version to
// the other, or false when the chain is incomplete.
func (s *Schema) migrationPath(from, to int) ([]Migration, bool) {
	var path []Migration
	current := from
	seen := map[int]bool{current: true}
	for current != to {
		next, ok := s.findMigration(current)
		if !ok || seen[next.To] {
			return nil, false
		}
		path = append(path, next)
		current = next.To
		seen[current] = true
	}
	return path, true
}

func (s *Schema) findMigration(from int) (Migration, bool) {
	for _, m := range s.Migrations {
		if m.From == from {
			return m, true
		}
	}
	return Migration{}, false
}

func (s *Schema) create(tx *sqlx.Tx) error {
	for _, table := range s.Tables {
		for _, stmt := range table.DDL {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("failed to create table %s: %w", table.Name, err)
			}
		}
	}
	return nil
}

// dropAll removes every user table other than the bookkeeping table:
// unknown leftovers from older versions first, then the registered tables
// children before parents.
func (s *Schema) dropAll(tx *sqlx.Tx) error {
	var existing []string
	err := tx.Select(&existing, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name != '_versions'`)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	registered := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		registered[t.Name] = true
	}

	var order []string
	for _, name := range existing {
		if !registered[name] {
			order = append(order, name)
		}
	}
	for i := len(s.Tables) - 1; i >= 0; i-- {
		order = append(order, s.Tables[i].Name)
	}

	for _, name := range order {
		if _, err := tx.Exec(`DROP TABLE IF EXISTS "` + name + `"`); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", name, err)
		}
	}
	return nil
}
