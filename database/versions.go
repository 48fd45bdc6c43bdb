package database

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

const globalSchema = `
CREATE TABLE IF NOT EXISTS _versions (
	type TEXT PRIMARY KEY,
	version INTEGER,
	updated TIMESTAMP
)
`

const updateVersionSql = `
INSERT INTO _versions (type, version, updated)
VALUES ($1, $2, datetime())
ON CONFLICT (type)
DO UPDATE SET version = $2, updated = datetime();
`

const getVersionSql = `
SELECT version FROM _versions WHERE type = $1;
`

// The _versions row holding the layout version of the expense tables.
const schemaVersionType = "schema"

// storedVersion returns the recorded version for the given type, or false
// when none has been recorded yet.
func storedVersion(tx *sqlx.Tx, versionType string) (int, bool, error) {
	var version int
	err := tx.Get(&version, getVersionSql, versionType)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return version, true, nil
}

func setVersion(tx *sqlx.Tx, versionType string, version int) error {
	_, err := tx.Exec(updateVersionSql, versionType, version)
	return err
}
