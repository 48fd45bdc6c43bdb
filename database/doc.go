package database

// Package database owns the expense database file: the schema registry and
// its version bookkeeping, the destructive-rebuild fallback, the process-wide
// handle and engine transactions. Record types and their DAOs live in the
// state package; change tracking for live queries lives in database/events.
