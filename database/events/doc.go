// Package events tracks committed writes to the expense tables. Every write
// bumps a process-wide change counter and wakes the subscribers watching the
// affected tables, which is what drives live queries in the state package.
package events
