// Package repository talks to the remote relational store. All SQL lives
// here; everything above works with decoded records and typed entities.
package repository

import "context"

// Store is the access surface the sync engine and migration bridge need.
// Table and column names always come from the schema registry, never from
// user input.
type Store interface {
	// SelectAll fetches up to limit rows of a table as column-keyed maps.
	SelectAll(ctx context.Context, table string, limit int) ([]map[string]any, error)
	// UpsertChunk writes one chunk atomically: all rows commit or none.
	// Each row carries its own column set; absent columns stay untouched.
	UpsertChunk(ctx context.Context, table string, rows []map[string]any) error
	// InsertRows plain-inserts rows (no conflict handling); used for child
	// rows that are replaced wholesale rather than updated.
	InsertRows(ctx context.Context, table string, rows []map[string]any) error
	// DeleteRow removes a single row by id.
	DeleteRow(ctx context.Context, table, id string) error
	// DeleteWhere removes every row whose column equals value.
	DeleteWhere(ctx context.Context, table, column string, value any) error
	// SingletonID resolves the id of a single-row table ("" when empty).
	SingletonID(ctx context.Context, table string) (string, error)
	// MigrateFreeText atomically rewrites a free-text value across the given
	// table/column pairs and reports rows touched per table.
	MigrateFreeText(ctx context.Context, targets []MigrationTarget, oldText, newText string) (map[string]int64, error)
	// RewriteValues applies a list of old-to-new value rewrites in one
	// transaction and reports rows touched per table.
	RewriteValues(ctx context.Context, rewrites []ValueRewrite) (map[string]int64, error)
	// MergeGroupRows folds one canonical group into another: child rows move
	// to the target (duplicates dropped first) and the source row is deleted,
	// all in one transaction.
	MergeGroupRows(ctx context.Context, sourceID, targetID string) (MergeCounts, error)
}

// MigrationTarget names one historical free-text column subject to
// rename-with-cascade.
type MigrationTarget struct {
	Table  string
	Column string
}

// ValueRewrite is one old-to-new substitution in a named column.
type ValueRewrite struct {
	Table  string
	Column string
	Old    string
	New    string
}

// MergeCounts reports what a group merge touched.
type MergeCounts struct {
	MembersMoved     int64
	MembersDropped   int64
	LocationsMoved   int64
	LocationsDropped int64
}
