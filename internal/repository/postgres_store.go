package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// PostgresStore implements Store over database/sql + lib/pq.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// SelectAll fetches up to limit rows and materializes them generically by
// column name, so one implementation serves every collection in the registry.
func (s *PostgresStore) SelectAll(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	q := fmt.Sprintf("SELECT * FROM %s LIMIT $1", table)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}

	out := []map[string]any{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = vals[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UpsertChunk writes one chunk inside a single transaction. Rows that carry
// an id use INSERT ... ON CONFLICT (id) DO UPDATE so re-sending is harmless;
// rows without one (singleton bootstrap) insert plainly.
func (s *PostgresStore) UpsertChunk(ctx context.Context, table string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx on %s: %w", table, err)
	}
	for _, row := range rows {
		q, args := buildUpsert(table, row)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert into %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert on %s: %w", table, err)
	}
	return nil
}

// InsertRows inserts rows without conflict handling, one transaction.
func (s *PostgresStore) InsertRows(ctx context.Context, table string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx on %s: %w", table, err)
	}
	for _, row := range rows {
		q, args := buildInsert(table, row, false)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert on %s: %w", table, err)
	}
	return nil
}

func (s *PostgresStore) DeleteRow(ctx context.Context, table, id string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE id = $1", table)
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

func (s *PostgresStore) DeleteWhere(ctx context.Context, table, column string, value any) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, column)
	if _, err := s.db.ExecContext(ctx, q, value); err != nil {
		return fmt.Errorf("delete from %s by %s: %w", table, column, err)
	}
	return nil
}

func (s *PostgresStore) SingletonID(ctx context.Context, table string) (string, error) {
	q := fmt.Sprintf("SELECT id FROM %s LIMIT 1", table)
	var id string
	err := s.db.QueryRowContext(ctx, q).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("singleton id of %s: %w", table, err)
	}
	return id, nil
}

// MigrateFreeText rewrites oldText to newText across every target column in
// one transaction, so concurrent writers never observe a half-renamed state.
// Running it again after success matches zero rows and is a no-op.
func (s *PostgresStore) MigrateFreeText(ctx context.Context, targets []MigrationTarget, oldText, newText string) (map[string]int64, error) {
	rewrites := make([]ValueRewrite, 0, len(targets))
	for _, t := range targets {
		rewrites = append(rewrites, ValueRewrite{Table: t.Table, Column: t.Column, Old: oldText, New: newText})
	}
	counts, err := s.RewriteValues(ctx, rewrites)
	if err != nil {
		return nil, err
	}
	s.logger.Info("free-text migration applied",
		zap.String("old", oldText),
		zap.String("new", newText),
		zap.Any("rows", counts),
	)
	return counts, nil
}

// RewriteValues applies every rewrite in one transaction, in the given
// order. Identifier cleanups update referencing columns alongside the entity
// ids, so partial application would corrupt references.
func (s *PostgresStore) RewriteValues(ctx context.Context, rewrites []ValueRewrite) (map[string]int64, error) {
	counts := make(map[string]int64, len(rewrites))
	if len(rewrites) == 0 {
		return counts, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rewrite tx: %w", err)
	}
	for _, rw := range rewrites {
		q := fmt.Sprintf("UPDATE %s SET %s = $1 WHERE %s = $2", rw.Table, rw.Column, rw.Column)
		res, err := tx.ExecContext(ctx, q, rw.New, rw.Old)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("rewrite %s.%s: %w", rw.Table, rw.Column, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("rows affected for %s.%s: %w", rw.Table, rw.Column, err)
		}
		counts[rw.Table] += n
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rewrite tx: %w", err)
	}
	return counts, nil
}

// MergeGroupRows folds the source group into the target inside one
// transaction. Child rows that would duplicate an existing target row are
// dropped before the rest move over; the source group row is deleted last.
func (s *PostgresStore) MergeGroupRows(ctx context.Context, sourceID, targetID string) (MergeCounts, error) {
	var counts MergeCounts
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return counts, fmt.Errorf("begin merge tx: %w", err)
	}

	steps := []struct {
		query string
		dest  *int64
	}{
		{
			"DELETE FROM pro_group_members WHERE group_id = $1 AND staff_id IN (SELECT staff_id FROM pro_group_members WHERE group_id = $2)",
			&counts.MembersDropped,
		},
		{
			"DELETE FROM pro_group_locations WHERE group_id = $1 AND sector_id IN (SELECT sector_id FROM pro_group_locations WHERE group_id = $2)",
			&counts.LocationsDropped,
		},
		{
			"UPDATE pro_group_members SET group_id = $2 WHERE group_id = $1",
			&counts.MembersMoved,
		},
		{
			"UPDATE pro_group_locations SET group_id = $2 WHERE group_id = $1",
			&counts.LocationsMoved,
		},
	}
	for _, step := range steps {
		res, err := tx.ExecContext(ctx, step.query, sourceID, targetID)
		if err != nil {
			_ = tx.Rollback()
			return MergeCounts{}, fmt.Errorf("merge group %s into %s: %w", sourceID, targetID, err)
		}
		if *step.dest, err = res.RowsAffected(); err != nil {
			_ = tx.Rollback()
			return MergeCounts{}, fmt.Errorf("rows affected merging group %s: %w", sourceID, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM pro_groups WHERE id = $1", sourceID); err != nil {
		_ = tx.Rollback()
		return MergeCounts{}, fmt.Errorf("delete merged group %s: %w", sourceID, err)
	}

	if err := tx.Commit(); err != nil {
		return MergeCounts{}, fmt.Errorf("commit merge tx: %w", err)
	}
	s.logger.Info("group merge applied",
		zap.String("source_id", sourceID),
		zap.String("target_id", targetID),
		zap.Int64("members_moved", counts.MembersMoved),
		zap.Int64("locations_moved", counts.LocationsMoved),
	)
	return counts, nil
}

// buildUpsert renders one row as INSERT ... ON CONFLICT (id) DO UPDATE.
// Columns are sorted for deterministic statements.
func buildUpsert(table string, row map[string]any) (string, []any) {
	if _, ok := row["id"]; !ok {
		return buildInsert(table, row, false)
	}
	return buildInsert(table, row, true)
}

func buildInsert(table string, row map[string]any, onConflict bool) (string, []any) {
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	args := make([]any, 0, len(cols))
	holders := make([]string, 0, len(cols))
	for i, c := range cols {
		args = append(args, row[c])
		holders = append(holders, fmt.Sprintf("$%d", i+1))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(holders, ", "))

	if onConflict {
		sets := make([]string, 0, len(cols))
		for _, c := range cols {
			if c == "id" {
				continue
			}
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
		if len(sets) == 0 {
			b.WriteString(" ON CONFLICT (id) DO NOTHING")
		} else {
			fmt.Fprintf(&b, " ON CONFLICT (id) DO UPDATE SET %s", strings.Join(sets, ", "))
		}
	}
	return b.String(), args
}
