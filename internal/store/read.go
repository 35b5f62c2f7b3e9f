package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// GetSlice returns the entries of one row within the slice bounds,
// ordered by column.
func (s *Store) GetSlice(ctx context.Context, q KeySliceQuery) ([]Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	where, args := sliceClause(q.SliceQuery)
	query := `SELECT c, v FROM kcv WHERE k = ?` + where + ` ORDER BY c ASC`
	args = append([]any{q.Key}, args...)
	if q.HasLimit() {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query slice: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Column, &e.Value); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slice: %w", err)
	}
	return entries, nil
}

// GetSliceMulti answers the same slice for many rows, one statement per
// batch of maxKeysPerQuery keys. The per-row limit is applied with a
// window function.
func (s *Store) GetSliceMulti(ctx context.Context, keys [][]byte, q SliceQuery) (map[string][]Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	result := make(map[string][]Entry, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	for _, k := range keys {
		result[string(k)] = []Entry{}
	}
	for start := 0; start < len(keys); start += maxKeysPerQuery {
		end := min(start+maxKeysPerQuery, len(keys))
		if err := s.getSliceChunk(ctx, keys[start:end], q, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// maxKeysPerQuery keeps the bound parameters of one multi-key statement
// under SQLite's default host parameter limit of 999, leaving room for
// the slice bounds and limit.
const maxKeysPerQuery = 500

// getSliceChunk answers q for keys in one statement, appending into result.
func (s *Store) getSliceChunk(ctx context.Context, keys [][]byte, q SliceQuery, result map[string][]Entry) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, 0, len(keys)+3)
	for _, k := range keys {
		args = append(args, k)
	}
	where, boundArgs := sliceClause(q)
	args = append(args, boundArgs...)

	inner := `SELECT k, c, v, ROW_NUMBER() OVER (PARTITION BY k ORDER BY c ASC) AS rn
		FROM kcv WHERE k IN (` + placeholders + `)` + where
	query := `SELECT k, c, v FROM (` + inner + `)`
	if q.HasLimit() {
		query += ` WHERE rn <= ?`
		args = append(args, q.Limit)
	}
	query += ` ORDER BY k ASC, c ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query multi slice: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key []byte
			e   Entry
		)
		if err := rows.Scan(&key, &e.Column, &e.Value); err != nil {
			return fmt.Errorf("scan entry: %w", err)
		}
		result[string(key)] = append(result[string(key)], e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate multi slice: %w", err)
	}
	return nil
}

// sliceClause renders the column bounds of q. An empty start imposes no
// lower bound.
func sliceClause(q SliceQuery) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	if len(q.Start) > 0 {
		sb.WriteString(` AND c >= ?`)
		args = append(args, q.Start)
	}
	if q.End != nil {
		sb.WriteString(` AND c < ?`)
		args = append(args, q.End)
	}
	return sb.String(), args
}

// countRows returns the number of stored columns. Used for testing.
func (s *Store) countRows(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kcv`).Scan(&n); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}
