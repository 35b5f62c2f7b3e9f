package store

import (
	"context"
	"fmt"
)

// Mutate applies all mutations in one transaction. Additions overwrite
// existing columns; deleting a missing column is not an error.
func (s *Store) Mutate(ctx context.Context, mutations ...Mutation) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mutate: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, m := range mutations {
		for _, col := range m.Deletions {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kcv WHERE k = ? AND c = ?`, m.Key, col); err != nil {
				return fmt.Errorf("mutate: delete: %w", err)
			}
		}
		for _, e := range m.Additions {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO kcv (k, c, v) VALUES (?, ?, ?)
				ON CONFLICT(k, c) DO UPDATE SET v = excluded.v
			`, m.Key, e.Column, e.Value)
			if err != nil {
				return fmt.Errorf("mutate: insert: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mutate: commit: %w", err)
	}
	return nil
}
