package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the persistence layer handed to services. It embeds the plain
// Repository and upgrades multi-statement operations to transactions.
type Store struct {
	*Repository
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Repository: NewRepository(pool), pool: pool}
}

// RunInTx runs fn against a Repository bound to a single transaction,
// committing on success and rolling back on any error.
func (s *Store) RunInTx(ctx context.Context, fn func(r *Repository) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(s.Repository.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ReplaceAssignments swaps a project's wallet assignments atomically so a
// failed insert never leaves the funding plan half-applied.
func (s *Store) ReplaceAssignments(ctx context.Context, projectID uuid.UUID, walletIDs []uuid.UUID, amountLamports int64) error {
	return s.RunInTx(ctx, func(r *Repository) error {
		return r.ReplaceAssignments(ctx, projectID, walletIDs, amountLamports)
	})
}
