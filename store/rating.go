// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// The rating aggregate (nota, qtd_avaliacoes) is maintained two ways:
//
//   - applyRatingDelta: O(1) arithmetic against the row-locked movie,
//     used by the interactive add/update/delete review paths.
//   - recomputeRating: full AVG/COUNT re-derivation, used by
//     reconciliation paths where one operation touches many movies
//     (user cascade delete) and by tests cross-checking the delta form.
//
// Both run inside the caller's transaction so a review write and its
// aggregate update commit or roll back together.

// lockMovieRating reads the current aggregate under FOR UPDATE. Two
// interleaved rating updates for the same movie serialize on this lock;
// without it the read-then-write would silently drop one of them.
func lockMovieRating(ctx context.Context, tx pgx.Tx, movieID int64) (nota float64, count int64, err error) {
	err = tx.QueryRow(ctx,
		`SELECT nota, qtd_avaliacoes FROM filmes WHERE id = $1 FOR UPDATE`,
		movieID).Scan(&nota, &count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrMovieMissing
		}
		return 0, 0, fmt.Errorf("lock movie %d rating: %w", movieID, err)
	}
	return nota, count, nil
}

// applyRatingDelta folds a score change into the locked aggregate.
// deltaSum is the signed score contribution (+s on add, -s on remove,
// sNew-sOld on update); deltaCount is +1, -1 or 0 respectively.
func applyRatingDelta(ctx context.Context, tx pgx.Tx, movieID int64, deltaSum float64, deltaCount int64) error {
	nota, count, err := lockMovieRating(ctx, tx, movieID)
	if err != nil {
		return err
	}

	sum := nota*float64(count) + deltaSum
	count += deltaCount
	if count < 0 {
		count = 0
	}
	avg := 0.0
	if count > 0 {
		avg = sum / float64(count)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE filmes SET nota = $1, qtd_avaliacoes = $2 WHERE id = $3`,
		avg, count, movieID); err != nil {
		return fmt.Errorf("apply rating delta for movie %d: %w", movieID, err)
	}
	return nil
}

// recomputeRating re-derives the aggregate from the review set.
func recomputeRating(ctx context.Context, tx pgx.Tx, movieID int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE filmes SET
			nota = COALESCE((SELECT AVG(nota::float8) FROM reviews WHERE id_filme = $1), 0),
			qtd_avaliacoes = (SELECT COUNT(*) FROM reviews WHERE id_filme = $1)
		 WHERE id = $1`, movieID)
	if err != nil {
		return fmt.Errorf("recompute rating for movie %d: %w", movieID, err)
	}
	return nil
}

// RecomputeRating runs the full re-derivation in its own transaction.
// Exposed for reconciliation and for tests comparing it against the
// incremental path.
func (s *Store) RecomputeRating(ctx context.Context, movieID int64) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return recomputeRating(ctx, tx, movieID)
	})
}
