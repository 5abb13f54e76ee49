// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CreateReview inserts a review and folds its score into the movie's
// aggregate, all in one transaction. The movie row is locked before the
// insert, so the missing-movie case surfaces as ErrMovieMissing rather
// than an FK violation, and concurrent rating updates serialize.
// A second review by the same user for the same movie yields ErrDuplicate.
func (s *Store) CreateReview(ctx context.Context, r *Review) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, _, err := lockMovieRating(ctx, tx, r.IDFilme); err != nil {
			return err
		}

		r.Data = s.now().Format(dateLayout)
		r.Editado = false
		err := tx.QueryRow(ctx,
			`INSERT INTO reviews (id_filme, id_usuario, nome_usuario, nota, titulo, descricao, data)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			r.IDFilme, r.IDUsuario, r.NomeUsuario, r.Nota, r.Titulo, r.Descricao, r.Data).
			Scan(&r.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			if isForeignKeyViolation(err) {
				return ErrMovieMissing
			}
			return fmt.Errorf("insert review: %w", err)
		}

		return applyRatingDelta(ctx, tx, r.IDFilme, float64(r.Nota), 1)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrMovieMissing) {
			return err
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// UpdateReview replaces the score/title/body of the caller's own review,
// refreshes its date and marks it edited. The aggregate moves by the
// score difference only when the score actually changed.
func (s *Store) UpdateReview(ctx context.Context, reviewID, userID int64, nota int, titulo, descricao string) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var movieID int64
		var oldNota int
		err := tx.QueryRow(ctx,
			`SELECT id_filme, nota FROM reviews WHERE id = $1 AND id_usuario = $2 FOR UPDATE`,
			reviewID, userID).Scan(&movieID, &oldNota)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("load review for update: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE reviews SET nota = $1, titulo = $2, descricao = $3, data = $4, editado = TRUE
			 WHERE id = $5`,
			nota, titulo, descricao, s.now().Format(dateLayout), reviewID)
		if err != nil {
			return fmt.Errorf("update review: %w", err)
		}

		if nota == oldNota {
			return nil
		}
		return applyRatingDelta(ctx, tx, movieID, float64(nota-oldNota), 0)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update review %d: %w", reviewID, err)
	}
	return nil
}

// DeleteReview removes the caller's own review and subtracts its score
// from the aggregate.
func (s *Store) DeleteReview(ctx context.Context, reviewID, userID int64) error {
	return s.deleteReview(ctx, reviewID, &userID)
}

// DeleteReviewAsAdmin removes any review regardless of owner.
func (s *Store) DeleteReviewAsAdmin(ctx context.Context, reviewID int64) error {
	return s.deleteReview(ctx, reviewID, nil)
}

func (s *Store) deleteReview(ctx context.Context, reviewID int64, userID *int64) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var movieID int64
		var nota int
		var err error
		if userID != nil {
			err = tx.QueryRow(ctx,
				`SELECT id_filme, nota FROM reviews WHERE id = $1 AND id_usuario = $2 FOR UPDATE`,
				reviewID, *userID).Scan(&movieID, &nota)
		} else {
			err = tx.QueryRow(ctx,
				`SELECT id_filme, nota FROM reviews WHERE id = $1 FOR UPDATE`,
				reviewID).Scan(&movieID, &nota)
		}
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("load review for delete: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID); err != nil {
			return fmt.Errorf("delete review: %w", err)
		}

		return applyRatingDelta(ctx, tx, movieID, -float64(nota), -1)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete review %d: %w", reviewID, err)
	}
	return nil
}

// ReviewsByMovie lists a movie's reviews ordered by id.
func (s *Store) ReviewsByMovie(ctx context.Context, movieID int64) ([]Review, error) {
	return s.listReviews(ctx,
		`SELECT id, id_filme, id_usuario, nome_usuario, nota, titulo, descricao, data, editado
		 FROM reviews WHERE id_filme = $1 ORDER BY id`, movieID)
}

// ReviewsByUser lists one user's reviews ordered by id.
func (s *Store) ReviewsByUser(ctx context.Context, userID int64) ([]Review, error) {
	return s.listReviews(ctx,
		`SELECT id, id_filme, id_usuario, nome_usuario, nota, titulo, descricao, data, editado
		 FROM reviews WHERE id_usuario = $1 ORDER BY id`, userID)
}

func (s *Store) listReviews(ctx context.Context, sql string, arg any) ([]Review, error) {
	rows, err := s.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	reviews, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Review, error) {
		var r Review
		err := row.Scan(&r.ID, &r.IDFilme, &r.IDUsuario, &r.NomeUsuario,
			&r.Nota, &r.Titulo, &r.Descricao, &r.Data, &r.Editado)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}
