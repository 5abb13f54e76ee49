// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CreateUser inserts a new account with the user role and returns its id.
// A taken name yields ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, nome, senha string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO usuarios (nome, senha, funcao) VALUES ($1, $2, 'user') RETURNING id`,
		nome, senha).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// UserByName looks an account up by its unique name.
func (s *Store) UserByName(ctx context.Context, nome string) (*User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT id, nome, senha, funcao FROM usuarios WHERE nome = $1`, nome))
}

// UserByID looks an account up by id. This is the per-request existence
// re-check behind stateless tokens: ErrNotFound here means the token's
// subject was deleted after issuance.
func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT id, nome, senha, funcao FROM usuarios WHERE id = $1`, id))
}

func (s *Store) scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Nome, &u.Senha, &u.Funcao); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// UpdatePassword replaces an account's password.
func (s *Store) UpdatePassword(ctx context.Context, id int64, senha string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE usuarios SET senha = $1 WHERE id = $2`, senha, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes an account. The FK cascade deletes the user's
// reviews, so every affected movie's aggregate is re-derived from
// scratch in the same transaction; the incremental form is pointless
// when one statement can touch many movies.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT DISTINCT id_filme FROM reviews WHERE id_usuario = $1`, id)
		if err != nil {
			return fmt.Errorf("collect affected movies: %w", err)
		}
		movieIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return fmt.Errorf("collect affected movies: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		for _, movieID := range movieIDs {
			if err := recomputeRating(ctx, tx, movieID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

// ListUsers returns all accounts ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, nome, senha, funcao FROM usuarios ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) {
		var u User
		err := row.Scan(&u.ID, &u.Nome, &u.Senha, &u.Funcao)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
