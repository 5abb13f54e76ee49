// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Genres are stored comma-joined in a single text column, matching the
// wire representation one split away.
func joinGenres(generos []string) string {
	return strings.Join(generos, ",")
}

func splitGenres(generos string) []string {
	if generos == "" {
		return nil
	}
	return strings.Split(generos, ",")
}

// CreateMovie inserts a movie with a zeroed aggregate and fills in its id.
// A duplicate (titulo, diretor, ano) yields ErrDuplicate.
func (s *Store) CreateMovie(ctx context.Context, m *Movie) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO filmes (titulo, diretor, ano, generos, sinopse)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		m.Titulo, m.Diretor, m.Ano, joinGenres(m.Generos), m.Sinopse).Scan(&m.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create movie: %w", err)
	}
	return nil
}

// UpdateMovie replaces a movie's descriptive fields. The aggregate is
// untouched; only review mutations move it.
func (s *Store) UpdateMovie(ctx context.Context, m *Movie) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE filmes SET titulo = $1, diretor = $2, ano = $3, generos = $4, sinopse = $5
		 WHERE id = $6`,
		m.Titulo, m.Diretor, m.Ano, joinGenres(m.Generos), m.Sinopse, m.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update movie: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMovie removes a movie; its reviews go with it via FK cascade.
func (s *Store) DeleteMovie(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM filmes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MovieByID fetches one movie.
func (s *Store) MovieByID(ctx context.Context, id int64) (*Movie, error) {
	var m Movie
	var generos string
	err := s.pool.QueryRow(ctx,
		`SELECT id, titulo, diretor, ano, generos, sinopse, nota, qtd_avaliacoes
		 FROM filmes WHERE id = $1`, id).
		Scan(&m.ID, &m.Titulo, &m.Diretor, &m.Ano, &generos, &m.Sinopse, &m.Nota, &m.QtdAvaliacoes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("movie by id: %w", err)
	}
	m.Generos = splitGenres(generos)
	return &m, nil
}

// ListMovies returns the whole catalog ordered by id.
func (s *Store) ListMovies(ctx context.Context) ([]Movie, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, titulo, diretor, ano, generos, sinopse, nota, qtd_avaliacoes
		 FROM filmes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	movies, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Movie, error) {
		var m Movie
		var generos string
		err := row.Scan(&m.ID, &m.Titulo, &m.Diretor, &m.Ano, &generos,
			&m.Sinopse, &m.Nota, &m.QtdAvaliacoes)
		m.Generos = splitGenres(generos)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return movies, nil
}
