// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// initializeSchemaInTx creates the business tables if needed and seeds
// the admin account. Deleting a user cascades that user's reviews; the
// movie aggregates touched by such a cascade are reconciled explicitly
// by DeleteUser, not by the database.
func (s *Store) initializeSchemaInTx(ctx context.Context, tx pgx.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS usuarios (
			id BIGSERIAL PRIMARY KEY,
			nome TEXT NOT NULL UNIQUE,
			senha TEXT NOT NULL,
			funcao TEXT NOT NULL DEFAULT 'user'
		)`,
		`CREATE TABLE IF NOT EXISTS filmes (
			id BIGSERIAL PRIMARY KEY,
			titulo TEXT NOT NULL,
			diretor TEXT NOT NULL,
			ano TEXT NOT NULL,
			generos TEXT NOT NULL,
			sinopse TEXT NOT NULL DEFAULT '',
			nota DOUBLE PRECISION NOT NULL DEFAULT 0,
			qtd_avaliacoes BIGINT NOT NULL DEFAULT 0,
			UNIQUE (titulo, diretor, ano)
		)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id BIGSERIAL PRIMARY KEY,
			id_filme BIGINT NOT NULL REFERENCES filmes(id) ON DELETE CASCADE,
			id_usuario BIGINT NOT NULL REFERENCES usuarios(id) ON DELETE CASCADE,
			nome_usuario TEXT NOT NULL,
			nota INTEGER NOT NULL CHECK (nota BETWEEN 1 AND 5),
			titulo TEXT NOT NULL DEFAULT '',
			descricao TEXT NOT NULL DEFAULT '',
			data TEXT NOT NULL,
			editado BOOLEAN NOT NULL DEFAULT FALSE,
			UNIQUE (id_filme, id_usuario)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_usuario ON reviews(id_usuario)`,
		`INSERT INTO usuarios (nome, senha, funcao) VALUES ('admin', 'admin', 'admin')
			ON CONFLICT (nome) DO NOTHING`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
