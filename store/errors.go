// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors the protocol engine maps onto wire statuses.
var (
	// ErrNotFound means the addressed row does not exist (404).
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate means a uniqueness constraint was violated (409).
	ErrDuplicate = errors.New("store: already exists")

	// ErrMovieMissing means a review referenced a movie that does not
	// exist (404 with the movie-specific message).
	ErrMovieMissing = errors.New("store: movie not found")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23503"
}
