// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/mauricegss/VoteFlix/store"
	"github.com/mauricegss/VoteFlix/wire"
)

func movieToDTO(m *store.Movie) *wire.MovieDTO {
	return &wire.MovieDTO{
		ID:            strconv.FormatInt(m.ID, 10),
		Titulo:        m.Titulo,
		Diretor:       m.Diretor,
		Ano:           m.Ano,
		Genero:        m.Generos,
		Sinopse:       m.Sinopse,
		Nota:          fmt.Sprintf("%.1f", m.Nota),
		QtdAvaliacoes: strconv.FormatInt(m.QtdAvaliacoes, 10),
	}
}

func movieFromDTO(dto *wire.MovieDTO) *store.Movie {
	return &store.Movie{
		Titulo:  dto.Titulo,
		Diretor: dto.Diretor,
		Ano:     dto.Ano,
		Generos: dto.Genero,
		Sinopse: dto.Sinopse,
	}
}

func (e *Engine) handleListMovies(ctx context.Context, req *wire.Request) Result {
	movies, err := e.movies.ListMovies(ctx)
	if err != nil {
		return e.internalError(req.Operacao, err)
	}

	resp := wire.Success(wire.StatusOK)
	resp.Filmes = make([]wire.MovieDTO, 0, len(movies))
	for i := range movies {
		resp.Filmes = append(resp.Filmes, *movieToDTO(&movies[i]))
	}
	return Result{Response: resp}
}

func (e *Engine) handleGetMovieByID(ctx context.Context, req *wire.Request) Result {
	id, ok := parseID(req.IDFilme)
	if !ok {
		return errResult(wire.StatusBadRequest)
	}

	movie, err := e.movies.MovieByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return errResult(wire.StatusNotFound)
	}
	if err != nil {
		return e.internalError(req.Operacao, err)
	}

	reviews, err := e.reviews.ReviewsByMovie(ctx, id)
	if err != nil {
		return e.internalError(req.Operacao, err)
	}

	resp := wire.Success(wire.StatusOK)
	resp.Filme = movieToDTO(movie)
	resp.Reviews = reviewsToDTO(reviews)
	return Result{Response: resp}
}

func (e *Engine) handleCreateMovie(ctx context.Context, req *wire.Request) Result {
	if req.Filme == nil || !e.validMovie(req.Filme) {
		return errResult(wire.StatusInvalidKeys)
	}

	if err := e.movies.CreateMovie(ctx, movieFromDTO(req.Filme)); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return errResult(wire.StatusConflict)
		}
		return e.internalError(req.Operacao, err)
	}
	return okResult(wire.StatusCreated)
}

func (e *Engine) handleUpdateMovie(ctx context.Context, req *wire.Request) Result {
	if req.Filme == nil || req.Filme.ID == "" || !e.validMovie(req.Filme) {
		return errResult(wire.StatusInvalidKeys)
	}
	id, ok := parseID(req.Filme.ID)
	if !ok {
		return errResult(wire.StatusBadRequest)
	}

	movie := movieFromDTO(req.Filme)
	movie.ID = id
	if err := e.movies.UpdateMovie(ctx, movie); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return errResult(wire.StatusNotFound)
		case errors.Is(err, store.ErrDuplicate):
			return errResult(wire.StatusConflict)
		}
		return e.internalError(req.Operacao, err)
	}
	return okResult(wire.StatusOK)
}

func (e *Engine) handleDeleteMovie(ctx context.Context, req *wire.Request) Result {
	id, ok := parseID(req.ID)
	if !ok {
		return errResult(wire.StatusBadRequest)
	}

	if err := e.movies.DeleteMovie(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errResult(wire.StatusNotFound)
		}
		return e.internalError(req.Operacao, err)
	}
	return okResult(wire.StatusOK)
}
