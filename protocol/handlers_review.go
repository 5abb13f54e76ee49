// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"errors"
	"strconv"

	"github.com/mauricegss/VoteFlix/internal/auth"
	"github.com/mauricegss/VoteFlix/store"
	"github.com/mauricegss/VoteFlix/token"
	"github.com/mauricegss/VoteFlix/wire"
)

func reviewsToDTO(reviews []store.Review) []wire.ReviewDTO {
	out := make([]wire.ReviewDTO, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, wire.ReviewDTO{
			ID:          strconv.FormatInt(r.ID, 10),
			IDFilme:     strconv.FormatInt(r.IDFilme, 10),
			NomeUsuario: r.NomeUsuario,
			Nota:        strconv.Itoa(r.Nota),
			Titulo:      r.Titulo,
			Descricao:   r.Descricao,
			Data:        r.Data,
			Editado:     strconv.FormatBool(r.Editado),
		})
	}
	return out
}

func (e *Engine) handleCreateReview(ctx context.Context, req *wire.Request) Result {
	ident, _ := auth.IdentityFrom(ctx)
	// Reviewing is for the user role; the admin account curates, it
	// does not rate.
	if ident.Role != token.RoleUser {
		return errResult(wire.StatusForbidden)
	}
	if req.Review == nil {
		return errResult(wire.StatusInvalidKeys)
	}

	movieID, okID := parseID(req.Review.IDFilme)
	nota, errNota := strconv.Atoi(req.Review.Nota)
	if !okID || errNota != nil {
		return errResult(wire.StatusBadRequest)
	}
	if !e.validReviewFields(nota, req.Review.Descricao) {
		return errResult(wire.StatusInvalidKeys)
	}

	review := &store.Review{
		IDFilme:     movieID,
		IDUsuario:   ident.UserID,
		NomeUsuario: ident.Username,
		Nota:        nota,
		Titulo:      req.Review.Titulo,
		Descricao:   req.Review.Descricao,
	}
	if err := e.reviews.CreateReview(ctx, review); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return Result{Response: wire.ErrorMessage(wire.StatusConflict, "Erro: Você já avaliou este filme.")}
		case errors.Is(err, store.ErrMovieMissing):
			return Result{Response: wire.ErrorMessage(wire.StatusNotFound, "Erro: Filme não encontrado.")}
		}
		return e.internalError(req.Operacao, err)
	}
	return okResult(wire.StatusCreated)
}

func (e *Engine) handleEditReview(ctx context.Context, req *wire.Request) Result {
	ident, _ := auth.IdentityFrom(ctx)
	if ident.Role != token.RoleUser {
		return errResult(wire.StatusForbidden)
	}
	if req.Review == nil || req.Review.ID == "" || req.Review.Nota == "" {
		return errResult(wire.StatusInvalidKeys)
	}

	reviewID, okID := parseID(req.Review.ID)
	nota, errNota := strconv.Atoi(req.Review.Nota)
	if !okID || errNota != nil {
		return errResult(wire.StatusBadRequest)
	}
	if !e.validReviewFields(nota, req.Review.Descricao) {
		return errResult(wire.StatusInvalidKeys)
	}

	err := e.reviews.UpdateReview(ctx, reviewID, ident.UserID, nota,
		req.Review.Titulo, req.Review.Descricao)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errResult(wire.StatusNotFound)
		}
		return e.internalError(req.Operacao, err)
	}
	return okResult(wire.StatusOK)
}

func (e *Engine) handleDeleteReview(ctx context.Context, req *wire.Request) Result {
	ident, _ := auth.IdentityFrom(ctx)
	reviewID, ok := parseID(req.ID)
	if !ok {
		return errResult(wire.StatusBadRequest)
	}

	// Owners delete their own reviews; the admin may delete any.
	var err error
	if ident.IsAdmin() {
		err = e.reviews.DeleteReviewAsAdmin(ctx, reviewID)
	} else {
		err = e.reviews.DeleteReview(ctx, reviewID, ident.UserID)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errResult(wire.StatusNotFound)
		}
		return e.internalError(req.Operacao, err)
	}
	return okResult(wire.StatusOK)
}

func (e *Engine) handleListUserReviews(ctx context.Context, req *wire.Request) Result {
	ident, _ := auth.IdentityFrom(ctx)
	reviews, err := e.reviews.ReviewsByUser(ctx, ident.UserID)
	if err != nil {
		return e.internalError(req.Operacao, err)
	}

	resp := wire.Success(wire.StatusOK)
	resp.Reviews = reviewsToDTO(reviews)
	return Result{Response: resp}
}
