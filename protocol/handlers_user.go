// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/mauricegss/VoteFlix/internal/auth"
	"github.com/mauricegss/VoteFlix/store"
	"github.com/mauricegss/VoteFlix/wire"
)

func (e *Engine) handleLogin(ctx context.Context, req *wire.Request) Result {
	if req.Usuario == nil || req.Senha == nil {
		return errResult(wire.StatusInvalidKeys)
	}
	nome, ok := req.UsuarioString()
	if !ok {
		return errResult(wire.StatusInvalidKeys)
	}

	u, err := e.users.UserByName(ctx, nome)
	if errors.Is(err, store.ErrNotFound) {
		return errResult(wire.StatusUnauthenticated)
	}
	if err != nil {
		return e.internalError(req.Operacao, err)
	}
	if u.Senha != *req.Senha {
		return errResult(wire.StatusUnauthenticated)
	}

	tok, err := e.tokens.Issue(u.Nome, u.Funcao, u.ID)
	if err != nil {
		return e.internalError(req.Operacao, err)
	}

	resp := wire.Success(wire.StatusOK)
	resp.Token = tok
	return Result{Response: resp, AuthenticatedUser: u.Nome}
}

func (e *Engine) handleCreateUser(ctx context.Context, req *wire.Request) Result {
	if req.Usuario == nil {
		return errResult(wire.StatusInvalidKeys)
	}
	u, ok := req.UsuarioObject()
	if !ok || u.Nome == "" || u.Senha == "" {
		return errResult(wire.StatusInvalidKeys)
	}
	if !e.validUserField(u.Nome) || !e.validUserField(u.Senha) {
		return errResult(wire.StatusInvalidFields)
	}
	// The admin account name is reserved.
	if strings.EqualFold(u.Nome, "admin") {
		return errResult(wire.StatusForbidden)
	}

	if _, err := e.users.CreateUser(ctx, u.Nome, u.Senha); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return errResult(wire.StatusConflict)
		}
		return e.internalError(req.Operacao, err)
	}
	return okResult(wire.StatusCreated)
}

func (e *Engine) handleLogout(ctx context.Context, _ *wire.Request) Result {
	res := okResult(wire.StatusOK)
	res.CloseAfterWrite = true
	return res
}

func (e *Engine) handleUpdateOwnPassword(ctx context.Context, req *wire.Request) Result {
	ident, _ := auth.IdentityFrom(ctx)
	if ident.IsAdmin() {
		return errResult(wire.StatusForbidden)
	}
	if req.Usuario == nil {
		return errResult(wire.StatusInvalidKeys)
	}
	u, ok := req.UsuarioObject()
	if !ok || u.Senha == "" {
		return errResult(wire.StatusInvalidKeys)
	}
	if !e.validUserField(u.Senha) {
		return errResult(wire.StatusInvalidFields)
	}

	if err := e.users.UpdatePassword(ctx, ident.UserID, u.Senha); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errResult(wire.StatusNotFound)
		}
		return e.internalError(req.Operacao, err)
	}
	return okResult(wire.StatusOK)
}

func (e *Engine) handleDeleteOwnUser(ctx context.Context, req *wire.Request) Result {
	ident, _ := auth.IdentityFrom(ctx)
	if ident.IsAdmin() {
		return errResult(wire.StatusForbidden)
	}

	if err := e.users.DeleteUser(ctx, ident.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errResult(wire.StatusNotFound)
		}
		return e.internalError(req.Operacao, err)
	}
	res := okResult(wire.StatusOK)
	res.CloseAfterWrite = true
	return res
}

func (e *Engine) handleListOwnUser(ctx context.Context, _ *wire.Request) Result {
	ident, _ := auth.IdentityFrom(ctx)
	resp := wire.Success(wire.StatusOK)
	resp.Usuario = ident.Username
	return Result{Response: resp}
}

func (e *Engine) handleListUsers(ctx context.Context, req *wire.Request) Result {
	users, err := e.users.ListUsers(ctx)
	if err != nil {
		return e.internalError(req.Operacao, err)
	}

	resp := wire.Success(wire.StatusOK)
	resp.Usuarios = make([]wire.UserDTO, 0, len(users))
	for _, u := range users {
		resp.Usuarios = append(resp.Usuarios, wire.UserDTO{
			ID:   strconv.FormatInt(u.ID, 10),
			Nome: u.Nome,
		})
	}
	return Result{Response: resp}
}

func (e *Engine) handleAdminEditUser(ctx context.Context, req *wire.Request) Result {
	id, ok := parseID(req.ID)
	if !ok {
		return errResult(wire.StatusBadRequest)
	}
	if req.Usuario == nil {
		return errResult(wire.StatusInvalidKeys)
	}
	u, okU := req.UsuarioObject()
	if !okU || u.Senha == "" {
		return errResult(wire.StatusInvalidKeys)
	}
	if !e.validUserField(u.Senha) {
		return errResult(wire.StatusInvalidKeys)
	}

	if err := e.users.UpdatePassword(ctx, id, u.Senha); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errResult(wire.StatusNotFound)
		}
		return e.internalError(req.Operacao, err)
	}
	return okResult(wire.StatusOK)
}

func (e *Engine) handleAdminDeleteUser(ctx context.Context, req *wire.Request) Result {
	id, ok := parseID(req.ID)
	if !ok {
		return errResult(wire.StatusBadRequest)
	}

	target, err := e.users.UserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return errResult(wire.StatusNotFound)
	}
	if err != nil {
		return e.internalError(req.Operacao, err)
	}
	if strings.EqualFold(target.Nome, "admin") {
		return errResult(wire.StatusForbidden)
	}

	if err := e.users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errResult(wire.StatusNotFound)
		}
		return e.internalError(req.Operacao, err)
	}

	// The deleted user's tokens are now dead; any live connection of
	// theirs gets force-closed by the multiplexer.
	res := okResult(wire.StatusOK)
	res.DisconnectUser = target.Nome
	return res
}
