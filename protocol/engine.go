// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol is the per-request state machine: parse a framed
// line, authenticate the token, re-check the user still exists, gate on
// the operation's authorization tier, then dispatch through the
// operation table. Exactly one response per request, always.
package protocol

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/mauricegss/VoteFlix/config"
	"github.com/mauricegss/VoteFlix/internal/auth"
	"github.com/mauricegss/VoteFlix/store"
	"github.com/mauricegss/VoteFlix/token"
	"github.com/mauricegss/VoteFlix/wire"
)

// UserStore is the slice of the store the engine needs for accounts.
type UserStore interface {
	CreateUser(ctx context.Context, nome, senha string) (int64, error)
	UserByName(ctx context.Context, nome string) (*store.User, error)
	UserByID(ctx context.Context, id int64) (*store.User, error)
	UpdatePassword(ctx context.Context, id int64, senha string) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]store.User, error)
}

// MovieStore is the slice of the store the engine needs for the catalog.
type MovieStore interface {
	CreateMovie(ctx context.Context, m *store.Movie) error
	UpdateMovie(ctx context.Context, m *store.Movie) error
	DeleteMovie(ctx context.Context, id int64) error
	MovieByID(ctx context.Context, id int64) (*store.Movie, error)
	ListMovies(ctx context.Context) ([]store.Movie, error)
}

// ReviewStore is the slice of the store the engine needs for reviews.
type ReviewStore interface {
	CreateReview(ctx context.Context, r *store.Review) error
	UpdateReview(ctx context.Context, reviewID, userID int64, nota int, titulo, descricao string) error
	DeleteReview(ctx context.Context, reviewID, userID int64) error
	DeleteReviewAsAdmin(ctx context.Context, reviewID int64) error
	ReviewsByMovie(ctx context.Context, movieID int64) ([]store.Review, error)
	ReviewsByUser(ctx context.Context, userID int64) ([]store.Review, error)
}

// TokenService signs and verifies the stateless auth tokens.
type TokenService interface {
	Issue(username, role string, userID int64) (string, error)
	Verify(tokenString string) (*token.Claims, error)
}

// Result is the outcome of one request: the response to queue plus the
// connection-level side effects the multiplexer acts on.
type Result struct {
	Response wire.Response

	// CloseAfterWrite closes the connection once the response is
	// flushed (LOGOUT, own-account deletion, deleted-user revocation).
	CloseAfterWrite bool

	// AuthenticatedUser, when set, records a successful LOGIN for the
	// active-client registry.
	AuthenticatedUser string

	// DisconnectUser, when set, asks the multiplexer to force-close any
	// live connection of the named (just deleted) user.
	DisconnectUser string
}

// tier is an operation's authorization requirement.
type tier int

const (
	tierPublic tier = iota // no token
	tierUser               // any verified identity
	tierAdmin              // role admin, checked before the handler runs
)

type handlerFunc func(ctx context.Context, req *wire.Request) Result

type operation struct {
	tier    tier
	handler handlerFunc
}

// Engine routes decoded requests through the operation table.
type Engine struct {
	users   UserStore
	movies  MovieStore
	reviews ReviewStore
	tokens  TokenService
	cfg     *config.Config
	logger  *slog.Logger

	validate     *validator.Validate
	userFieldTag string
	ops          map[string]operation
}

// NewEngine wires the protocol engine.
func NewEngine(users UserStore, movies MovieStore, reviews ReviewStore,
	tokens TokenService, cfg *config.Config, logger *slog.Logger) *Engine {

	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		users:    users,
		movies:   movies,
		reviews:  reviews,
		tokens:   tokens,
		cfg:      cfg,
		logger:   logger,
		validate: validator.New(),
	}
	e.buildValidationTags()

	// The operation table replaces switch-based dispatch: every
	// operation declares its authorization tier next to its handler.
	e.ops = map[string]operation{
		"LOGIN":         {tierPublic, e.handleLogin},
		"CRIAR_USUARIO": {tierPublic, e.handleCreateUser},

		"LOGOUT":                  {tierUser, e.handleLogout},
		"EDITAR_PROPRIO_USUARIO":  {tierUser, e.handleUpdateOwnPassword},
		"EXCLUIR_PROPRIO_USUARIO": {tierUser, e.handleDeleteOwnUser},
		"LISTAR_PROPRIO_USUARIO":  {tierUser, e.handleListOwnUser},
		"LISTAR_FILMES":           {tierUser, e.handleListMovies},
		"BUSCAR_FILME_ID":         {tierUser, e.handleGetMovieByID},
		"CRIAR_REVIEW":            {tierUser, e.handleCreateReview},
		"LISTAR_REVIEWS_USUARIO":  {tierUser, e.handleListUserReviews},
		"EDITAR_REVIEW":           {tierUser, e.handleEditReview},
		"EXCLUIR_REVIEW":          {tierUser, e.handleDeleteReview},

		"CRIAR_FILME":           {tierAdmin, e.handleCreateMovie},
		"EDITAR_FILME":          {tierAdmin, e.handleUpdateMovie},
		"EXCLUIR_FILME":         {tierAdmin, e.handleDeleteMovie},
		"LISTAR_USUARIOS":       {tierAdmin, e.handleListUsers},
		"ADMIN_EDITAR_USUARIO":  {tierAdmin, e.handleAdminEditUser},
		"ADMIN_EXCLUIR_USUARIO": {tierAdmin, e.handleAdminDeleteUser},
	}
	return e
}

// HandleLine processes one framed request line and returns exactly one
// result. Protocol faults (bad JSON, unknown operation) never close the
// connection; only the revocation path and explicit close operations do.
func (e *Engine) HandleLine(ctx context.Context, line string) Result {
	req, err := wire.DecodeRequest(line)
	if err != nil {
		return errResult(wire.StatusBadRequest)
	}

	op, known := e.ops[req.Operacao]
	if known && op.tier == tierPublic {
		return op.handler(ctx, req)
	}

	// Everything else requires a token. A missing key is a shape fault
	// (422); an empty or unverifiable token is an auth fault (401).
	if req.Token == nil {
		return errResult(wire.StatusInvalidKeys)
	}
	if *req.Token == "" {
		return errResult(wire.StatusUnauthenticated)
	}
	claims, err := e.tokens.Verify(*req.Token)
	if err != nil {
		return errResult(wire.StatusUnauthenticated)
	}

	// Tokens are stateless, so the subject's existence is re-checked on
	// every call. A verified token for a deleted user is the revocation
	// case: respond, then force the connection closed.
	u, err := e.users.UserByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return Result{Response: wire.Error(wire.StatusNotFound), CloseAfterWrite: true}
	}
	if err != nil {
		return e.internalError(req.Operacao, err)
	}

	if !known {
		return errResult(wire.StatusBadRequest)
	}

	ident := auth.Identity{UserID: u.ID, Username: u.Nome, Role: u.Funcao}
	if op.tier == tierAdmin && !ident.IsAdmin() {
		return errResult(wire.StatusForbidden)
	}

	return op.handler(auth.WithIdentity(ctx, ident), req)
}

func errResult(status string) Result {
	return Result{Response: wire.Error(status)}
}

func okResult(status string) Result {
	return Result{Response: wire.Success(status)}
}

// internalError logs full detail server-side; the client only ever sees
// the generic 500 message.
func (e *Engine) internalError(operacao string, err error) Result {
	e.logger.Error("Internal error handling operation", "operacao", operacao, "error", err)
	return errResult(wire.StatusInternalError)
}
