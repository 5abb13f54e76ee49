// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mauricegss/VoteFlix/config"
	"github.com/mauricegss/VoteFlix/token"
	"github.com/mauricegss/VoteFlix/wire"
)

func newTestEngine(t *testing.T) (*Engine, *memStore) {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	st := newMemStore()
	tokens := token.NewService("test-secret", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(st, st, st, tokens, cfg, logger), st
}

func handle(t *testing.T, e *Engine, req map[string]any) Result {
	t.Helper()
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	return e.HandleLine(context.Background(), string(raw))
}

func login(t *testing.T, e *Engine, nome, senha string) string {
	t.Helper()
	res := handle(t, e, map[string]any{"operacao": "LOGIN", "usuario": nome, "senha": senha})
	require.Equal(t, wire.StatusOK, res.Response.Status)
	require.NotEmpty(t, res.Response.Token)
	return res.Response.Token
}

func createUser(t *testing.T, e *Engine, nome, senha string) {
	t.Helper()
	res := handle(t, e, map[string]any{
		"operacao": "CRIAR_USUARIO",
		"usuario":  map[string]string{"nome": nome, "senha": senha},
	})
	require.Equal(t, wire.StatusCreated, res.Response.Status)
}

func sampleMovie() map[string]any {
	return map[string]any{
		"titulo":  "Blade Runner",
		"diretor": "Ridley Scott",
		"ano":     "1982",
		"genero":  []string{"Ficção Científica"},
		"sinopse": "Caçador de replicantes reconsidera o ofício.",
	}
}

func createMovie(t *testing.T, e *Engine, adminToken string) string {
	t.Helper()
	res := handle(t, e, map[string]any{
		"operacao": "CRIAR_FILME", "token": adminToken, "filme": sampleMovie(),
	})
	require.Equal(t, wire.StatusCreated, res.Response.Status)

	list := handle(t, e, map[string]any{"operacao": "LISTAR_FILMES", "token": adminToken})
	require.Equal(t, wire.StatusOK, list.Response.Status)
	require.Len(t, list.Response.Filmes, 1)
	return list.Response.Filmes[0].ID
}

func TestHandleLineMalformedJSON(t *testing.T) {
	e, _ := newTestEngine(t)
	res := e.HandleLine(context.Background(), `{"operacao": "LOGIN"`)
	require.Equal(t, wire.StatusBadRequest, res.Response.Status)
	require.False(t, res.CloseAfterWrite)
}

func TestHandleLineTokenFaults(t *testing.T) {
	e, _ := newTestEngine(t)
	adminToken := login(t, e, "admin", "admin")

	// Missing token key is a shape fault, not an auth fault.
	res := handle(t, e, map[string]any{"operacao": "LISTAR_FILMES"})
	require.Equal(t, wire.StatusInvalidKeys, res.Response.Status)

	res = handle(t, e, map[string]any{"operacao": "LISTAR_FILMES", "token": ""})
	require.Equal(t, wire.StatusUnauthenticated, res.Response.Status)

	res = handle(t, e, map[string]any{"operacao": "LISTAR_FILMES", "token": "not-a-jwt"})
	require.Equal(t, wire.StatusUnauthenticated, res.Response.Status)

	// Unknown operation is reported only after the token checks pass.
	res = handle(t, e, map[string]any{"operacao": "FAZER_CAFE"})
	require.Equal(t, wire.StatusInvalidKeys, res.Response.Status)
	res = handle(t, e, map[string]any{"operacao": "FAZER_CAFE", "token": adminToken})
	require.Equal(t, wire.StatusBadRequest, res.Response.Status)

	// Protocol faults never close the connection.
	require.False(t, res.CloseAfterWrite)
}

func TestLogin(t *testing.T) {
	e, _ := newTestEngine(t)

	res := handle(t, e, map[string]any{"operacao": "LOGIN", "usuario": "admin"})
	require.Equal(t, wire.StatusInvalidKeys, res.Response.Status)

	res = handle(t, e, map[string]any{"operacao": "LOGIN", "usuario": "admin", "senha": "wrong"})
	require.Equal(t, wire.StatusUnauthenticated, res.Response.Status)

	res = handle(t, e, map[string]any{"operacao": "LOGIN", "usuario": "ghost", "senha": "x"})
	require.Equal(t, wire.StatusUnauthenticated, res.Response.Status)

	res = handle(t, e, map[string]any{"operacao": "LOGIN", "usuario": "admin", "senha": "admin"})
	require.Equal(t, wire.StatusOK, res.Response.Status)
	require.NotEmpty(t, res.Response.Token)
	require.Equal(t, "admin", res.AuthenticatedUser)
}

func TestCreateUser(t *testing.T) {
	e, _ := newTestEngine(t)

	res := handle(t, e, map[string]any{
		"operacao": "CRIAR_USUARIO",
		"usuario":  map[string]string{"nome": "al", "senha": "secret1"},
	})
	require.Equal(t, wire.StatusInvalidFields, res.Response.Status, "name below minimum length")

	res = handle(t, e, map[string]any{
		"operacao": "CRIAR_USUARIO",
		"usuario":  map[string]string{"nome": "maria!", "senha": "secret1"},
	})
	require.Equal(t, wire.StatusInvalidFields, res.Response.Status, "name outside allowed alphabet")

	res = handle(t, e, map[string]any{
		"operacao": "CRIAR_USUARIO",
		"usuario":  map[string]string{"nome": "Admin", "senha": "secret1"},
	})
	require.Equal(t, wire.StatusForbidden, res.Response.Status, "reserved name, case-insensitive")

	createUser(t, e, "maria", "secret1")

	res = handle(t, e, map[string]any{
		"operacao": "CRIAR_USUARIO",
		"usuario":  map[string]string{"nome": "maria", "senha": "other22"},
	})
	require.Equal(t, wire.StatusConflict, res.Response.Status)
}

func TestAdminGateOnMovies(t *testing.T) {
	e, _ := newTestEngine(t)
	createUser(t, e, "maria", "secret1")
	userToken := login(t, e, "maria", "secret1")
	adminToken := login(t, e, "admin", "admin")

	res := handle(t, e, map[string]any{
		"operacao": "CRIAR_FILME", "token": userToken, "filme": sampleMovie(),
	})
	require.Equal(t, wire.StatusForbidden, res.Response.Status)

	res = handle(t, e, map[string]any{
		"operacao": "CRIAR_FILME", "token": adminToken, "filme": sampleMovie(),
	})
	require.Equal(t, wire.StatusCreated, res.Response.Status)

	res = handle(t, e, map[string]any{
		"operacao": "CRIAR_FILME", "token": adminToken, "filme": sampleMovie(),
	})
	require.Equal(t, wire.StatusConflict, res.Response.Status, "same title/director/year")
}

func TestCreateMovieValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	adminToken := login(t, e, "admin", "admin")

	badGenre := sampleMovie()
	badGenre["genero"] = []string{"Faroeste Espacial"}
	res := handle(t, e, map[string]any{"operacao": "CRIAR_FILME", "token": adminToken, "filme": badGenre})
	require.Equal(t, wire.StatusInvalidKeys, res.Response.Status)

	badYear := sampleMovie()
	badYear["ano"] = "82"
	res = handle(t, e, map[string]any{"operacao": "CRIAR_FILME", "token": adminToken, "filme": badYear})
	require.Equal(t, wire.StatusInvalidKeys, res.Response.Status)

	noGenres := sampleMovie()
	noGenres["genero"] = []string{}
	res = handle(t, e, map[string]any{"operacao": "CRIAR_FILME", "token": adminToken, "filme": noGenres})
	require.Equal(t, wire.StatusInvalidKeys, res.Response.Status)
}

func TestReviewLifecycle(t *testing.T) {
	e, _ := newTestEngine(t)
	adminToken := login(t, e, "admin", "admin")
	movieID := createMovie(t, e, adminToken)

	createUser(t, e, "maria", "secret1")
	createUser(t, e, "joao", "secret2")
	mariaToken := login(t, e, "maria", "secret1")
	joaoToken := login(t, e, "joao", "secret2")

	// The admin curates but does not rate.
	res := handle(t, e, map[string]any{
		"operacao": "CRIAR_REVIEW", "token": adminToken,
		"review": map[string]string{"id_filme": movieID, "nota": "5"},
	})
	require.Equal(t, wire.StatusForbidden, res.Response.Status)

	res = handle(t, e, map[string]any{
		"operacao": "CRIAR_REVIEW", "token": mariaToken,
		"review": map[string]string{"id_filme": "9999", "nota": "5"},
	})
	require.Equal(t, wire.StatusNotFound, res.Response.Status)
	require.Equal(t, "Erro: Filme não encontrado.", res.Response.Mensagem)

	res = handle(t, e, map[string]any{
		"operacao": "CRIAR_REVIEW", "token": mariaToken,
		"review": map[string]string{"id_filme": movieID, "nota": "6"},
	})
	require.Equal(t, wire.StatusInvalidKeys, res.Response.Status, "score out of range")

	res = handle(t, e, map[string]any{
		"operacao": "CRIAR_REVIEW", "token": mariaToken,
		"review": map[string]string{"id_filme": movieID, "nota": "5", "titulo": "Ótimo"},
	})
	require.Equal(t, wire.StatusCreated, res.Response.Status)

	res = handle(t, e, map[string]any{
		"operacao": "CRIAR_REVIEW", "token": mariaToken,
		"review": map[string]string{"id_filme": movieID, "nota": "4"},
	})
	require.Equal(t, wire.StatusConflict, res.Response.Status)
	require.Equal(t, "Erro: Você já avaliou este filme.", res.Response.Mensagem)

	res = handle(t, e, map[string]any{
		"operacao": "CRIAR_REVIEW", "token": joaoToken,
		"review": map[string]string{"id_filme": movieID, "nota": "2"},
	})
	require.Equal(t, wire.StatusCreated, res.Response.Status)

	get := handle(t, e, map[string]any{"operacao": "BUSCAR_FILME_ID", "token": mariaToken, "id_filme": movieID})
	require.Equal(t, wire.StatusOK, get.Response.Status)
	require.Equal(t, "3.5", get.Response.Filme.Nota)
	require.Equal(t, "2", get.Response.Filme.QtdAvaliacoes)
	require.Len(t, get.Response.Reviews, 2)

	// Editing the score moves the aggregate and flags the review.
	mine := handle(t, e, map[string]any{"operacao": "LISTAR_REVIEWS_USUARIO", "token": mariaToken})
	require.Len(t, mine.Response.Reviews, 1)
	reviewID := mine.Response.Reviews[0].ID
	require.Equal(t, "false", mine.Response.Reviews[0].Editado)

	res = handle(t, e, map[string]any{
		"operacao": "EDITAR_REVIEW", "token": mariaToken,
		"review": map[string]string{"id": reviewID, "nota": "3"},
	})
	require.Equal(t, wire.StatusOK, res.Response.Status)

	get = handle(t, e, map[string]any{"operacao": "BUSCAR_FILME_ID", "token": mariaToken, "id_filme": movieID})
	require.Equal(t, "2.5", get.Response.Filme.Nota)

	mine = handle(t, e, map[string]any{"operacao": "LISTAR_REVIEWS_USUARIO", "token": mariaToken})
	require.Equal(t, "true", mine.Response.Reviews[0].Editado)

	// Deleting the review pulls its score back out.
	res = handle(t, e, map[string]any{"operacao": "EXCLUIR_REVIEW", "token": mariaToken, "id": reviewID})
	require.Equal(t, wire.StatusOK, res.Response.Status)

	get = handle(t, e, map[string]any{"operacao": "BUSCAR_FILME_ID", "token": mariaToken, "id_filme": movieID})
	require.Equal(t, "2.0", get.Response.Filme.Nota)
	require.Equal(t, "1", get.Response.Filme.QtdAvaliacoes)
}

func TestReviewOwnership(t *testing.T) {
	e, _ := newTestEngine(t)
	adminToken := login(t, e, "admin", "admin")
	movieID := createMovie(t, e, adminToken)

	createUser(t, e, "maria", "secret1")
	createUser(t, e, "joao", "secret2")
	mariaToken := login(t, e, "maria", "secret1")
	joaoToken := login(t, e, "joao", "secret2")

	res := handle(t, e, map[string]any{
		"operacao": "CRIAR_REVIEW", "token": mariaToken,
		"review": map[string]string{"id_filme": movieID, "nota": "4"},
	})
	require.Equal(t, wire.StatusCreated, res.Response.Status)

	mine := handle(t, e, map[string]any{"operacao": "LISTAR_REVIEWS_USUARIO", "token": mariaToken})
	reviewID := mine.Response.Reviews[0].ID

	// Another user cannot touch it; they see it as nonexistent.
	res = handle(t, e, map[string]any{"operacao": "EXCLUIR_REVIEW", "token": joaoToken, "id": reviewID})
	require.Equal(t, wire.StatusNotFound, res.Response.Status)
	res = handle(t, e, map[string]any{
		"operacao": "EDITAR_REVIEW", "token": joaoToken,
		"review": map[string]string{"id": reviewID, "nota": "1"},
	})
	require.Equal(t, wire.StatusNotFound, res.Response.Status)

	// The admin may moderate any review away.
	res = handle(t, e, map[string]any{"operacao": "EXCLUIR_REVIEW", "token": adminToken, "id": reviewID})
	require.Equal(t, wire.StatusOK, res.Response.Status)
}

func TestTokenRevocationOnDeletedUser(t *testing.T) {
	e, st := newTestEngine(t)
	createUser(t, e, "maria", "secret1")
	mariaToken := login(t, e, "maria", "secret1")

	u, err := st.UserByName(context.Background(), "maria")
	require.NoError(t, err)
	require.NoError(t, st.DeleteUser(context.Background(), u.ID))

	// Valid signature, dead subject: respond 404 and drop the connection.
	res := handle(t, e, map[string]any{"operacao": "LISTAR_FILMES", "token": mariaToken})
	require.Equal(t, wire.StatusNotFound, res.Response.Status)
	require.True(t, res.CloseAfterWrite)
}

func TestLogoutAndOwnAccount(t *testing.T) {
	e, _ := newTestEngine(t)
	createUser(t, e, "maria", "secret1")
	mariaToken := login(t, e, "maria", "secret1")
	adminToken := login(t, e, "admin", "admin")

	res := handle(t, e, map[string]any{"operacao": "LISTAR_PROPRIO_USUARIO", "token": mariaToken})
	require.Equal(t, wire.StatusOK, res.Response.Status)
	require.Equal(t, "maria", res.Response.Usuario)

	res = handle(t, e, map[string]any{
		"operacao": "EDITAR_PROPRIO_USUARIO", "token": mariaToken,
		"usuario": map[string]string{"senha": "nova123"},
	})
	require.Equal(t, wire.StatusOK, res.Response.Status)
	login(t, e, "maria", "nova123")

	// The admin account cannot edit or delete itself.
	res = handle(t, e, map[string]any{
		"operacao": "EDITAR_PROPRIO_USUARIO", "token": adminToken,
		"usuario": map[string]string{"senha": "nova123"},
	})
	require.Equal(t, wire.StatusForbidden, res.Response.Status)
	res = handle(t, e, map[string]any{"operacao": "EXCLUIR_PROPRIO_USUARIO", "token": adminToken})
	require.Equal(t, wire.StatusForbidden, res.Response.Status)

	res = handle(t, e, map[string]any{"operacao": "LOGOUT", "token": mariaToken})
	require.Equal(t, wire.StatusOK, res.Response.Status)
	require.True(t, res.CloseAfterWrite)

	res = handle(t, e, map[string]any{"operacao": "EXCLUIR_PROPRIO_USUARIO", "token": mariaToken})
	require.Equal(t, wire.StatusOK, res.Response.Status)
	require.True(t, res.CloseAfterWrite)
}

func TestAdminUserManagement(t *testing.T) {
	e, _ := newTestEngine(t)
	adminToken := login(t, e, "admin", "admin")
	movieID := createMovie(t, e, adminToken)

	createUser(t, e, "maria", "secret1")
	mariaToken := login(t, e, "maria", "secret1")
	res := handle(t, e, map[string]any{
		"operacao": "CRIAR_REVIEW", "token": mariaToken,
		"review": map[string]string{"id_filme": movieID, "nota": "5"},
	})
	require.Equal(t, wire.StatusCreated, res.Response.Status)

	// User-tier callers never reach the admin handlers.
	res = handle(t, e, map[string]any{"operacao": "LISTAR_USUARIOS", "token": mariaToken})
	require.Equal(t, wire.StatusForbidden, res.Response.Status)

	list := handle(t, e, map[string]any{"operacao": "LISTAR_USUARIOS", "token": adminToken})
	require.Equal(t, wire.StatusOK, list.Response.Status)
	require.Len(t, list.Response.Usuarios, 2)
	for _, u := range list.Response.Usuarios {
		require.Empty(t, u.Senha)
	}

	var mariaID string
	for _, u := range list.Response.Usuarios {
		if u.Nome == "maria" {
			mariaID = u.ID
		}
	}
	require.NotEmpty(t, mariaID)

	res = handle(t, e, map[string]any{
		"operacao": "ADMIN_EDITAR_USUARIO", "token": adminToken, "id": mariaID,
		"usuario": map[string]string{"senha": "x"},
	})
	require.Equal(t, wire.StatusInvalidKeys, res.Response.Status, "password below policy")

	res = handle(t, e, map[string]any{
		"operacao": "ADMIN_EDITAR_USUARIO", "token": adminToken, "id": mariaID,
		"usuario": map[string]string{"senha": "nova123"},
	})
	require.Equal(t, wire.StatusOK, res.Response.Status)
	login(t, e, "maria", "nova123")

	// The admin account itself is not deletable.
	res = handle(t, e, map[string]any{"operacao": "ADMIN_EXCLUIR_USUARIO", "token": adminToken, "id": "1"})
	require.Equal(t, wire.StatusForbidden, res.Response.Status)

	res = handle(t, e, map[string]any{"operacao": "ADMIN_EXCLUIR_USUARIO", "token": adminToken, "id": mariaID})
	require.Equal(t, wire.StatusOK, res.Response.Status)
	require.Equal(t, "maria", res.DisconnectUser)

	// Her review went with her and the aggregate was rebuilt.
	get := handle(t, e, map[string]any{"operacao": "BUSCAR_FILME_ID", "token": adminToken, "id_filme": movieID})
	require.Equal(t, "0.0", get.Response.Filme.Nota)
	require.Equal(t, "0", get.Response.Filme.QtdAvaliacoes)
	require.Empty(t, get.Response.Reviews)
}
