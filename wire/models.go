// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the VoteFlix line protocol: one UTF-8 JSON object
// per newline-terminated line, in both directions. Field names and status
// messages follow the protocol contract the desktop client speaks, so all
// scalar values cross the wire as JSON strings (ids, scores, year, status).
package wire

import "encoding/json"

// Status codes carried in the "status" response field. They are strings on
// the wire even though they mirror HTTP numerics.
const (
	StatusOK              = "200"
	StatusCreated         = "201"
	StatusBadRequest      = "400"
	StatusUnauthenticated = "401"
	StatusForbidden       = "403"
	StatusNotFound        = "404"
	StatusInvalidFields   = "405"
	StatusConflict        = "409"
	StatusInvalidKeys     = "422"
	StatusInternalError   = "500"

	// StatusClientOffline is generated client-side only (not connected /
	// connection lost). The server never emits it; listed for completeness.
	StatusClientOffline = "999"
)

// statusMessages holds the canonical "mensagem" for each status.
var statusMessages = map[string]string{
	StatusOK:              "Sucesso: Operação realizada com sucesso",
	StatusCreated:         "Sucesso: Recurso cadastrado",
	StatusBadRequest:      "Erro: Operação não encontrada ou inválida",
	StatusUnauthenticated: "Erro: Autenticação falhou (credenciais ou token inválidos)",
	StatusForbidden:       "Erro: sem permissão",
	StatusNotFound:        "Erro: Recurso inexistente",
	StatusInvalidFields:   "Erro: Campos inválidos, verifique o tipo e quantidade de caracteres",
	StatusConflict:        "Erro: Recurso ja existe",
	StatusInvalidKeys:     "Erro: Chaves faltantes ou invalidas",
	StatusInternalError:   "Erro: Falha interna do servidor",
}

// StatusMessage returns the canonical message for a status code.
func StatusMessage(status string) string {
	if m, ok := statusMessages[status]; ok {
		return m
	}
	return "Erro: Erro desconhecido"
}

// Request is the decoded shape of one inbound line. Only "operacao" is
// always present; the remaining fields depend on the operation.
//
// Token is a pointer so the engine can tell a missing "token" key (422)
// apart from an empty one (401). Usuario is raw because LOGIN sends it as
// a plain string while CRIAR_USUARIO and the password edits send an object.
type Request struct {
	Operacao string           `json:"operacao"`
	Token    *string          `json:"token,omitempty"`
	Usuario  json.RawMessage  `json:"usuario,omitempty"`
	Senha    *string          `json:"senha,omitempty"`
	ID       string           `json:"id,omitempty"`
	IDFilme  string           `json:"id_filme,omitempty"`
	Filme    *MovieDTO        `json:"filme,omitempty"`
	Review   *ReviewUploadDTO `json:"review,omitempty"`
}

// UsuarioString decodes the "usuario" field as the plain string LOGIN sends.
func (r *Request) UsuarioString() (string, bool) {
	var s string
	if err := json.Unmarshal(r.Usuario, &s); err != nil {
		return "", false
	}
	return s, true
}

// UsuarioObject decodes the "usuario" field as the object form used by
// CRIAR_USUARIO and the password-edit operations.
func (r *Request) UsuarioObject() (*UserDTO, bool) {
	var u UserDTO
	if err := json.Unmarshal(r.Usuario, &u); err != nil {
		return nil, false
	}
	return &u, true
}

// Response is one outbound line. Payload fields are set per operation and
// omitted otherwise.
type Response struct {
	Status   string      `json:"status"`
	Mensagem string      `json:"mensagem"`
	Token    string      `json:"token,omitempty"`
	Usuario  string      `json:"usuario,omitempty"`
	Filme    *MovieDTO   `json:"filme,omitempty"`
	Filmes   []MovieDTO  `json:"filmes,omitempty"`
	Reviews  []ReviewDTO `json:"reviews,omitempty"`
	Usuarios []UserDTO   `json:"usuarios,omitempty"`
}

// UserDTO carries a user over the wire. Senha appears only on requests,
// never in responses.
type UserDTO struct {
	ID    string `json:"id,omitempty"`
	Nome  string `json:"nome,omitempty"`
	Senha string `json:"senha,omitempty"`
}

// MovieDTO carries a movie over the wire. Nota and QtdAvaliacoes are
// derived server-side and ignored on requests.
type MovieDTO struct {
	ID            string   `json:"id,omitempty"`
	Titulo        string   `json:"titulo"`
	Diretor       string   `json:"diretor"`
	Ano           string   `json:"ano"`
	Genero        []string `json:"genero"`
	Sinopse       string   `json:"sinopse"`
	Nota          string   `json:"nota,omitempty"`
	QtdAvaliacoes string   `json:"qtd_avaliacoes,omitempty"`
}

// ReviewUploadDTO is the request shape for CRIAR_REVIEW / EDITAR_REVIEW.
type ReviewUploadDTO struct {
	ID        string `json:"id,omitempty"`
	IDFilme   string `json:"id_filme,omitempty"`
	Nota      string `json:"nota"`
	Titulo    string `json:"titulo,omitempty"`
	Descricao string `json:"descricao,omitempty"`
}

// ReviewDTO is the response shape for review listings.
type ReviewDTO struct {
	ID          string `json:"id"`
	IDFilme     string `json:"id_filme"`
	NomeUsuario string `json:"nome_usuario"`
	Nota        string `json:"nota"`
	Titulo      string `json:"titulo"`
	Descricao   string `json:"descricao"`
	Data        string `json:"data"`
	Editado     string `json:"editado"`
}

// Success builds a response with the canonical message for a 2xx status.
func Success(status string) Response {
	return Response{Status: status, Mensagem: StatusMessage(status)}
}

// Error builds a response with the canonical message for an error status.
func Error(status string) Response {
	return Response{Status: status, Mensagem: StatusMessage(status)}
}

// ErrorMessage builds an error response with a custom message.
func ErrorMessage(status, mensagem string) Response {
	return Response{Status: status, Mensagem: mensagem}
}
