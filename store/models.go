// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

package store

// User is an account row. Funcao is "user" or "admin".
type User struct {
	ID     int64
	Nome   string
	Senha  string
	Funcao string
}

// Movie is a catalog row. Nota and QtdAvaliacoes are the derived rating
// aggregate, maintained incrementally with each review mutation.
type Movie struct {
	ID            int64
	Titulo        string
	Diretor       string
	Ano           string
	Generos       []string
	Sinopse       string
	Nota          float64
	QtdAvaliacoes int64
}

// Review is one user's rating of one movie; (IDFilme, IDUsuario) is
// unique. Editing replaces Nota/Titulo/Descricao, refreshes Data and
// sets Editado.
type Review struct {
	ID          int64
	IDFilme     int64
	IDUsuario   int64
	NomeUsuario string
	Nota        int
	Titulo      string
	Descricao   string
	Data        string
	Editado     bool
}
