// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"sync"
	"time"

	"github.com/mauricegss/VoteFlix/store"
)

// memStore is an in-memory stand-in for the pgx store, mirroring its
// contract: sentinel errors, (movie,user) review uniqueness, cascade
// delete with aggregate reconciliation, incremental aggregate updates.
type memStore struct {
	mu         sync.Mutex
	users      map[int64]*store.User
	movies     map[int64]*store.Movie
	reviews    map[int64]*store.Review
	nextUser   int64
	nextMovie  int64
	nextReview int64
}

func newMemStore() *memStore {
	m := &memStore{
		users:   make(map[int64]*store.User),
		movies:  make(map[int64]*store.Movie),
		reviews: make(map[int64]*store.Review),
	}
	// Seeded admin account, as the schema init does.
	m.users[1] = &store.User{ID: 1, Nome: "admin", Senha: "admin", Funcao: "admin"}
	m.nextUser = 1
	return m
}

func (m *memStore) CreateUser(_ context.Context, nome, senha string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Nome == nome {
			return 0, store.ErrDuplicate
		}
	}
	m.nextUser++
	id := m.nextUser
	m.users[id] = &store.User{ID: id, Nome: nome, Senha: senha, Funcao: "user"}
	return id, nil
}

func (m *memStore) UserByName(_ context.Context, nome string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Nome == nome {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UserByID(_ context.Context, id int64) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) UpdatePassword(_ context.Context, id int64, senha string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Senha = senha
	return nil
}

func (m *memStore) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.users, id)

	affected := make(map[int64]bool)
	for rid, r := range m.reviews {
		if r.IDUsuario == id {
			affected[r.IDFilme] = true
			delete(m.reviews, rid)
		}
	}
	for movieID := range affected {
		m.recomputeLocked(movieID)
	}
	return nil
}

func (m *memStore) ListUsers(_ context.Context) ([]store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memStore) CreateMovie(_ context.Context, movie *store.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.movies {
		if existing.Titulo == movie.Titulo && existing.Diretor == movie.Diretor && existing.Ano == movie.Ano {
			return store.ErrDuplicate
		}
	}
	m.nextMovie++
	movie.ID = m.nextMovie
	cp := *movie
	m.movies[movie.ID] = &cp
	return nil
}

func (m *memStore) UpdateMovie(_ context.Context, movie *store.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.movies[movie.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.Titulo = movie.Titulo
	existing.Diretor = movie.Diretor
	existing.Ano = movie.Ano
	existing.Generos = movie.Generos
	existing.Sinopse = movie.Sinopse
	return nil
}

func (m *memStore) DeleteMovie(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.movies[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.movies, id)
	for rid, r := range m.reviews {
		if r.IDFilme == id {
			delete(m.reviews, rid)
		}
	}
	return nil
}

func (m *memStore) MovieByID(_ context.Context, id int64) (*store.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	movie, ok := m.movies[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *movie
	return &cp, nil
}

func (m *memStore) ListMovies(_ context.Context) ([]store.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.Movie, 0, len(m.movies))
	for _, movie := range m.movies {
		out = append(out, *movie)
	}
	return out, nil
}

func (m *memStore) CreateReview(_ context.Context, r *store.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	movie, ok := m.movies[r.IDFilme]
	if !ok {
		return store.ErrMovieMissing
	}
	for _, existing := range m.reviews {
		if existing.IDFilme == r.IDFilme && existing.IDUsuario == r.IDUsuario {
			return store.ErrDuplicate
		}
	}
	m.nextReview++
	r.ID = m.nextReview
	r.Data = time.Now().Format("02/01/2006")
	r.Editado = false
	cp := *r
	m.reviews[r.ID] = &cp

	sum := movie.Nota*float64(movie.QtdAvaliacoes) + float64(r.Nota)
	movie.QtdAvaliacoes++
	movie.Nota = sum / float64(movie.QtdAvaliacoes)
	return nil
}

func (m *memStore) UpdateReview(_ context.Context, reviewID, userID int64, nota int, titulo, descricao string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[reviewID]
	if !ok || r.IDUsuario != userID {
		return store.ErrNotFound
	}
	if nota != r.Nota {
		movie := m.movies[r.IDFilme]
		sum := movie.Nota*float64(movie.QtdAvaliacoes) + float64(nota-r.Nota)
		movie.Nota = sum / float64(movie.QtdAvaliacoes)
	}
	r.Nota = nota
	r.Titulo = titulo
	r.Descricao = descricao
	r.Editado = true
	return nil
}

func (m *memStore) DeleteReview(_ context.Context, reviewID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[reviewID]
	if !ok || r.IDUsuario != userID {
		return store.ErrNotFound
	}
	return m.deleteReviewLocked(r)
}

func (m *memStore) DeleteReviewAsAdmin(_ context.Context, reviewID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[reviewID]
	if !ok {
		return store.ErrNotFound
	}
	return m.deleteReviewLocked(r)
}

func (m *memStore) deleteReviewLocked(r *store.Review) error {
	delete(m.reviews, r.ID)
	movie := m.movies[r.IDFilme]
	sum := movie.Nota*float64(movie.QtdAvaliacoes) - float64(r.Nota)
	movie.QtdAvaliacoes--
	if movie.QtdAvaliacoes <= 0 {
		movie.QtdAvaliacoes = 0
		movie.Nota = 0
	} else {
		movie.Nota = sum / float64(movie.QtdAvaliacoes)
	}
	return nil
}

func (m *memStore) ReviewsByMovie(_ context.Context, movieID int64) ([]store.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Review
	for _, r := range m.reviews {
		if r.IDFilme == movieID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) ReviewsByUser(_ context.Context, userID int64) ([]store.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Review
	for _, r := range m.reviews {
		if r.IDUsuario == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// recomputeLocked is the full re-derivation, mirroring the store's
// reconciliation path.
func (m *memStore) recomputeLocked(movieID int64) {
	movie, ok := m.movies[movieID]
	if !ok {
		return
	}
	var sum float64
	var count int64
	for _, r := range m.reviews {
		if r.IDFilme == movieID {
			sum += float64(r.Nota)
			count++
		}
	}
	movie.QtdAvaliacoes = count
	if count == 0 {
		movie.Nota = 0
	} else {
		movie.Nota = sum / float64(count)
	}
}
