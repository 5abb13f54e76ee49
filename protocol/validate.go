// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"strconv"

	"github.com/mauricegss/VoteFlix/wire"
)

// buildValidationTags precomputes the validator tags derived from the
// configured policy, so per-request validation is a Var call.
func (e *Engine) buildValidationTags() {
	v := e.cfg.Validation
	e.userFieldTag = fmt.Sprintf("required,min=%d,max=%d", v.UserFieldMin, v.UserFieldMax)
}

// validUserField checks a username or password against the configured
// length bounds and charset.
func (e *Engine) validUserField(s string) bool {
	if err := e.validate.Var(s, e.userFieldTag); err != nil {
		return false
	}
	return e.cfg.Validation.UserFieldRegexp().MatchString(s)
}

// validMovie checks the descriptive movie fields: title and director
// required (title bounded), 4-digit year, bounded synopsis, and a
// non-empty genre list drawn from the configured set.
func (e *Engine) validMovie(m *wire.MovieDTO) bool {
	v := e.cfg.Validation
	if err := e.validate.Var(m.Titulo, fmt.Sprintf("required,max=%d", v.MovieTitleMax)); err != nil {
		return false
	}
	if err := e.validate.Var(m.Diretor, "required"); err != nil {
		return false
	}
	if err := e.validate.Var(m.Ano, "required,len=4,number"); err != nil {
		return false
	}
	if err := e.validate.Var(m.Sinopse, fmt.Sprintf("max=%d", v.SynopsisMax)); err != nil {
		return false
	}
	if len(m.Genero) == 0 {
		return false
	}
	for _, g := range m.Genero {
		if !v.GenreAllowed(g) {
			return false
		}
	}
	return true
}

// validReviewFields checks score range and body length.
func (e *Engine) validReviewFields(nota int, descricao string) bool {
	if nota < 1 || nota > 5 {
		return false
	}
	return len([]rune(descricao)) <= e.cfg.Validation.ReviewBodyMax
}

// parseID parses a wire id, which crosses as a JSON string.
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
