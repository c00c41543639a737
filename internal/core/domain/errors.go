package domain

import "errors"

// --- ERREURS DU DOMAINE ---
// Elles sont remontées telles quelles au caller (pas de retry interne).
// Les adapters traduisent les erreurs techniques (pgx.ErrNoRows, etc.) vers celles-ci.
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrUnauthorized    = errors.New("actor does not own this resource")
	ErrEmptyContent    = errors.New("content cannot be empty")
	ErrSelfFollow      = errors.New("cannot follow yourself")
	ErrMissingID       = errors.New("id cannot be empty")
	ErrInvalidToken    = errors.New("invalid token")
)
