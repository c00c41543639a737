package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/domain"
)

// Schéma attendu (migrations gérées hors service) :
//
//	CREATE TABLE comments (
//	    id         UUID PRIMARY KEY,
//	    post_id    UUID NOT NULL,
//	    author_id  UUID NOT NULL,
//	    parent_id  UUID REFERENCES comments(id) ON DELETE CASCADE,
//	    content    TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX comments_post_idx ON comments (post_id, created_at);
//	CREATE INDEX comments_parent_idx ON comments (parent_id);
//
// La table posts appartient au post-service : on ne fait ici que des
// lectures (id, user_id) pour router les notifications.

// sqlComment est le DTO tampon entre la base et le domaine (parent_id NULL).
type sqlComment struct {
	ID        string
	PostID    string
	AuthorID  string
	ParentID  *string
	Content   string
	CreatedAt time.Time
}

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: pool}
}

// --- ports.CommentRepository ---

// Save insère le commentaire. C'est une insertion de SET (ligne identifiée
// par son ID), jamais un read-modify-write d'une liste sérialisée : deux
// réponses concurrentes sur le même parent ne peuvent pas se perdre.
func (r *PostgresRepo) Save(ctx context.Context, comment *domain.Comment) error {
	q := `
		INSERT INTO comments (id, post_id, author_id, parent_id, content, created_at)
		VALUES (@id, @post_id, @author_id, @parent_id, @content, @created_at)
	`

	var parentID any // NULL si top-level
	if comment.ParentID != "" {
		parentID = comment.ParentID
	}

	args := pgx.NamedArgs{
		"id":         comment.ID,
		"post_id":    comment.PostID,
		"author_id":  comment.AuthorID,
		"parent_id":  parentID,
		"content":    comment.Content,
		"created_at": comment.CreatedAt,
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return r.handleError(err)
	}
	return nil
}

func (r *PostgresRepo) FindByID(ctx context.Context, commentID string) (*domain.Comment, error) {
	q := `SELECT id, post_id, author_id, parent_id, content, created_at FROM comments WHERE id = $1`

	var c sqlComment
	err := r.db.QueryRow(ctx, q, commentID).Scan(&c.ID, &c.PostID, &c.AuthorID, &c.ParentID, &c.Content, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("db: find comment: %w", err)
	}

	return toDomain(&c), nil
}

// ListByPost charge TOUT l'arbre du post en une requête (lignes plates,
// l'assemblage se fait en mémoire côté domaine).
func (r *PostgresRepo) ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	q := `
		SELECT id, post_id, author_id, parent_id, content, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, q, postID)
	if err != nil {
		return nil, fmt.Errorf("db: list comments: %w", err)
	}
	defer rows.Close()

	return collectComments(rows)
}

// ListSubtree descend récursivement depuis le commentaire donné (CTE),
// quelle que soit la profondeur. Racine incluse.
func (r *PostgresRepo) ListSubtree(ctx context.Context, commentID string) ([]*domain.Comment, error) {
	q := `
		WITH RECURSIVE thread AS (
			SELECT id, post_id, author_id, parent_id, content, created_at
			FROM comments
			WHERE id = $1
			UNION ALL
			SELECT c.id, c.post_id, c.author_id, c.parent_id, c.content, c.created_at
			FROM comments c
			JOIN thread t ON c.parent_id = t.id
		)
		SELECT id, post_id, author_id, parent_id, content, created_at
		FROM thread
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, q, commentID)
	if err != nil {
		return nil, fmt.Errorf("db: list subtree: %w", err)
	}
	defer rows.Close()

	return collectComments(rows)
}

// Delete supprime le commentaire ; la descendance suit via ON DELETE CASCADE.
func (r *PostgresRepo) Delete(ctx context.Context, commentID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, commentID)
	if err != nil {
		return r.handleError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

// --- ports.PostReader ---

func (r *PostgresRepo) FindRef(ctx context.Context, postID string) (*domain.PostRef, error) {
	q := `SELECT id, user_id FROM posts WHERE id = $1`

	var ref domain.PostRef
	err := r.db.QueryRow(ctx, q, postID).Scan(&ref.ID, &ref.AuthorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("db: find post ref: %w", err)
	}

	return &ref, nil
}

// --- HELPERS ---

func collectComments(rows pgx.Rows) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	for rows.Next() {
		var c sqlComment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.ParentID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db: scan comment: %w", err)
		}
		comments = append(comments, toDomain(&c))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: iterate comments: %w", err)
	}
	return comments, nil
}

// toDomain convertit le DTO SQL en entité Domaine
func toDomain(c *sqlComment) *domain.Comment {
	parentID := ""
	if c.ParentID != nil {
		parentID = *c.ParentID
	}
	return &domain.Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		ParentID:  parentID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

// handleError traduit les codes d'erreur PostgreSQL en erreurs du Domaine
func (r *PostgresRepo) handleError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Code 23503 = Foreign Key Violation : le parent a été supprimé
		// entre le FindByID du service et notre insert
		if pgErr.Code == "23503" {
			return domain.ErrCommentNotFound
		}
	}
	return err
}
