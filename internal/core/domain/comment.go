package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// --- ENTITÉ ---

// Comment est un noeud de l'arbre de commentaires d'un post.
// ParentID vide = commentaire de premier niveau. Le graphe des réponses
// est une forêt : au plus un parent par noeud, profondeur illimitée.
type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	ParentID  string // "" = top-level
	Content   string
	CreatedAt time.Time

	// Replies est peuplé uniquement à la lecture (voir BuildCommentForest).
	// En base, la relation est portée par ParentID, pas par cette liste.
	Replies []*Comment
}

// --- FACTORY ---

// NewComment crée un commentaire valide. C'est le SEUL moyen d'en créer un
// (ID généré ici, invariants vérifiés ici).
func NewComment(postID, authorID, parentID, content string) (*Comment, error) {
	if postID == "" || authorID == "" {
		return nil, ErrMissingID
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	return &Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		AuthorID:  authorID,
		ParentID:  parentID,
		Content:   strings.TrimSpace(content),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// IsTopLevel indique si le commentaire est directement attaché au post.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == ""
}

// --- ARÈNE (ASSEMBLAGE DE L'ARBRE) ---

// BuildCommentForest assemble l'arbre à partir des lignes plates renvoyées
// par le repository (UNE seule requête, pas de round-trip par noeud).
// L'index id -> noeud sert d'arène : le parcours est borné par le nombre
// de lignes, quelle que soit la profondeur.
//
// Ordre : racines du plus récent au plus ancien (affichage), réponses du
// plus ancien au plus récent (fil de discussion).
// Un noeud dont le parent est absent du lot est traité comme une racine
// (cas d'un sous-arbre chargé seul, ou d'un parent supprimé entre-temps).
func BuildCommentForest(rows []*Comment) []*Comment {
	arena := make(map[string]*Comment, len(rows))
	for _, c := range rows {
		c.Replies = nil // On repart d'une liste propre si les lignes sont réutilisées
		arena[c.ID] = c
	}

	var roots []*Comment
	for _, c := range rows {
		if c.ParentID == "" {
			roots = append(roots, c)
			continue
		}
		parent, ok := arena[c.ParentID]
		if !ok {
			roots = append(roots, c)
			continue
		}
		parent.Replies = append(parent.Replies, c)
	}

	sort.Slice(roots, func(i, j int) bool {
		if !roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
			return roots[i].CreatedAt.After(roots[j].CreatedAt)
		}
		return roots[i].ID > roots[j].ID
	})
	for _, c := range arena {
		sortReplies(c.Replies)
	}

	return roots
}

func sortReplies(replies []*Comment) {
	sort.Slice(replies, func(i, j int) bool {
		if !replies[i].CreatedAt.Equal(replies[j].CreatedAt) {
			return replies[i].CreatedAt.Before(replies[j].CreatedAt)
		}
		return replies[i].ID < replies[j].ID
	})
}
