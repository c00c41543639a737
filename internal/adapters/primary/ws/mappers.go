package ws

import (
	"time"

	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/domain"
)

// --- PAYLOADS SORTANTS (contrat wire, camelCase) ---

type commentPayload struct {
	ID        string           `json:"id"`
	PostID    string           `json:"postId"`
	AuthorID  string           `json:"authorId"`
	ParentID  string           `json:"parentId,omitempty"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"createdAt"`
	Replies   []commentPayload `json:"replies"`
}

type commentListPayload struct {
	PostID   string           `json:"postId"`
	Comments []commentPayload `json:"comments"`
}

type replyListPayload struct {
	CommentID string           `json:"commentId"`
	Replies   []commentPayload `json:"replies"`
}

type followStatePayload struct {
	TargetID  string `json:"targetId"`
	Following bool   `json:"following"`
}

type relationPayload struct {
	TargetID     string `json:"targetId"`
	IsFollowing  bool   `json:"isFollowing"`
	IsFollowedBy bool   `json:"isFollowedBy"`
}

type onlineFollowingPayload struct {
	UserIDs []string `json:"userIds"`
}

type errorPayload struct {
	Action  string `json:"action,omitempty"`
	Message string `json:"message"`
}

// toCommentPayload convertit récursivement un sous-arbre domaine en
// payload wire. La profondeur est celle de l'arbre, bornée par le nombre
// de commentaires du post (déjà chargés, pas de requête ici).
func toCommentPayload(c *domain.Comment) commentPayload {
	return commentPayload{
		ID:        c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		ParentID:  c.ParentID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		Replies:   toCommentPayloads(c.Replies),
	}
}

func toCommentPayloads(comments []*domain.Comment) []commentPayload {
	payloads := make([]commentPayload, 0, len(comments))
	for _, c := range comments {
		payloads = append(payloads, toCommentPayload(c))
	}
	return payloads
}
