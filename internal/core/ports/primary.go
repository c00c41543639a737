package ports

import (
	"context"

	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/domain"
)

// --- INPUTS (Command Pattern) ---
// Des structs plutôt que des listes d'arguments : on pourra ajouter des
// champs optionnels plus tard sans casser la signature.

type CommentCmd struct {
	PostID   string
	AuthorID string
	Content  string
}

type ReplyCmd struct {
	ParentID string // Commentaire auquel on répond
	AuthorID string
	Content  string
}

// --- PORT PRIMAIRE (Driving) ---
// C'est l'API que l'hexagone expose au monde extérieur (WebSocket, NATS).

type InteractionService interface {
	// Likes (set idempotent : liker deux fois = liker une fois)
	Like(ctx context.Context, postID, userID string) error
	Dislike(ctx context.Context, postID, userID string) error
	LikeCount(ctx context.Context, postID string) (int64, error)
	HasLiked(ctx context.Context, postID, userID string) (bool, error)

	// Arbre de commentaires
	AddComment(ctx context.Context, cmd CommentCmd) (*domain.Comment, error)
	AddReply(ctx context.Context, cmd ReplyCmd) (*domain.Comment, error)
	ListComments(ctx context.Context, postID string) ([]*domain.Comment, error)
	ListReplies(ctx context.Context, commentID string) ([]*domain.Comment, error)
	DeleteComment(ctx context.Context, commentID, actorID string) error

	// Graphe social
	Follow(ctx context.Context, actorID, targetID string) error
	Unfollow(ctx context.Context, actorID, targetID string) error
	// ToggleFollow relit l'état courant avant de décider. Deux toggles
	// concurrents partant du même état peuvent appliquer la même
	// transition : race acceptée et documentée, les deux branches sont
	// idempotentes.
	ToggleFollow(ctx context.Context, actorID, targetID string) (nowFollowing bool, err error)
	CheckRelation(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error)

	// OnlineFollowing renvoie, parmi les comptes que userID suit, ceux
	// actuellement connectés (sidebar "amis en ligne").
	OnlineFollowing(ctx context.Context, userID string) ([]string, error)
}
