package ports

import (
	"context"

	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/domain"
)

// --- TRANSPORT TEMPS RÉEL ---

// Connection est le handle abstrait d'un client connecté. L'implémentation
// concrète (WebSocket aujourd'hui) est fournie par l'adapter primaire ;
// le core ne voit jamais gorilla/websocket directement.
type Connection interface {
	UserID() string

	// Push est NON bloquant : si le buffer d'écriture du client est plein,
	// le payload est abandonné et une erreur est renvoyée. Le dispatcher
	// l'avale (best effort), jamais de retry.
	Push(payload []byte) error

	// Close libère la connexion. Idempotent.
	Close()
}

// Notifier est la capacité "envoyer une notification si le destinataire
// est en ligne". Le service d'interactions ne connaît que ça.
type Notifier interface {
	Notify(n domain.Notification)
}

// PresenceSource expose l'état de présence en lecture seule.
type PresenceSource interface {
	Snapshot() []string
}

// --- PERSISTANCE ---

// CommentRepository renvoie des lignes PLATES (ParentID porte la relation) ;
// l'assemblage de l'arbre se fait en mémoire, côté domaine.
type CommentRepository interface {
	Save(ctx context.Context, comment *domain.Comment) error
	FindByID(ctx context.Context, commentID string) (*domain.Comment, error)

	// ListByPost renvoie TOUS les commentaires du post (toutes profondeurs)
	// en une seule requête, triés par date croissante.
	ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error)

	// ListSubtree renvoie le commentaire donné et toute sa descendance.
	ListSubtree(ctx context.Context, commentID string) ([]*domain.Comment, error)

	// Delete supprime le commentaire ET sa descendance (cascade en base).
	Delete(ctx context.Context, commentID string) error
}

// PostReader est le port vers les posts (propriété du post-service).
// Lecture seule : il ne sert qu'à router les notifications vers l'auteur.
type PostReader interface {
	FindRef(ctx context.Context, postID string) (*domain.PostRef, error)
}

// LikeRepository est un set idempotent : Add/Remove réussissent toujours,
// présent ou pas. Deux états possibles par (post, user), rien d'autre.
type LikeRepository interface {
	Add(ctx context.Context, postID, userID string) error
	Remove(ctx context.Context, postID, userID string) error
	Count(ctx context.Context, postID string) (int64, error)
	Contains(ctx context.Context, postID, userID string) (bool, error)
}

// GraphRepository est le port vers le graphe social (Neo4j).
type GraphRepository interface {
	// EnsureSchema crée les contraintes et index (Idempotent)
	EnsureSchema(ctx context.Context) error

	CreateRelation(ctx context.Context, actorID, targetID string) error
	DeleteRelation(ctx context.Context, actorID, targetID string) error
	GetRelationStatus(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error)

	// StreamFollowingIDs renvoie par paquets les IDs que userID suit,
	// via le callback yield (curseur natif côté base, jamais tout en RAM).
	StreamFollowingIDs(ctx context.Context, userID string, batchSize int, yield func([]string) error) error
}

// --- MESSAGERIE (BROKER) ---

// EventPublisher notifie les autres services (feed, analytics) qu'une
// interaction a eu lieu. Best effort côté caller : une publication ratée
// ne fait pas échouer la mutation.
type EventPublisher interface {
	PublishLikeCreated(ctx context.Context, postID, userID string) error
	PublishLikeDeleted(ctx context.Context, postID, userID string) error
	PublishCommentCreated(ctx context.Context, comment *domain.Comment) error
	PublishFollowCreated(ctx context.Context, actorID, targetID string) error
	PublishFollowDeleted(ctx context.Context, actorID, targetID string) error
}

// --- SÉCURITÉ ---

// TokenValidator vérifie le token d'accès émis par l'identity-service et
// renvoie le UserID vérifié. Ce service fait une confiance totale au
// subject du token : c'est le contrat avec Identity.
type TokenValidator interface {
	Validate(token string) (userID string, err error)
}
