package services

import (
	"context"
	"fmt"

	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/ports"
)

// Taille des paquets pour le streaming du graphe (OnlineFollowing)
const followingBatchSize = 500

// InteractionService implémente ports.InteractionService (Primary Port).
// Règle de séquencement commune à toutes les opérations :
//  1. Mutation de l'agrégat (store externe) — seule source d'échec remontée
//  2. Notification temps réel (best effort, avalée)
//  3. Publication broker (best effort, avalée)
//
// La mutation et la notification ne forment PAS une unité atomique : si le
// store échoue, rien n'est notifié ; l'inverse (notification partie pour
// une mutation non persistée) ne peut pas arriver car la notification vient
// toujours APRÈS le retour du store.
type InteractionService struct {
	comments ports.CommentRepository
	posts    ports.PostReader
	likes    ports.LikeRepository
	graph    ports.GraphRepository
	notifier ports.Notifier
	events   ports.EventPublisher
	presence ports.PresenceSource
}

func NewInteractionService(
	comments ports.CommentRepository,
	posts ports.PostReader,
	likes ports.LikeRepository,
	graph ports.GraphRepository,
	notifier ports.Notifier,
	events ports.EventPublisher,
	presence ports.PresenceSource,
) *InteractionService {
	return &InteractionService{
		comments: comments,
		posts:    posts,
		likes:    likes,
		graph:    graph,
		notifier: notifier,
		events:   events,
		presence: presence,
	}
}

// --- LIKES ---

func (s *InteractionService) Like(ctx context.Context, postID, userID string) error {
	if postID == "" || userID == "" {
		return domain.ErrMissingID
	}

	// 1. Le post doit exister (et on a besoin de l'auteur pour notifier)
	post, err := s.posts.FindRef(ctx, postID)
	if err != nil {
		return err
	}

	// 2. Ajout idempotent : liker deux fois laisse le set inchangé
	if err := s.likes.Add(ctx, postID, userID); err != nil {
		return fmt.Errorf("like add failed: %w", err)
	}

	// 3. Notification à l'auteur (supprimée si on like son propre post)
	if userID != post.AuthorID {
		s.notifier.Notify(domain.Notification{
			Type:         domain.NotificationLike,
			ActorID:      userID,
			TargetUserID: post.AuthorID,
			SubjectID:    post.ID,
			Message:      "Someone liked your post",
		})
	}

	// 4. Event broker (le feed-service s'en sert pour ses compteurs)
	_ = s.events.PublishLikeCreated(ctx, postID, userID)

	return nil
}

// Dislike retire le like. Toujours un succès, même si le user n'avait
// jamais liké le post — et dans ce cas l'auteur reçoit quand même la
// notification "dislike" : comportement historique conservé tel quel,
// le front s'y attend.
func (s *InteractionService) Dislike(ctx context.Context, postID, userID string) error {
	if postID == "" || userID == "" {
		return domain.ErrMissingID
	}

	post, err := s.posts.FindRef(ctx, postID)
	if err != nil {
		return err
	}

	if err := s.likes.Remove(ctx, postID, userID); err != nil {
		return fmt.Errorf("like remove failed: %w", err)
	}

	if userID != post.AuthorID {
		s.notifier.Notify(domain.Notification{
			Type:         domain.NotificationDislike,
			ActorID:      userID,
			TargetUserID: post.AuthorID,
			SubjectID:    post.ID,
			Message:      "Someone removed their like from your post",
		})
	}

	_ = s.events.PublishLikeDeleted(ctx, postID, userID)

	return nil
}

func (s *InteractionService) LikeCount(ctx context.Context, postID string) (int64, error) {
	return s.likes.Count(ctx, postID)
}

func (s *InteractionService) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	return s.likes.Contains(ctx, postID, userID)
}

// --- COMMENTAIRES ---

func (s *InteractionService) AddComment(ctx context.Context, cmd ports.CommentCmd) (*domain.Comment, error) {
	// 1. Le post doit exister
	post, err := s.posts.FindRef(ctx, cmd.PostID)
	if err != nil {
		return nil, err
	}

	// 2. Création via la factory du domaine (validation des invariants)
	comment, err := domain.NewComment(cmd.PostID, cmd.AuthorID, "", cmd.Content)
	if err != nil {
		return nil, err
	}

	// 3. Persistance — l'insert par ID est une insertion de set, jamais un
	// read-modify-write d'une liste : deux commentaires concurrents ne
	// peuvent pas s'écraser.
	if err := s.comments.Save(ctx, comment); err != nil {
		return nil, fmt.Errorf("comment save failed: %w", err)
	}

	// 4. Notification à l'auteur du post (sauf auto-commentaire)
	if comment.AuthorID != post.AuthorID {
		s.notifier.Notify(domain.Notification{
			Type:         domain.NotificationComment,
			ActorID:      comment.AuthorID,
			TargetUserID: post.AuthorID,
			SubjectID:    post.ID,
			Message:      "Someone commented on your post",
		})
	}

	_ = s.events.PublishCommentCreated(ctx, comment)

	return comment, nil
}

func (s *InteractionService) AddReply(ctx context.Context, cmd ports.ReplyCmd) (*domain.Comment, error) {
	// 1. Le parent doit exister (ErrCommentNotFound sinon)
	parent, err := s.comments.FindByID(ctx, cmd.ParentID)
	if err != nil {
		return nil, err
	}

	// 2. La réponse hérite du post de son parent : l'arbre reste une forêt
	// (un seul parent, pas de cycle — le parent existe déjà, donc la
	// nouvelle feuille ne peut pas être son propre ancêtre)
	reply, err := domain.NewComment(parent.PostID, cmd.AuthorID, parent.ID, cmd.Content)
	if err != nil {
		return nil, err
	}

	if err := s.comments.Save(ctx, reply); err != nil {
		return nil, fmt.Errorf("reply save failed: %w", err)
	}

	// 3. On notifie l'auteur du commentaire parent, PAS celui du post
	// (sauf si on se répond à soi-même)
	if reply.AuthorID != parent.AuthorID {
		s.notifier.Notify(domain.Notification{
			Type:         domain.NotificationComment,
			ActorID:      reply.AuthorID,
			TargetUserID: parent.AuthorID,
			SubjectID:    parent.ID,
			Message:      "Someone replied to your comment",
		})
	}

	_ = s.events.PublishCommentCreated(ctx, reply)

	return reply, nil
}

// ListComments renvoie les commentaires de premier niveau du post, du plus
// récent au plus ancien, chacun avec son sous-arbre de réponses complet
// (profondeur illimitée). Une seule requête, assemblage en mémoire.
func (s *InteractionService) ListComments(ctx context.Context, postID string) ([]*domain.Comment, error) {
	if _, err := s.posts.FindRef(ctx, postID); err != nil {
		return nil, err
	}

	rows, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments failed: %w", err)
	}

	return domain.BuildCommentForest(rows), nil
}

// ListReplies renvoie les réponses (directes et imbriquées) d'un seul
// commentaire, même règle de peuplement récursif.
func (s *InteractionService) ListReplies(ctx context.Context, commentID string) ([]*domain.Comment, error) {
	rows, err := s.comments.ListSubtree(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("list replies failed: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrCommentNotFound
	}

	// La racine du sous-arbre a un ParentID hors du lot : BuildCommentForest
	// la traite comme racine, on renvoie ses réponses.
	for _, root := range domain.BuildCommentForest(rows) {
		if root.ID == commentID {
			return root.Replies, nil
		}
	}
	return nil, domain.ErrCommentNotFound
}

func (s *InteractionService) DeleteComment(ctx context.Context, commentID, actorID string) error {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return err
	}

	// Seul l'auteur peut supprimer (la modération passera par un autre canal)
	if comment.AuthorID != actorID {
		return domain.ErrUnauthorized
	}

	// La descendance part avec (cascade en base)
	return s.comments.Delete(ctx, commentID)
}

// --- GRAPHE SOCIAL ---

func (s *InteractionService) Follow(ctx context.Context, actorID, targetID string) error {
	if actorID == "" || targetID == "" {
		return domain.ErrMissingID
	}
	if actorID == targetID {
		return domain.ErrSelfFollow
	}

	// 1. Déjà abonné ? No-op, et surtout pas de deuxième notification.
	status, err := s.graph.GetRelationStatus(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if status.IsFollowing {
		return nil
	}

	// 2. L'arête FOLLOWS est la source de vérité unique : une seule
	// écriture idempotente, les deux "sens" (followers/following) sont
	// la même arête lue dans les deux directions.
	if err := s.graph.CreateRelation(ctx, actorID, targetID); err != nil {
		return fmt.Errorf("follow failed: %w", err)
	}

	// 3. Notification au suivi
	s.notifier.Notify(domain.Notification{
		Type:         domain.NotificationFollow,
		ActorID:      actorID,
		TargetUserID: targetID,
		SubjectID:    actorID,
		Message:      "You have a new follower",
	})

	_ = s.events.PublishFollowCreated(ctx, actorID, targetID)

	return nil
}

func (s *InteractionService) Unfollow(ctx context.Context, actorID, targetID string) error {
	if actorID == "" || targetID == "" {
		return domain.ErrMissingID
	}

	// Idempotent : supprimer une arête absente est un no-op côté base
	if err := s.graph.DeleteRelation(ctx, actorID, targetID); err != nil {
		return fmt.Errorf("unfollow failed: %w", err)
	}

	_ = s.events.PublishFollowDeleted(ctx, actorID, targetID)

	return nil
}

// ToggleFollow est l'opération réellement branchée sur le bouton du front.
// Elle RELIT l'état courant avant de décider : deux toggles en vol partis
// du même état périmé peuvent appliquer deux fois la même transition, mais
// comme Follow et Unfollow sont idempotents, la race dégénère en no-op.
// Fenêtre acceptée et documentée, pas une opération garantie sans race.
func (s *InteractionService) ToggleFollow(ctx context.Context, actorID, targetID string) (bool, error) {
	if actorID == "" || targetID == "" {
		return false, domain.ErrMissingID
	}
	if actorID == targetID {
		return false, domain.ErrSelfFollow
	}

	status, err := s.graph.GetRelationStatus(ctx, actorID, targetID)
	if err != nil {
		return false, err
	}

	if status.IsFollowing {
		return false, s.Unfollow(ctx, actorID, targetID)
	}
	return true, s.Follow(ctx, actorID, targetID)
}

func (s *InteractionService) CheckRelation(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error) {
	return s.graph.GetRelationStatus(ctx, actorID, targetID)
}

// OnlineFollowing croise le graphe avec le registre de présence : parmi
// les comptes suivis, lesquels sont connectés maintenant.
func (s *InteractionService) OnlineFollowing(ctx context.Context, userID string) ([]string, error) {
	online := make(map[string]bool)
	for _, id := range s.presence.Snapshot() {
		online[id] = true
	}

	var result []string
	err := s.graph.StreamFollowingIDs(ctx, userID, followingBatchSize, func(ids []string) error {
		for _, id := range ids {
			if online[id] {
				result = append(result, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("online following failed: %w", err)
	}

	return result, nil
}
