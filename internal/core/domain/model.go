package domain

import "time"

// NotificationType correspond au champ "type" envoyé au client.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationDislike NotificationType = "dislike"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
)

// Notification est un objet-valeur éphémère : il n'existe que le temps
// d'une tentative de livraison, il n'est JAMAIS persisté par ce service.
// (L'historique durable, si besoin, appartient à un autre service.)
type Notification struct {
	Type         NotificationType
	ActorID      string // Celui qui fait l'action
	TargetUserID string // Celui qui reçoit la notification
	SubjectID    string // Post, commentaire ou user concerné
	Message      string
}

// PostRef est une vue minimale d'un post (la table appartient au post-service,
// on ne lit ici que ce qu'il faut pour router les notifications).
type PostRef struct {
	ID       string
	AuthorID string
}

// RelationStatus est utilisé pour l'UI (CheckRelation)
type RelationStatus struct {
	IsFollowing  bool // Actor suit Target
	IsFollowedBy bool // Target suit Actor
}

// ChatMessage est relayé depuis le chat-service (via NATS) vers le
// destinataire s'il est connecté. Best effort, comme les notifications.
type ChatMessage struct {
	SenderID   string
	ReceiverID string
	Body       string
	CreatedAt  time.Time
}
