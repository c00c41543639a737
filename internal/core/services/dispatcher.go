package services

import (
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/domain"
)

// --- CONTRAT WIRE (enveloppes JSON envoyées au client) ---
// Champs en camelCase : c'est ce que le front attend, ne pas toucher.

type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type NotificationPayload struct {
	Type         string `json:"type"`
	ActorID      string `json:"actorId"`
	TargetUserID string `json:"targetUserId"`
	SubjectID    string `json:"subjectId"`
	Message      string `json:"message"`
}

type PresencePayload struct {
	OnlineUserIDs []string `json:"onlineUserIds"`
}

type MessagePayload struct {
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

// EventDispatcher pousse les événements typés vers les clients connectés.
// Livraison best effort, point final : pas de queue, pas de retry, pas de
// dead-letter. Un destinataire hors ligne = événement jeté en silence.
// Les notifications sont une commodité de présence, pas un feed durable.
type EventDispatcher struct {
	registry *ConnectionRegistry
}

func NewEventDispatcher(registry *ConnectionRegistry) *EventDispatcher {
	return &EventDispatcher{registry: registry}
}

// Notify tente de livrer la notification à son destinataire.
// Les appels successifs depuis une même goroutine pour un même destinataire
// partent dans l'ordre (le handle sérialise ses écritures) ; aucune garantie
// entre destinataires différents.
func (d *EventDispatcher) Notify(n domain.Notification) {
	conn, ok := d.registry.Lookup(n.TargetUserID)
	if !ok {
		// Pas une erreur : le destinataire verra l'état à jour en se reconnectant.
		slog.Debug("Notification dropped, target offline", "target_id", n.TargetUserID, "type", n.Type)
		return
	}

	payload, err := json.Marshal(Envelope{
		Event: "notification",
		Data: NotificationPayload{
			Type:         string(n.Type),
			ActorID:      n.ActorID,
			TargetUserID: n.TargetUserID,
			SubjectID:    n.SubjectID,
			Message:      n.Message,
		},
	})
	if err != nil {
		slog.Error("Failed to marshal notification", "error", err)
		return
	}

	if err := conn.Push(payload); err != nil {
		// Buffer plein ou connexion en train de mourir : on jette, par contrat.
		slog.Debug("Notification push failed", "target_id", n.TargetUserID, "error", err)
	}
}

// BroadcastPresence pousse le snapshot complet des users en ligne à TOUS
// les clients connectés. Appelé à chaque connect/disconnect.
func (d *EventDispatcher) BroadcastPresence() {
	online := d.registry.Snapshot()
	sort.Strings(online) // Ordre stable : évite les re-renders inutiles côté front

	payload, err := json.Marshal(Envelope{
		Event: "presence",
		Data:  PresencePayload{OnlineUserIDs: online},
	})
	if err != nil {
		slog.Error("Failed to marshal presence snapshot", "error", err)
		return
	}

	for _, userID := range online {
		conn, ok := d.registry.Lookup(userID)
		if !ok {
			continue // Déconnecté entre le snapshot et le push, tant pis
		}
		if err := conn.Push(payload); err != nil {
			slog.Debug("Presence push failed", "user_id", userID, "error", err)
		}
	}
}

// Relay transmet un message de chat à son destinataire s'il est en ligne.
// Le chat-service reste propriétaire de la persistance du message ; ici on
// ne fait que la livraison temps réel, via le même registre.
func (d *EventDispatcher) Relay(msg domain.ChatMessage) {
	conn, ok := d.registry.Lookup(msg.ReceiverID)
	if !ok {
		slog.Debug("Message dropped, receiver offline", "receiver_id", msg.ReceiverID)
		return
	}

	payload, err := json.Marshal(Envelope{
		Event: "message",
		Data: MessagePayload{
			SenderID:   msg.SenderID,
			ReceiverID: msg.ReceiverID,
			Body:       msg.Body,
			CreatedAt:  msg.CreatedAt,
		},
	})
	if err != nil {
		slog.Error("Failed to marshal chat message", "error", err)
		return
	}

	if err := conn.Push(payload); err != nil {
		slog.Debug("Message push failed", "receiver_id", msg.ReceiverID, "error", err)
	}
}
