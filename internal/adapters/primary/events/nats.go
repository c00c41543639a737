package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/services"
)

// Sujet publié par le chat-service à chaque message persisté
const SubjectMessageSent = "chat.message.sent"

// EventHandler consomme les events NATS des autres services et les relaie
// en temps réel. Le chat-service reste propriétaire du message (persistance,
// historique) ; ici on ne fait que la livraison au destinataire connecté.
type EventHandler struct {
	dispatcher *services.EventDispatcher
}

func NewEventHandler(dispatcher *services.EventDispatcher) *EventHandler {
	return &EventHandler{dispatcher: dispatcher}
}

// Subscribe branche les handlers sur la connexion NATS.
func (h *EventHandler) Subscribe(nc *nats.Conn) error {
	_, err := nc.Subscribe(SubjectMessageSent, h.HandleMessageSent)
	return err
}

// Contract implicite avec le chat-service
type messageSentEvent struct {
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

func (h *EventHandler) HandleMessageSent(msg *nats.Msg) {
	// 1. Extraction du contexte de trace depuis les headers NATS
	// (le TraceID vient du chat-service, on continue la même trace)
	ctx := context.Background()
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(msg.Header))

	tracer := otel.Tracer("realtime-service")
	_, span := tracer.Start(ctx, "relay_chat_message", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	// 2. Décodage
	var event messageSentEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		span.RecordError(err)
		slog.Error("❌ Invalid message event format", "error", err)
		return
	}

	slog.Debug("📨 Relaying chat message", "receiver_id", event.ReceiverID)

	// 3. Livraison best effort : destinataire hors ligne = message jeté,
	// il le retrouvera dans son historique (chat-service) à la reconnexion
	h.dispatcher.Relay(domain.ChatMessage{
		SenderID:   event.SenderID,
		ReceiverID: event.ReceiverID,
		Body:       event.Body,
		CreatedAt:  event.CreatedAt,
	})
}
