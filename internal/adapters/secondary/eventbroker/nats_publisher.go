package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/domain"
)

const (
	StreamName     = "INTERACTION"
	SubjectPattern = "interaction.>" // Tous les events interaction.*
)

// NatsBroker publie les events d'interaction sur JetStream pour les
// consommateurs en aval (feed-service pour ses compteurs, analytics).
// Contrairement aux notifications temps réel (volatiles par contrat),
// CES events-là sont persistés par le broker : un consumer down les
// rattrapera.
type NatsBroker struct {
	js jetstream.JetStream
}

// NewNatsBroker s'assure que le Stream existe (Idempotent).
func NewNatsBroker(nc *nats.Conn) (*NatsBroker, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectPattern},
		Storage:  jetstream.FileStorage, // Persistance sur disque
		Replicas: 1,                     // Mettre 3 en cluster
	})
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &NatsBroker{js: js}, nil
}

// --- PAYLOADS (contract implicite avec feed-service / analytics) ---

type likeEvent struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type commentEvent struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type followEvent struct {
	ActorID   string    `json:"actor_id"`
	TargetID  string    `json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
}

// --- ports.EventPublisher ---

func (n *NatsBroker) PublishLikeCreated(ctx context.Context, postID, userID string) error {
	return n.publish(ctx, "interaction.like.created", likeEvent{
		PostID: postID, UserID: userID, CreatedAt: time.Now().UTC(),
	})
}

func (n *NatsBroker) PublishLikeDeleted(ctx context.Context, postID, userID string) error {
	return n.publish(ctx, "interaction.like.deleted", likeEvent{
		PostID: postID, UserID: userID, CreatedAt: time.Now().UTC(),
	})
}

func (n *NatsBroker) PublishCommentCreated(ctx context.Context, comment *domain.Comment) error {
	return n.publish(ctx, "interaction.comment.created", commentEvent{
		ID:        comment.ID,
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID,
		ParentID:  comment.ParentID,
		CreatedAt: comment.CreatedAt,
	})
}

func (n *NatsBroker) PublishFollowCreated(ctx context.Context, actorID, targetID string) error {
	return n.publish(ctx, "interaction.follow.created", followEvent{
		ActorID: actorID, TargetID: targetID, CreatedAt: time.Now().UTC(),
	})
}

func (n *NatsBroker) PublishFollowDeleted(ctx context.Context, actorID, targetID string) error {
	return n.publish(ctx, "interaction.follow.deleted", followEvent{
		ActorID: actorID, TargetID: targetID, CreatedAt: time.Now().UTC(),
	})
}

func (n *NatsBroker) publish(ctx context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	// Injection du TraceID dans les headers NATS : le consumer continuera
	// la trace démarrée par l'action websocket
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	if _, err := n.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}
