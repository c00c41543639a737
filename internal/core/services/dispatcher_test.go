package services

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/domain"
)

func decodeEnvelope(t *testing.T, payload []byte) (string, map[string]any) {
	t.Helper()
	var raw struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("Invalid envelope json: %v", err)
	}
	return raw.Event, raw.Data
}

func TestNotifyDeliversToConnectedTarget(t *testing.T) {
	registry := NewConnectionRegistry()
	dispatcher := NewEventDispatcher(registry)

	bob := newSpyConn("bob")
	registry.Register(bob)

	dispatcher.Notify(domain.Notification{
		Type:         domain.NotificationFollow,
		ActorID:      "alice",
		TargetUserID: "bob",
		SubjectID:    "alice",
		Message:      "You have a new follower",
	})

	payloads := bob.payloads()
	if len(payloads) != 1 {
		t.Fatalf("Expected 1 delivery, got %d", len(payloads))
	}

	event, data := decodeEnvelope(t, payloads[0])
	if event != "notification" {
		t.Errorf("Expected event notification, got %s", event)
	}
	// Contrat wire : champs camelCase
	if data["type"] != "follow" || data["actorId"] != "alice" || data["targetUserId"] != "bob" || data["subjectId"] != "alice" {
		t.Errorf("Unexpected payload: %v", data)
	}
}

func TestNotifyOfflineTargetIsSilentNoop(t *testing.T) {
	registry := NewConnectionRegistry()
	dispatcher := NewEventDispatcher(registry)

	alice := newSpyConn("alice")
	registry.Register(alice)

	// bob n'est pas connecté : aucun effet observable, nulle part
	dispatcher.Notify(domain.Notification{
		Type:         domain.NotificationLike,
		ActorID:      "alice",
		TargetUserID: "bob",
	})

	if len(alice.payloads()) != 0 {
		t.Error("Nobody should receive a notification addressed to an offline user")
	}
}

func TestNotifyPreservesOrderPerTarget(t *testing.T) {
	registry := NewConnectionRegistry()
	dispatcher := NewEventDispatcher(registry)

	bob := newSpyConn("bob")
	registry.Register(bob)

	for i := 0; i < 10; i++ {
		dispatcher.Notify(domain.Notification{
			Type:         domain.NotificationComment,
			ActorID:      "alice",
			TargetUserID: "bob",
			SubjectID:    fmt.Sprintf("comment-%d", i),
		})
	}

	payloads := bob.payloads()
	if len(payloads) != 10 {
		t.Fatalf("Expected 10 deliveries, got %d", len(payloads))
	}
	for i, p := range payloads {
		_, data := decodeEnvelope(t, p)
		if data["subjectId"] != fmt.Sprintf("comment-%d", i) {
			t.Fatalf("Delivery %d out of order: %v", i, data["subjectId"])
		}
	}
}

func TestNotifyFullBufferIsSwallowed(t *testing.T) {
	registry := NewConnectionRegistry()
	dispatcher := NewEventDispatcher(registry)

	bob := newSpyConn("bob")
	bob.full = true
	registry.Register(bob)

	// Ne doit ni paniquer ni bloquer : best effort
	dispatcher.Notify(domain.Notification{
		Type:         domain.NotificationLike,
		ActorID:      "alice",
		TargetUserID: "bob",
	})

	if len(bob.payloads()) != 0 {
		t.Error("Full buffer should drop the payload")
	}
}

func TestBroadcastPresenceReachesEveryone(t *testing.T) {
	registry := NewConnectionRegistry()
	dispatcher := NewEventDispatcher(registry)

	alice := newSpyConn("alice")
	bob := newSpyConn("bob")
	registry.Register(alice)
	registry.Register(bob)

	dispatcher.BroadcastPresence()

	for _, conn := range []*spyConn{alice, bob} {
		payloads := conn.payloads()
		if len(payloads) != 1 {
			t.Fatalf("Expected presence for %s, got %d payloads", conn.userID, len(payloads))
		}
		event, data := decodeEnvelope(t, payloads[0])
		if event != "presence" {
			t.Errorf("Expected presence event, got %s", event)
		}
		ids, ok := data["onlineUserIds"].([]any)
		if !ok || len(ids) != 2 {
			t.Fatalf("Expected 2 online users, got %v", data["onlineUserIds"])
		}
		if ids[0] != "alice" || ids[1] != "bob" {
			t.Errorf("Expected sorted [alice bob], got %v", ids)
		}
	}
}

func TestRelayChatMessage(t *testing.T) {
	registry := NewConnectionRegistry()
	dispatcher := NewEventDispatcher(registry)

	bob := newSpyConn("bob")
	registry.Register(bob)

	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dispatcher.Relay(domain.ChatMessage{
		SenderID:   "alice",
		ReceiverID: "bob",
		Body:       "salut",
		CreatedAt:  createdAt,
	})

	payloads := bob.payloads()
	if len(payloads) != 1 {
		t.Fatalf("Expected 1 relayed message, got %d", len(payloads))
	}
	event, data := decodeEnvelope(t, payloads[0])
	if event != "message" {
		t.Errorf("Expected message event, got %s", event)
	}
	if data["senderId"] != "alice" || data["receiverId"] != "bob" || data["body"] != "salut" {
		t.Errorf("Unexpected message payload: %v", data)
	}

	// Destinataire hors ligne : silence
	dispatcher.Relay(domain.ChatMessage{SenderID: "alice", ReceiverID: "nobody", Body: "echo"})
	if len(bob.payloads()) != 1 {
		t.Error("Message for someone else must not reach bob")
	}
}
