package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/services"
)

// Budget par action client (le transport n'a pas d'autre couche de timeout)
const actionTimeout = 10 * time.Second

// Handler est l'adapter primaire WebSocket : il authentifie la connexion,
// l'enregistre dans le registre de présence, et traduit les actions JSON
// du client en appels au port InteractionService.
type Handler struct {
	registry     *services.ConnectionRegistry
	dispatcher   *services.EventDispatcher
	interactions ports.InteractionService
	tokens       ports.TokenValidator
	upgrader     websocket.Upgrader
}

func NewHandler(
	registry *services.ConnectionRegistry,
	dispatcher *services.EventDispatcher,
	interactions ports.InteractionService,
	tokens ports.TokenValidator,
) *Handler {
	return &Handler{
		registry:     registry,
		dispatcher:   dispatcher,
		interactions: interactions,
		tokens:       tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Le CORS est géré par la gateway ; ici on accepte l'origine
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. Authentification AVANT l'upgrade. Header Bearer quand le client
	// peut le poser, query param sinon (les websockets navigateur ne
	// permettent pas de headers custom).
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, err := h.tokens.Validate(token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	// 2. Upgrade HTTP -> WebSocket
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}

	// 3. Enregistrement présence. Une nouvelle connexion écrase
	// silencieusement l'ancienne (deuxième onglet, reconnexion) : on ferme
	// le handle remplacé, sinon sa goroutine d'écriture fuirait.
	client := newClient(userID, conn)
	if previous := h.registry.Register(client); previous != nil {
		previous.Close()
	}
	go client.writePump()

	slog.Info("🔌 Client connected", "user_id", userID)
	h.dispatcher.BroadcastPresence()

	// 4. Boucle de lecture (bloquante). Au retour : déconnexion.
	h.readLoop(r.Context(), client)

	// Unregister est gardé contre les déconnexions périmées : si une
	// nouvelle connexion a déjà écrasé le mapping, c'est un no-op.
	h.registry.Unregister(client)
	client.Close()
	slog.Info("🔌 Client disconnected", "user_id", userID)
	h.dispatcher.BroadcastPresence()
}

func (h *Handler) readLoop(ctx context.Context, client *Client) {
	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("Unexpected close", "user_id", client.userID, "error", err)
			}
			return
		}
		h.handleAction(ctx, client, data)
	}
}

// --- ACTIONS CLIENT ---

// clientAction est le message entrant générique. Un seul schéma pour
// toutes les actions, les champs inutiles restent vides.
type clientAction struct {
	Action    string `json:"action"`
	PostID    string `json:"postId,omitempty"`
	CommentID string `json:"commentId,omitempty"`
	TargetID  string `json:"targetId,omitempty"`
	Content   string `json:"content,omitempty"`
}

func (h *Handler) handleAction(parent context.Context, client *Client, data []byte) {
	var action clientAction
	if err := json.Unmarshal(data, &action); err != nil {
		h.pushError(client, "", "invalid message format")
		return
	}

	ctx, cancel := context.WithTimeout(parent, actionTimeout)
	defer cancel()

	userID := client.UserID() // Identité vérifiée à la connexion, jamais celle du payload

	switch action.Action {
	case "like":
		if err := h.interactions.Like(ctx, action.PostID, userID); err != nil {
			h.pushError(client, action.Action, err.Error())
		}

	case "dislike":
		if err := h.interactions.Dislike(ctx, action.PostID, userID); err != nil {
			h.pushError(client, action.Action, err.Error())
		}

	case "comment":
		comment, err := h.interactions.AddComment(ctx, ports.CommentCmd{
			PostID:   action.PostID,
			AuthorID: userID,
			Content:  action.Content,
		})
		if err != nil {
			h.pushError(client, action.Action, err.Error())
			return
		}
		h.push(client, "comment_created", toCommentPayload(comment))

	case "reply":
		reply, err := h.interactions.AddReply(ctx, ports.ReplyCmd{
			ParentID: action.CommentID,
			AuthorID: userID,
			Content:  action.Content,
		})
		if err != nil {
			h.pushError(client, action.Action, err.Error())
			return
		}
		h.push(client, "comment_created", toCommentPayload(reply))

	case "delete_comment":
		if err := h.interactions.DeleteComment(ctx, action.CommentID, userID); err != nil {
			h.pushError(client, action.Action, err.Error())
		}

	case "list_comments":
		tree, err := h.interactions.ListComments(ctx, action.PostID)
		if err != nil {
			h.pushError(client, action.Action, err.Error())
			return
		}
		h.push(client, "comments", commentListPayload{PostID: action.PostID, Comments: toCommentPayloads(tree)})

	case "list_replies":
		replies, err := h.interactions.ListReplies(ctx, action.CommentID)
		if err != nil {
			h.pushError(client, action.Action, err.Error())
			return
		}
		h.push(client, "replies", replyListPayload{CommentID: action.CommentID, Replies: toCommentPayloads(replies)})

	case "toggle_follow":
		following, err := h.interactions.ToggleFollow(ctx, userID, action.TargetID)
		if err != nil {
			h.pushError(client, action.Action, err.Error())
			return
		}
		h.push(client, "follow_state", followStatePayload{TargetID: action.TargetID, Following: following})

	case "check_relation":
		status, err := h.interactions.CheckRelation(ctx, userID, action.TargetID)
		if err != nil {
			h.pushError(client, action.Action, err.Error())
			return
		}
		h.push(client, "relation", relationPayload{
			TargetID:     action.TargetID,
			IsFollowing:  status.IsFollowing,
			IsFollowedBy: status.IsFollowedBy,
		})

	case "online_following":
		ids, err := h.interactions.OnlineFollowing(ctx, userID)
		if err != nil {
			h.pushError(client, action.Action, err.Error())
			return
		}
		h.push(client, "online_following", onlineFollowingPayload{UserIDs: ids})

	default:
		h.pushError(client, action.Action, "unknown action")
	}
}

// --- HELPERS D'ENVOI ---

func (h *Handler) push(client *Client, event string, data any) {
	payload, err := json.Marshal(services.Envelope{Event: event, Data: data})
	if err != nil {
		slog.Error("Failed to marshal response", "event", event, "error", err)
		return
	}
	if err := client.Push(payload); err != nil {
		slog.Debug("Response push failed", "user_id", client.UserID(), "event", event)
	}
}

func (h *Handler) pushError(client *Client, action, message string) {
	h.push(client, "error", errorPayload{Action: action, Message: message})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
