package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // Doit être < pongWait
	maxMessageSize = 4 * 1024

	// Taille du buffer d'envoi par client. Plein = on jette (best effort),
	// on ne bloque JAMAIS le dispatcher sur un client lent.
	sendBufferSize = 64
)

var errBufferFull = errors.New("client send buffer full")

// Client implémente ports.Connection au-dessus d'une websocket gorilla.
// Toutes les écritures passent par le channel send et une UNIQUE goroutine
// d'écriture (writePump) : gorilla n'autorise qu'un writer concurrent, et
// ça garantit au passage l'ordre de livraison par destinataire.
type Client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func newClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}
}

func (c *Client) UserID() string { return c.userID }

// Push est non bloquant : buffer plein ou client fermé = payload perdu.
func (c *Client) Push(payload []byte) (err error) {
	// Un Push peut courser Close : écrire dans un channel fermé panique,
	// on transforme ça en erreur ordinaire (le payload est perdu, contrat
	// best effort respecté).
	defer func() {
		if recover() != nil {
			err = errBufferFull
		}
	}()

	select {
	case c.send <- payload:
		return nil
	default:
		return errBufferFull
	}
}

// Close est idempotent. Fermer send termine le writePump, qui envoie la
// trame de close et ferme la connexion TCP.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// writePump sérialise toutes les écritures vers ce client et entretient
// le keepalive ping/pong. Une goroutine par connexion, démarrée par le
// handler, terminée par Close (ou par une erreur d'écriture).
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Close() a été appelé : on prévient le client proprement
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return // Le readPump verra la connexion morte et fera le ménage
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
