package services

import (
	"sync"

	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/ports"
)

// ConnectionRegistry est la source de vérité unique pour "est-ce que X est
// joignable maintenant". État purement en mémoire : reconstruit de zéro au
// démarrage du process, aucune persistance, aucune présence distribuée.
//
// Le registre est créé par le composition root (cmd/main.go) et INJECTÉ
// dans le dispatcher et l'adapter transport. Pas de variable globale.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[string]ports.Connection // userID -> handle actif (au plus un)
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[string]ports.Connection),
	}
}

// Register associe la connexion à son user. Écrase SANS condition un
// éventuel handle existant (reconnexion, deuxième onglet) : l'ancien handle
// devient injoignable depuis le registre. On le renvoie pour que le
// transport puisse le fermer proprement.
// Aucune de ces opérations ne peut échouer.
func (r *ConnectionRegistry) Register(conn ports.Connection) (previous ports.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous = r.conns[conn.UserID()]
	r.conns[conn.UserID()] = conn
	return previous
}

// Unregister retire le mapping UNIQUEMENT si le handle stocké est encore
// celui-ci. Garde-fou contre la race classique : une déconnexion tardive
// qui arrive après qu'une nouvelle connexion a déjà écrasé le mapping.
// No-op (pas une erreur) si absent ou périmé.
func (r *ConnectionRegistry) Unregister(conn ports.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.conns[conn.UserID()]; ok && current == conn {
		delete(r.conns, conn.UserID())
	}
}

// Lookup est une lecture pure, jamais bloquante.
func (r *ConnectionRegistry) Lookup(userID string) (ports.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[userID]
	return conn, ok
}

// Snapshot renvoie les IDs de tous les users actuellement connectés.
// Utilisé pour diffuser la présence à chaque connect/disconnect.
func (r *ConnectionRegistry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

// Drain ferme toutes les connexions et vide le registre (shutdown).
func (r *ConnectionRegistry) Drain() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, conn := range r.conns {
		conn.Close()
		delete(r.conns, id)
	}
}
