package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/radieske/coin-flip-settlement/pkg/contracts/events"
)

const defaultWriteWait = 5 * time.Second

// Hub gerencia conexões WebSocket e assinaturas por participante
// subs: mapeia participante para o conjunto de conexões inscritas
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	subs     map[string]map[*websocket.Conn]struct{}
	// gorilla não aceita escritas concorrentes na mesma conexão
	writeMu sync.Mutex
	// writeWait limita cada escrita; cliente travado não segura o feed
	writeWait time.Duration
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader:  websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:      make(map[string]map[*websocket.Conn]struct{}),
		writeWait: defaultWriteWait,
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Permite subscribe/unsubscribe por participante e responde a pings
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.Participant == "" {
				continue
			}
			h.mu.Lock()
			if _, ok := h.subs[msg.Participant]; !ok {
				h.subs[msg.Participant] = make(map[*websocket.Conn]struct{})
			}
			h.subs[msg.Participant][conn] = struct{}{}
			h.mu.Unlock()
			h.write(conn, map[string]string{"type": "subscribed", "participant": msg.Participant})
		case "unsubscribe":
			h.mu.Lock()
			h.remove(msg.Participant, conn)
			h.mu.Unlock()
		case "ping":
			h.write(conn, map[string]string{"type": "pong"})
		}
	}

	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for p := range h.subs {
		h.remove(p, conn)
	}
	h.mu.Unlock()
}

// remove exige h.mu travado
func (h *Hub) remove(participant string, conn *websocket.Conn) {
	if m, ok := h.subs[participant]; ok {
		delete(m, conn)
		if len(m) == 0 {
			delete(h.subs, participant)
		}
	}
}

// Subscribers retorna quantas conexões acompanham o participante
func (h *Hub) Subscribers(participant string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[participant])
}

// Broadcast envia a liquidação para os inscritos no participante e no wildcard
func (h *Hub) Broadcast(e events.WagerSettled) {
	h.mu.RLock()
	targets := make(map[*websocket.Conn]struct{})
	for c := range h.subs[e.Participant] {
		targets[c] = struct{}{}
	}
	for c := range h.subs[Wildcard] {
		targets[c] = struct{}{}
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, _ := json.Marshal(e)
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for c := range targets {
		_ = c.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			// encerra a leitura em HandleWS, que remove as assinaturas
			_ = c.Close()
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, v any) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(h.writeWait))
	if err := conn.WriteJSON(v); err != nil {
		_ = conn.Close()
	}
}
