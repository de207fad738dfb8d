package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Participant: obrigatório para subscribe/unsubscribe ("*" recebe todas as liquidações)
type ClientMsg struct {
	Type        string `json:"type"`
	Participant string `json:"participant"`
}

// Wildcard inscreve o cliente em todas as liquidações
const Wildcard = "*"
