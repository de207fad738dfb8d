package events

import "time"

// Draw é a prova do sorteio, suficiente para verificar o resultado
// depois que a server seed for revelada.
type Draw struct {
	Value      uint8  `json:"value"`
	Nonce      uint64 `json:"nonce"`
	Digest     string `json:"digest,omitempty"`
	Commitment string `json:"commitment,omitempty"`
}

// Evento emitido após o commit de uma invocação liquidada.
type WagerSettled struct {
	InvocationID string    `json:"invocation_id"`
	ProgramID    string    `json:"program_id"`
	Participant  string    `json:"participant"`
	BetAmount    uint64    `json:"bet_amount"`
	Choice       string    `json:"choice"`  // "heads" | "tails"
	Outcome      string    `json:"outcome"` // "heads" | "tails"
	Won          bool      `json:"won"`
	Payout       uint64    `json:"payout"`
	Draw         Draw      `json:"draw"`
	Ts           time.Time `json:"ts"`
}

// Evento emitido quando a invocação falha (nenhum efeito persistido).
type WagerRejected struct {
	InvocationID string    `json:"invocation_id"`
	Participant  string    `json:"participant,omitempty"`
	Kind         string    `json:"kind"`
	Reason       string    `json:"reason"`
	Ts           time.Time `json:"ts"`
}
