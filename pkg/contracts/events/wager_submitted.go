package events

// WagerSubmitted é a invocação enviada por clientes no tópico "wager_submitted".
// Data carrega os bytes crus da instrução (base64 no JSON).
type WagerSubmitted struct {
	InvocationID string   `json:"invocation_id,omitempty"`
	Accounts     []string `json:"accounts"`
	Data         []byte   `json:"data"`
	TsUnixMs     int64    `json:"ts_unix_ms"`
}
