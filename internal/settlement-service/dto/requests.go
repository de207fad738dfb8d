package dto

// InvokeRequest é a invocação crua: contas ordenadas (participante primeiro)
// e os bytes da instrução em base64.
type InvokeRequest struct {
	InvocationID string   `json:"invocation_id,omitempty"` // opcional; gerado se vazio
	Accounts     []string `json:"accounts"`
	Data         []byte   `json:"data"`
}
