package dto

type DrawResponse struct {
	Value      uint8  `json:"value"`
	Nonce      uint64 `json:"nonce"`
	Digest     string `json:"digest,omitempty"`
	Commitment string `json:"commitment,omitempty"`
}

type InvokeResponse struct {
	InvocationID string       `json:"invocation_id"`
	Participant  string       `json:"participant"`
	BetAmount    uint64       `json:"bet_amount"`
	Choice       string       `json:"choice"`
	Outcome      string       `json:"outcome"`
	Won          bool         `json:"won"`
	Payout       uint64       `json:"payout"`
	Draw         DrawResponse `json:"draw"`
}

type ErrorResponse struct {
	InvocationID string `json:"invocation_id,omitempty"`
	Error        string `json:"error"`
	Kind         string `json:"kind"`
}

type SeedResponse struct {
	Commitment string `json:"commitment"`
}

type RotateResponse struct {
	Revealed   RevealedSeed `json:"revealed"`
	Commitment string       `json:"commitment"` // nova seed comprometida
}

type RevealedSeed struct {
	Secret     string `json:"server_seed,omitempty"`
	Commitment string `json:"commitment,omitempty"`
}

type VerifyResponse struct {
	Commitment  string `json:"commitment"`
	ServerSeed  string `json:"server_seed"`
	Participant string `json:"participant"`
	Nonce       uint64 `json:"nonce"`
	Value       uint8  `json:"value"`
	Outcome     string `json:"outcome"`
	Digest      string `json:"digest"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}
