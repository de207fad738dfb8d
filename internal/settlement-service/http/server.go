package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/coin-flip-settlement/internal/invoker"
	"github.com/radieske/coin-flip-settlement/internal/ledger"
	"github.com/radieske/coin-flip-settlement/internal/randomness"
	"github.com/radieske/coin-flip-settlement/internal/settlement"
	"github.com/radieske/coin-flip-settlement/internal/settlement-service/dto"
)

// Invoker executa invocações do programa (implementado por invoker.Invoker)
type Invoker interface {
	Invoke(ctx context.Context, inv invoker.Invocation) (invoker.Receipt, error)
}

// Seeds expõe o compromisso da seed e a rotação (implementado por randomness.CommitReveal)
type Seeds interface {
	Commitment(ctx context.Context) (string, error)
	Rotate(ctx context.Context) (revealed randomness.Seed, next randomness.Seed, err error)
	Revealed(ctx context.Context, commitment string) (randomness.Seed, error)
}

// Balances é a leitura de saldo do ledger
type Balances interface {
	Balance(ctx context.Context, account settlement.Pubkey) (uint64, error)
}

// Server expõe a fronteira de invocação via HTTP
type Server struct {
	log        *zap.Logger
	inv        Invoker
	seeds      Seeds
	balances   Balances
	adminToken string
	ws         http.HandlerFunc
}

// NewServer instancia o servidor HTTP; ws pode ser nil (feed desabilitado)
func NewServer(log *zap.Logger, inv Invoker, seeds Seeds, balances Balances, adminToken string, ws http.HandlerFunc) *Server {
	return &Server{log: log, inv: inv, seeds: seeds, balances: balances, adminToken: adminToken, ws: ws}
}

// Router retorna o roteador HTTP com as rotas da API
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/v1/invoke", s.invoke)
	r.Get("/v1/seed", s.seed)
	r.Post("/v1/seed/rotate", s.rotate)
	r.Get("/v1/verify", s.verify)
	r.Get("/v1/accounts/{pubkey}/balance", s.balance)
	if s.ws != nil {
		r.Get("/ws", s.ws)
	}
	return r
}

// maxInvokeBody limita o corpo de /v1/invoke (a instrução tem 9 bytes)
const maxInvokeBody = 64 << 10

// invoke decodifica a invocação, executa e mapeia o erro tipado para status HTTP
func (s *Server) invoke(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxInvokeBody)
	var req dto.InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "request body too large", Kind: "malformed_input"})
			return
		}
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json", Kind: "malformed_input"})
		return
	}

	accounts := make([]settlement.AccountInfo, 0, len(req.Accounts))
	for i, a := range req.Accounts {
		accounts = append(accounts, settlement.AccountInfo{
			Key:        settlement.Pubkey(a),
			IsSigner:   i == 0,
			IsWritable: true,
		})
	}

	rcpt, err := s.inv.Invoke(r.Context(), invoker.Invocation{
		ID:       req.InvocationID,
		Accounts: accounts,
		Data:     req.Data,
	})
	if err != nil {
		writeJSON(w, statusFor(err), dto.ErrorResponse{
			InvocationID: rcpt.InvocationID,
			Error:        err.Error(),
			Kind:         settlement.Kind(err),
		})
		return
	}

	st := rcpt.Settlement
	writeJSON(w, http.StatusOK, dto.InvokeResponse{
		InvocationID: rcpt.InvocationID,
		Participant:  string(st.Participant),
		BetAmount:    st.Request.BetAmount,
		Choice:       st.Request.Choice.String(),
		Outcome:      st.Outcome.String(),
		Won:          st.Won,
		Payout:       st.Payout,
		Draw: dto.DrawResponse{
			Value:      st.Draw.Value,
			Nonce:      st.Draw.Nonce,
			Digest:     st.Draw.Digest,
			Commitment: st.Draw.Commitment,
		},
	})
}

// statusFor mapeia a taxonomia de erros da liquidação
func statusFor(err error) int {
	switch {
	case errors.Is(err, settlement.ErrMalformedInput), errors.Is(err, settlement.ErrMissingAccount):
		return http.StatusBadRequest
	case errors.Is(err, settlement.ErrArithmeticOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, settlement.ErrTransferFailure):
		return http.StatusConflict
	case errors.Is(err, settlement.ErrRandomnessUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// seed retorna o hash da seed corrente (o segredo só sai na rotação)
func (s *Server) seed(w http.ResponseWriter, r *http.Request) {
	c, err := s.seeds.Commitment(r.Context())
	if err != nil {
		if errors.Is(err, randomness.ErrNoSeed) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: err.Error(), Kind: "not_found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error(), Kind: "internal"})
		return
	}
	writeJSON(w, http.StatusOK, dto.SeedResponse{Commitment: c})
}

// rotate revela a seed corrente e compromete uma nova; exige token de admin
func (s *Server) rotate(w http.ResponseWriter, r *http.Request) {
	if s.adminToken == "" {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "seed rotation disabled", Kind: "forbidden"})
		return
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized", Kind: "unauthorized"})
		return
	}

	revealed, next, err := s.seeds.Rotate(r.Context())
	if err != nil {
		s.log.Error("seed rotate", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error(), Kind: "internal"})
		return
	}
	writeJSON(w, http.StatusOK, dto.RotateResponse{
		Revealed:   dto.RevealedSeed{Secret: revealed.Secret, Commitment: revealed.Commitment},
		Commitment: next.Commitment,
	})
}

// verify recalcula o sorteio de uma invocação a partir da seed revelada
// GET /v1/verify?commitment=...&participant=...&nonce=...
func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	commitment, participant := q.Get("commitment"), q.Get("participant")
	nonce, err := strconv.ParseUint(q.Get("nonce"), 10, 64)
	if commitment == "" || participant == "" || err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "commitment, participant and nonce required", Kind: "malformed_input"})
		return
	}

	seed, err := s.seeds.Revealed(r.Context(), commitment)
	if err != nil {
		if errors.Is(err, randomness.ErrSeedNotRevealed) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: err.Error(), Kind: "not_found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error(), Kind: "internal"})
		return
	}

	value, digest := randomness.Roll(seed.Secret, settlement.Pubkey(participant), nonce, 2)
	writeJSON(w, http.StatusOK, dto.VerifyResponse{
		Commitment:  commitment,
		ServerSeed:  seed.Secret,
		Participant: participant,
		Nonce:       nonce,
		Value:       value,
		Outcome:     settlement.Side(value).String(),
		Digest:      digest,
	})
}

// balance retorna o saldo de uma conta do ledger
func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	pk, err := url.PathUnescape(chi.URLParam(r, "pubkey"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid account", Kind: "malformed_input"})
		return
	}
	bal, err := s.balances.Balance(r.Context(), settlement.Pubkey(pk))
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: err.Error(), Kind: "not_found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error(), Kind: "internal"})
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{Account: pk, Balance: bal})
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
