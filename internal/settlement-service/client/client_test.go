package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/coin-flip-settlement/internal/settlement-service/dto"
)

func TestInvoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/invoke", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req dto.InvokeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"alice", "program"}, req.Accounts)
		assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 1}, req.Data)

		_ = json.NewEncoder(w).Encode(dto.InvokeResponse{InvocationID: "inv-1", Won: true, Payout: 2})
	}))
	defer srv.Close()

	res, err := New(srv.URL).Invoke(context.Background(), []string{"alice", "program"}, []byte{1, 0, 0, 0, 0, 0, 0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, "inv-1", res.InvocationID)
	assert.True(t, res.Won)
	assert.Equal(t, uint64(2), res.Payout)
}

func TestInvoke_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(dto.ErrorResponse{InvocationID: "inv-2", Error: "transfer failure: insufficient funds", Kind: "transfer_failure"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Invoke(context.Background(), []string{"alice"}, []byte{1, 0, 0, 0, 0, 0, 0, 0, 0})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "transfer_failure", apiErr.Kind)
	assert.Equal(t, "inv-2", apiErr.InvocationID)
	assert.Contains(t, err.Error(), "409")
}

func TestCommitmentAndBalance(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/seed", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dto.SeedResponse{Commitment: "abc"})
	})
	mux.HandleFunc("/v1/accounts/alice/balance", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dto.BalanceResponse{Account: "alice", Balance: 99})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	commitment, err := c.Commitment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", commitment)

	bal, err := c.Balance(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(99), bal)
}

func TestBalance_EscapesAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/a%2Fb%3Fc/balance", r.URL.EscapedPath())
		assert.Empty(t, r.URL.RawQuery)
		_ = json.NewEncoder(w).Encode(dto.BalanceResponse{Account: "a/b?c", Balance: 7})
	}))
	defer srv.Close()

	bal, err := New(srv.URL).Balance(context.Background(), "a/b?c")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), bal)
}
