package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/radieske/coin-flip-settlement/internal/settlement-service/dto"
)

// Client chama a API HTTP do settlement-service
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

// APIError é a resposta de erro tipada da API
type APIError struct {
	Status int
	dto.ErrorResponse
}

func (e *APIError) Error() string {
	return fmt.Sprintf("settlement http %d: %s (%s)", e.Status, e.ErrorResponse.Error, e.Kind)
}

// Invoke envia a invocação crua (contas + bytes da instrução)
func (c *Client) Invoke(ctx context.Context, accounts []string, data []byte) (*dto.InvokeResponse, error) {
	body, err := json.Marshal(dto.InvokeRequest{Accounts: accounts, Data: data})
	if err != nil {
		return nil, err
	}
	var out dto.InvokeResponse
	if err := c.do(ctx, http.MethodPost, "/v1/invoke", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Commitment retorna o hash da seed corrente
func (c *Client) Commitment(ctx context.Context) (string, error) {
	var out dto.SeedResponse
	if err := c.do(ctx, http.MethodGet, "/v1/seed", nil, &out); err != nil {
		return "", err
	}
	return out.Commitment, nil
}

// Balance consulta o saldo de uma conta
func (c *Client) Balance(ctx context.Context, account string) (uint64, error) {
	var out dto.BalanceResponse
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(account)+"/balance", nil, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		apiErr := &APIError{Status: res.StatusCode}
		_ = json.NewDecoder(res.Body).Decode(&apiErr.ErrorResponse)
		return apiErr
	}
	return json.NewDecoder(res.Body).Decode(out)
}
