// escrow/client.go
package escrow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client is the HTTP client for the custody collaborator service. Every
// mutating call carries a fresh idempotency key so an ambiguous failure can
// be resolved on the collaborator's side without double-settling.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type escrowResponse struct {
	EscrowRef string `json:"escrow_ref"`
	TxRef     string `json:"tx_ref"`
	Status    Status `json:"status"`
	Error     string `json:"error"`
}

func (c *Client) CreateEscrow(ctx context.Context, token string, amount int64) (string, error) {
	resp, err := c.post(ctx, "/escrows", map[string]interface{}{
		"token":  token,
		"amount": amount,
	})
	if err != nil {
		return "", err
	}
	return resp.EscrowRef, nil
}

func (c *Client) Release(ctx context.Context, escrowRef, recipient string) (string, error) {
	resp, err := c.post(ctx, fmt.Sprintf("/escrows/%s/release", escrowRef), map[string]interface{}{
		"recipient": recipient,
	})
	if err != nil {
		return "", err
	}
	return resp.TxRef, nil
}

func (c *Client) RefundOrClose(ctx context.Context, escrowRef string) (string, error) {
	resp, err := c.post(ctx, fmt.Sprintf("/escrows/%s/refund", escrowRef), nil)
	if err != nil {
		return "", err
	}
	return resp.TxRef, nil
}

// Status fetches the collaborator-side state of an escrow. Used by the sync
// worker to mirror custody state locally.
func (c *Client) Status(ctx context.Context, escrowRef string) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/escrows/"+escrowRef, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	httpResp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusNotFound {
		return "", ErrUnknownEscrow
	}
	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, httpResp.StatusCode, string(body))
	}

	var resp escrowResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return resp.Status, nil
}

func (c *Client) post(ctx context.Context, path string, body map[string]interface{}) (*escrowResponse, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	httpResp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	switch {
	case httpResp.StatusCode == http.StatusNotFound:
		return nil, ErrUnknownEscrow
	case httpResp.StatusCode == http.StatusConflict:
		return nil, ErrAlreadySettled
	case httpResp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, httpResp.StatusCode, string(body))
	case httpResp.StatusCode >= 400:
		var resp escrowResponse
		_ = json.NewDecoder(httpResp.Body).Decode(&resp)
		return nil, fmt.Errorf("escrow request rejected: %s", resp.Error)
	}

	var resp escrowResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return &resp, nil
}
