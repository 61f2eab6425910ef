package bankfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout   = 180 * time.Second // large transaction fetches can be slow
	exchangePath     = "/link/exchange"
	accountsPath     = "/accounts"
	transactionsPath = "/transactions"
)

// Client handles communication with the bank aggregation provider.
//
// The provider uses the opposite sign convention from the rest of the
// system: negative amounts are outflows. Raw values are surfaced here
// untouched; the sync layer normalizes them exactly once.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new aggregation provider client
func NewClient(baseURL, clientID, secret string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:  baseURL,
		clientID: clientID,
		secret:   secret,
	}
}

// ExchangeResponse represents the API response for a public token exchange
type ExchangeResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
	ItemID      string `json:"itemId"`
}

// AccountResponse represents the API response for account data
type AccountResponse struct {
	Success   bool      `json:"success"`
	Data      []Account `json:"data"`
	Count     int       `json:"count"`
	Timestamp string    `json:"timestamp"`
}

// Account represents an account as the provider reports it
type Account struct {
	AccountID        string  `json:"id"`
	ItemID           string  `json:"itemId"`
	Name             string  `json:"name"`
	OfficialName     string  `json:"officialName"`
	AccountType      string  `json:"type"`
	AccountSubtype   string  `json:"subtype"`
	Mask             string  `json:"mask"`
	InstitutionName  string  `json:"institutionName"`
	CurrencyCode     string  `json:"currencyCode"`
	CurrentBalance   float64 `json:"currentBalance"`
	AvailableBalance float64 `json:"availableBalance"`
}

// TransactionResponse represents the API response for transaction data
type TransactionResponse struct {
	Success   bool          `json:"success"`
	Data      []Transaction `json:"data"`
	Count     int           `json:"count"`
	Timestamp string        `json:"timestamp"`
}

// Transaction represents a transaction as the provider reports it.
// Amount keeps the provider's sign convention: negative is money out.
type Transaction struct {
	ID         string   `json:"id"`
	AccountID  string   `json:"accountId"`
	Name       string   `json:"name"`
	Amount     float64  `json:"amount"`
	DateString string   `json:"date"` // "2026-08-28" format
	Category   []string `json:"category"`
	Pending    bool     `json:"pending"`
}

// GetDate parses and returns the transaction date
func (t *Transaction) GetDate() (*time.Time, error) {
	if t.DateString == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", t.DateString)
	if err != nil {
		// Some institutions report full timestamps
		parsed, err = time.Parse("2006-01-02 15:04:05", t.DateString)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date '%s': %w", t.DateString, err)
		}
	}
	return &parsed, nil
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, url, accessToken string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if accessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))
	}
	req.Header.Set("X-Client-ID", c.clientID)
	req.Header.Set("X-Client-Secret", c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.Unmarshal(raw, &errResp); err != nil {
			return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(raw))
		}
		return fmt.Errorf("API error (status %d): %s - %s", resp.StatusCode, errResp.Error, errResp.Message)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// ExchangeToken trades a public link token for a long-lived access token and
// the provider's item ID for the new bank connection.
func (c *Client) ExchangeToken(ctx context.Context, publicToken string) (*ExchangeResponse, error) {
	var exResp ExchangeResponse
	payload := map[string]string{"publicToken": publicToken}
	if err := c.do(ctx, http.MethodPost, c.baseURL+exchangePath, "", payload, &exResp); err != nil {
		return nil, err
	}
	if !exResp.Success {
		return nil, fmt.Errorf("API returned success=false")
	}
	return &exResp, nil
}

// GetAccounts fetches all accounts reachable through an access token
func (c *Client) GetAccounts(ctx context.Context, accessToken string) (*AccountResponse, error) {
	var accountResp AccountResponse
	if err := c.do(ctx, http.MethodGet, c.baseURL+accountsPath, accessToken, nil, &accountResp); err != nil {
		return nil, err
	}
	if !accountResp.Success {
		return nil, fmt.Errorf("API returned success=false")
	}
	return &accountResp, nil
}

// GetTransactions fetches transactions for an access token going back
// sinceDays from today.
func (c *Client) GetTransactions(ctx context.Context, accessToken string, sinceDays int) (*TransactionResponse, error) {
	url := fmt.Sprintf("%s%s?sinceDays=%d", c.baseURL, transactionsPath, sinceDays)
	var txResp TransactionResponse
	if err := c.do(ctx, http.MethodGet, url, accessToken, nil, &txResp); err != nil {
		return nil, err
	}
	if !txResp.Success {
		return nil, fmt.Errorf("API returned success=false")
	}
	return &txResp, nil
}
