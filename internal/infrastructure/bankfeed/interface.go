package bankfeed

import (
	"context"
)

// ClientInterface defines the methods required from the aggregation provider client
type ClientInterface interface {
	ExchangeToken(ctx context.Context, publicToken string) (*ExchangeResponse, error)
	GetAccounts(ctx context.Context, accessToken string) (*AccountResponse, error)
	GetTransactions(ctx context.Context, accessToken string, sinceDays int) (*TransactionResponse, error)
}
