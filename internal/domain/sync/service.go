package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/errgroup"

	"finch/internal/domain/account"
	"finch/internal/domain/banklink"
	"finch/internal/domain/ledger"
	"finch/internal/infrastructure/bankfeed"
	"finch/internal/shared/logging"
)

const (
	defaultSinceDays   = 90
	defaultConcurrency = 4
)

// Result contains the outcome of a sync pass for one user.
type Result struct {
	UserID            int64    `json:"userId"`
	ItemsSynced       int      `json:"itemsSynced"`
	AccountsFound     int      `json:"accountsFound"`
	AccountsUpserted  int      `json:"accountsUpserted"`
	TransactionsFound int      `json:"transactionsFound"`
	Created           int      `json:"created"`
	Updated           int      `json:"updated"`
	Unchanged         int      `json:"unchanged"`
	Conflicts         int      `json:"conflicts"`
	Errors            []string `json:"errors"`
}

// ItemSource provides the bank connections to sync. The banklink repository
// satisfies it.
type ItemSource interface {
	ListByUser(ctx context.Context, userID int64) ([]*banklink.Item, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	UpdateLastSync(ctx context.Context, id string, at time.Time) error
}

// AccountUpserter lands provider accounts. The account service satisfies it.
type AccountUpserter interface {
	UpsertAccount(ctx context.Context, params account.UpsertParams) (*account.Account, error)
}

// LedgerIngester lands provider transactions. The ledger service satisfies it.
type LedgerIngester interface {
	Ingest(ctx context.Context, batch []ledger.UpsertParams) (*ledger.IngestResult, error)
}

// Service pulls accounts and transactions from the aggregation provider and
// lands them in local storage. This is the single place where the provider's
// sign convention (negative = outflow) is flipped to the internal one
// (positive = expense).
type Service struct {
	client      bankfeed.ClientInterface
	items       ItemSource
	accounts    AccountUpserter
	ledger      LedgerIngester
	sinceDays   int
	concurrency int
}

func NewService(client bankfeed.ClientInterface, items ItemSource, accounts AccountUpserter, ingester LedgerIngester) *Service {
	return &Service{
		client:      client,
		items:       items,
		accounts:    accounts,
		ledger:      ingester,
		sinceDays:   defaultSinceDays,
		concurrency: defaultConcurrency,
	}
}

// SetWindow overrides how far back transaction pulls reach, in days.
func (s *Service) SetWindow(days int) {
	if days > 0 {
		s.sinceDays = days
	}
}

// SetConcurrency overrides how many users sync in parallel during SyncAll.
func (s *Service) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// SyncUser refreshes every bank connection for one user. A failing item is
// recorded in the result and skipped; the rest still sync.
func (s *Service) SyncUser(ctx context.Context, userID int64) (*Result, error) {
	log := logging.FromContext(ctx)
	result := &Result{UserID: userID, Errors: []string{}}

	items, err := s.items.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank connections: %w", err)
	}

	for _, item := range items {
		if err := s.syncItem(ctx, item, result); err != nil {
			errMsg := fmt.Sprintf("item %s: %v", item.ID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Error().Err(err).Str("item_id", item.ID).Msg("bank connection sync failed")
			continue
		}
		result.ItemsSynced++
	}

	log.Info().
		Int64("user_id", userID).
		Int("items", result.ItemsSynced).
		Int("accounts", result.AccountsUpserted).
		Int("transactions", result.TransactionsFound).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("conflicts", result.Conflicts).
		Int("errors", len(result.Errors)).
		Msg("sync completed")

	return result, nil
}

func (s *Service) syncItem(ctx context.Context, item *banklink.Item, result *Result) error {
	syncedAt := time.Now().UTC()

	accountResp, err := s.client.GetAccounts(ctx, item.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}
	result.AccountsFound += len(accountResp.Data)

	for _, raw := range accountResp.Data {
		_, err := s.accounts.UpsertAccount(ctx, account.UpsertParams{
			ID:               raw.AccountID,
			UserID:           item.UserID,
			ItemID:           item.ID,
			Name:             raw.Name,
			OfficialName:     raw.OfficialName,
			AccountType:      raw.AccountType,
			Subtype:          raw.AccountSubtype,
			Mask:             raw.Mask,
			InstitutionName:  raw.InstitutionName,
			Currency:         raw.CurrencyCode,
			CurrentBalance:   raw.CurrentBalance,
			AvailableBalance: raw.AvailableBalance,
			SyncedAt:         syncedAt,
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("account %s: %v", raw.AccountID, err))
			continue
		}
		result.AccountsUpserted++
	}

	txResp, err := s.client.GetTransactions(ctx, item.AccessToken, s.sinceDays)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}
	result.TransactionsFound += len(txResp.Data)

	batch := make([]ledger.UpsertParams, 0, len(txResp.Data))
	for _, raw := range txResp.Data {
		txDate, err := raw.GetDate()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("transaction %s: %v", raw.ID, err))
			continue
		}
		if txDate == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("transaction %s: date is required", raw.ID))
			continue
		}
		batch = append(batch, ledger.UpsertParams{
			ID:        raw.ID,
			AccountID: raw.AccountID,
			// Provider reports outflows as negative. Flip here, once.
			Amount:           -raw.Amount,
			Name:             raw.Name,
			Date:             civil.DateOf(*txDate),
			ProviderCategory: raw.Category,
			Pending:          raw.Pending,
			SyncedAt:         syncedAt,
		})
	}

	ingest, err := s.ledger.Ingest(ctx, batch)
	if err != nil {
		return fmt.Errorf("failed to ingest transactions: %w", err)
	}
	result.Created += ingest.Created
	result.Updated += ingest.Updated
	result.Unchanged += ingest.Unchanged
	result.Conflicts += ingest.Conflicts
	result.Errors = append(result.Errors, ingest.Errors...)

	return s.items.UpdateLastSync(ctx, item.ID, syncedAt)
}

// SyncAll refreshes every user with at least one bank connection. Users sync
// concurrently with a bounded group; one user failing does not stop the rest.
func (s *Service) SyncAll(ctx context.Context) ([]*Result, error) {
	userIDs, err := s.items.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var mu sync.Mutex
	results := make([]*Result, 0, len(userIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, userID := range userIDs {
		g.Go(func() error {
			result, err := s.SyncUser(gctx, userID)
			if err != nil {
				result = &Result{UserID: userID, Errors: []string{err.Error()}}
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
