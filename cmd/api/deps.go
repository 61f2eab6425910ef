package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"finch/internal/domain/account"
	"finch/internal/domain/banklink"
	"finch/internal/domain/budget"
	"finch/internal/domain/dashboard"
	"finch/internal/domain/forecast"
	"finch/internal/domain/insight"
	"finch/internal/domain/ledger"
	syncdomain "finch/internal/domain/sync"
	"finch/internal/infrastructure/ai"
	"finch/internal/infrastructure/bankfeed"
	forecastclient "finch/internal/infrastructure/forecast"
	"finch/internal/infrastructure/postgres"
	httphandlers "finch/internal/interfaces/http"
	"finch/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	AccountHandler     *httphandlers.AccountHandler
	TransactionHandler *httphandlers.TransactionHandler
	BudgetHandler      *httphandlers.BudgetHandler
	DashboardHandler   *httphandlers.DashboardHandler
	BankLinkHandler    *httphandlers.BankLinkHandler
	SyncHandler        *httphandlers.SyncHandler
	InsightHandler     *httphandlers.InsightHandler
	ForecastHandler    *httphandlers.ForecastHandler
	HealthHandler      *httphandlers.HealthHandler

	// For the scheduler job provider
	SyncService  *syncdomain.Service
	BankLinkRepo *postgres.BanklinkRepository
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	// Migrate, then connect
	if err := postgres.RunMigrations(cfg.Database.ConnectionString()); err != nil {
		return nil, err
	}

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Info().Msg("connected to database")

	// Repositories
	ledgerRepo := postgres.NewLedgerRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	budgetRepo := postgres.NewBudgetRepository(db)
	bankLinkRepo := postgres.NewBanklinkRepository(db)

	// Domain services
	ledgerService := ledger.NewService(ledgerRepo)
	accountService := account.NewService(accountRepo, ledgerService)
	budgetService := budget.NewService(budgetRepo, budget.NewEvaluator(ledgerService))

	// Bank feed client and sync
	feedClient := bankfeed.NewClient(cfg.BankFeed.BaseURL, cfg.BankFeed.ClientID, cfg.BankFeed.ClientSecret)
	bankLinkService := banklink.NewService(bankLinkRepo, feedClient, accountService, accountService)
	syncService := syncdomain.NewService(feedClient, bankLinkRepo, accountService, ledgerService)
	syncService.SetWindow(cfg.BankFeed.SyncDays)

	// Insights, optionally narrated by Gemini
	var narrator insight.Narrator
	if cfg.AI.GeminiAPIKey != "" {
		n, err := ai.NewNarrator(context.Background(), cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
		if err != nil {
			log.Warn().Err(err).Msg("narrator unavailable, insights fall back to rule text")
		} else {
			narrator = n
		}
	}
	insightGenerator := insight.NewGenerator(ledgerService, narrator)

	// External forecasting service is optional
	var fc forecast.Client
	if cfg.Forecast.BaseURL != "" {
		fc = forecastclient.NewClient(cfg.Forecast.BaseURL, cfg.Forecast.APIKey)
	}
	dashboardService := dashboard.NewService(accountService, ledgerService, budgetService, insightGenerator, fc)
	forecastHandler := httphandlers.NewForecastHandler(fc)

	return &Dependencies{
		DB:                 db,
		AccountHandler:     httphandlers.NewAccountHandler(accountService),
		TransactionHandler: httphandlers.NewTransactionHandler(ledgerService, accountService),
		BudgetHandler:      httphandlers.NewBudgetHandler(budgetService, accountService),
		DashboardHandler:   httphandlers.NewDashboardHandler(dashboardService),
		BankLinkHandler:    httphandlers.NewBankLinkHandler(bankLinkService),
		SyncHandler:        httphandlers.NewSyncHandler(syncService),
		InsightHandler:     httphandlers.NewInsightHandler(insightGenerator, budgetService, accountService),
		ForecastHandler:    forecastHandler,
		HealthHandler:      httphandlers.NewHealthHandler(db.DB),
		SyncService:        syncService,
		BankLinkRepo:       bankLinkRepo,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
