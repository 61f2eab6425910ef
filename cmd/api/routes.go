package main

import (
	"net/http"

	"github.com/rs/zerolog"

	"finch/internal/shared/config"
	"finch/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", deps.HealthHandler.HandleHealth)

	// Protected routes. Identity is established by the gateway via X-User-ID.
	identity := middleware.Identity

	mux.Handle("/api/accounts", identity(http.HandlerFunc(deps.AccountHandler.HandleListAccounts)))
	mux.Handle("/api/accounts/{id}", identity(http.HandlerFunc(deps.AccountHandler.HandleAccountByID)))

	mux.Handle("/api/transactions", identity(http.HandlerFunc(deps.TransactionHandler.HandleListTransactions)))
	mux.Handle("/api/transactions/{id}", identity(http.HandlerFunc(deps.TransactionHandler.HandleGetTransaction)))
	mux.Handle("/api/transactions/{id}/category", identity(http.HandlerFunc(deps.TransactionHandler.HandleSetCategory)))

	mux.Handle("/api/budgets", identity(http.HandlerFunc(deps.BudgetHandler.HandleBudgets)))
	mux.Handle("/api/budgets/status", identity(http.HandlerFunc(deps.BudgetHandler.HandleBudgetStatuses)))
	mux.Handle("/api/budgets/{id}", identity(http.HandlerFunc(deps.BudgetHandler.HandleBudget)))
	mux.Handle("/api/budgets/{id}/status", identity(http.HandlerFunc(deps.BudgetHandler.HandleBudget)))

	mux.Handle("/api/bank-links", identity(http.HandlerFunc(deps.BankLinkHandler.HandleBankLinks)))
	mux.Handle("/api/bank-links/{id}", identity(http.HandlerFunc(deps.BankLinkHandler.HandleUnlink)))

	mux.Handle("/api/sync", identity(http.HandlerFunc(deps.SyncHandler.HandleSync)))
	mux.Handle("/api/dashboard", identity(http.HandlerFunc(deps.DashboardHandler.HandleDashboard)))
	mux.Handle("/api/insights", identity(http.HandlerFunc(deps.InsightHandler.HandleInsights)))
	mux.Handle("/api/forecast", identity(http.HandlerFunc(deps.ForecastHandler.HandleForecast)))

	// Apply global middleware
	var handler http.Handler = mux
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(middleware.Tracing(handler))
	}
	handler = middleware.Logging(logger)(middleware.CORS(cfg.Server.AllowedHosts)(handler))

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(handler)
		logger.Info().Msg("TLS security middleware enabled (HSTS)")
	}

	return handler
}
