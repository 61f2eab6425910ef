package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"finch/internal/domain/account"
	"finch/internal/domain/budget"
	"finch/internal/domain/ledger"
	syncdomain "finch/internal/domain/sync"
	"finch/internal/infrastructure/bankfeed"
	"finch/internal/infrastructure/postgres"
	"finch/internal/shared/config"
)

const usage = `Finch Admin CLI - Management commands for the Finch API

Usage:
  admin <command> [options]

Commands:
  sync           Pull accounts and transactions from linked banks
  budget-check   Evaluate budget statuses for a user

Examples:
  # Sync a specific user
  admin sync --user-id=1

  # Sync multiple users
  admin sync --user-id=1,2,3

  # Sync all users with linked banks
  admin sync --all

  # Sync all users with higher concurrency and a timeout
  admin sync --all --workers=8 --timeout=1h

  # Print budget statuses for a user as of today
  admin budget-check --user-id=1

  # Print budget statuses as of a specific day
  admin budget-check --user-id=1 --as-of=2026-08-15
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "sync":
		runSync(os.Args[2:])
	case "budget-check":
		runBudgetCheck(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}
}

func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	userIDStr := fs.String("user-id", "", "User ID(s) to sync (comma-separated for multiple)")
	allUsers := fs.Bool("all", false, "Sync all users with linked banks")
	workers := fs.Int("workers", 0, "Number of users to sync concurrently (0 = default)")
	timeoutStr := fs.String("timeout", "30m", "Timeout for the operation (e.g., 5m, 1h)")

	fs.Usage = func() {
		fmt.Println("Usage: admin sync [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  admin sync --user-id=1")
		fmt.Println("  admin sync --user-id=1,2,3")
		fmt.Println("  admin sync --all")
		fmt.Println("  admin sync --all --workers=8 --timeout=1h")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *userIDStr == "" && !*allUsers {
		fmt.Println("Error: must specify --user-id or --all")
		fs.Usage()
		os.Exit(1)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	ledgerService := ledger.NewService(postgres.NewLedgerRepository(db))
	accountService := account.NewService(postgres.NewAccountRepository(db), ledgerService)
	bankLinkRepo := postgres.NewBanklinkRepository(db)
	feedClient := bankfeed.NewClient(cfg.BankFeed.BaseURL, cfg.BankFeed.ClientID, cfg.BankFeed.ClientSecret)

	syncService := syncdomain.NewService(feedClient, bankLinkRepo, accountService, ledgerService)
	syncService.SetWindow(cfg.BankFeed.SyncDays)
	syncService.SetConcurrency(*workers)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	startTime := time.Now()

	if *allUsers {
		results, err := syncService.SyncAll(ctx)
		if err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
		for _, result := range results {
			printSyncResult(result)
		}
	} else {
		userIDs, err := parseUserIDs(*userIDStr)
		if err != nil {
			log.Fatal(err)
		}
		for _, userID := range userIDs {
			result, err := syncService.SyncUser(ctx, userID)
			if err != nil {
				log.Printf("Sync failed for user %d: %v", userID, err)
				continue
			}
			printSyncResult(result)
		}
	}

	log.Printf("Sync completed in %v", time.Since(startTime))
}

func runBudgetCheck(args []string) {
	fs := flag.NewFlagSet("budget-check", flag.ExitOnError)

	userIDStr := fs.String("user-id", "", "User ID to evaluate")
	asOfStr := fs.String("as-of", "", "Evaluation date in YYYY-MM-DD (default: today)")

	fs.Usage = func() {
		fmt.Println("Usage: admin budget-check [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  admin budget-check --user-id=1")
		fmt.Println("  admin budget-check --user-id=1 --as-of=2026-08-15")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *userIDStr == "" {
		fmt.Println("Error: must specify --user-id")
		fs.Usage()
		os.Exit(1)
	}

	userID, err := strconv.ParseInt(*userIDStr, 10, 64)
	if err != nil {
		log.Fatalf("Invalid user ID '%s': %v", *userIDStr, err)
	}

	asOf := civil.DateOf(time.Now().UTC())
	if *asOfStr != "" {
		asOf, err = civil.ParseDate(*asOfStr)
		if err != nil {
			log.Fatalf("Invalid --as-of date '%s': %v", *asOfStr, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ledgerService := ledger.NewService(postgres.NewLedgerRepository(db))
	accountService := account.NewService(postgres.NewAccountRepository(db), ledgerService)
	budgetService := budget.NewService(postgres.NewBudgetRepository(db), budget.NewEvaluator(ledgerService))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	accountIDs, err := accountService.AccountIDs(ctx, userID)
	if err != nil {
		log.Fatalf("Failed to list accounts: %v", err)
	}

	statuses, err := budgetService.StatusList(ctx, userID, asOf, accountIDs)
	if err != nil {
		log.Fatalf("Budget evaluation failed: %v", err)
	}

	if len(statuses) == 0 {
		fmt.Printf("No active budgets for user %d as of %s\n", userID, asOf)
		return
	}

	for _, st := range statuses {
		printBudgetStatus(st)
	}
}

func printSyncResult(result *syncdomain.Result) {
	fmt.Printf("\n=== User %d ===\n", result.UserID)
	fmt.Printf("  Items synced:       %d\n", result.ItemsSynced)
	fmt.Printf("  Accounts found:     %d\n", result.AccountsFound)
	fmt.Printf("  Accounts upserted:  %d\n", result.AccountsUpserted)
	fmt.Printf("  Transactions found: %d\n", result.TransactionsFound)
	fmt.Printf("  Created:            %d\n", result.Created)
	fmt.Printf("  Updated:            %d\n", result.Updated)
	fmt.Printf("  Unchanged:          %d\n", result.Unchanged)
	fmt.Printf("  Conflicts:          %d\n", result.Conflicts)
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors:\n")
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}
}

func printBudgetStatus(st *budget.Status) {
	fmt.Printf("\n=== %s (%s) ===\n", st.Budget.Name, st.Budget.Category)
	fmt.Printf("  State:       %s\n", st.State)
	fmt.Printf("  Period:      %s .. %s (index %d)\n", st.PeriodStart, st.PeriodEnd, st.PeriodIndex)
	fmt.Printf("  Limit:       %.2f\n", st.Budget.BudgetLimit)
	fmt.Printf("  Spent:       %.2f\n", st.SpentAmount)
	fmt.Printf("  Remaining:   %.2f\n", st.RemainingAmount)
	fmt.Printf("  Utilization: %.1f%%\n", st.UtilizationPercentage)
	if st.IsOverBudget {
		fmt.Printf("  OVER BUDGET\n")
	} else if st.ShouldAlert {
		fmt.Printf("  Alert threshold reached\n")
	}
}

func parseUserIDs(s string) ([]int64, error) {
	var userIDs []int64
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID '%s': %w", p, err)
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, nil
}
