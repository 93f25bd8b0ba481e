package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	accountsvc "github.com/adiwirasena/koperasi-pos-backend/internal/accounts"
	productsvc "github.com/adiwirasena/koperasi-pos-backend/internal/products"
	"github.com/adiwirasena/koperasi-pos-backend/internal/replica"
	transactionsvc "github.com/adiwirasena/koperasi-pos-backend/internal/transactions"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/config"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/db"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/logger"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/pubsub"
)

// historyPrimeLimit is how many recent sales are loaded per branch before
// feed events take over.
const historyPrimeLimit = 200

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "feed-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "feed-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	cache := replica.NewCache()
	err = primeCache(ctx, dbClient, cache)
	requireResource(ctx, logg, "replica prime", err)

	consumer, err := replica.NewConsumer(cache, pubsubClient.ChangeFeedSubscription(), logg)
	requireResource(ctx, logg, "feed consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env": cfg.App.Env,
	})
	logg.Info(runCtx, "feed worker ready")

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "feed worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

// primeCache seeds the replica with the current database state so the
// consumer only has to merge deltas.
func primeCache(ctx context.Context, dbClient *db.Client, cache *replica.Cache) error {
	accountRepo := accountsvc.NewRepository(dbClient.DB())
	productRepo := productsvc.NewRepository(dbClient.DB())
	transactionRepo := transactionsvc.NewRepository(dbClient.DB())

	accounts, err := accountRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("listing accounts: %w", err)
	}

	for _, account := range accounts {
		products, err := productRepo.ListByAccount(ctx, account.ID, productsvc.ListFilters{})
		if err != nil {
			return fmt.Errorf("listing products for %s: %w", account.ID, err)
		}
		productRows := make([]replica.Row, 0, len(products))
		for _, p := range products {
			data, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("encoding product %s: %w", p.ID, err)
			}
			productRows = append(productRows, replica.Row{ID: p.ID, Data: data})
		}
		cache.PrimeProducts(account.ID, productRows)

		transactions, err := transactionRepo.ListByAccount(ctx, account.ID, transactionsvc.ListFilters{}, nil, historyPrimeLimit)
		if err != nil {
			return fmt.Errorf("listing transactions for %s: %w", account.ID, err)
		}
		transactionRows := make([]replica.Row, 0, len(transactions))
		for _, txn := range transactions {
			data, err := json.Marshal(txn)
			if err != nil {
				return fmt.Errorf("encoding transaction %s: %w", txn.ID, err)
			}
			transactionRows = append(transactionRows, replica.Row{ID: txn.ID, Data: data})
		}
		cache.PrimeTransactions(account.ID, transactionRows)
	}

	return nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
