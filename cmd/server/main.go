package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/andrumolt/transfer-ledger/internal/config"
	"github.com/andrumolt/transfer-ledger/internal/events"
	"github.com/andrumolt/transfer-ledger/internal/events/kafka"
	"github.com/andrumolt/transfer-ledger/internal/interfaces"
	"github.com/andrumolt/transfer-ledger/internal/logging"
	"github.com/andrumolt/transfer-ledger/internal/metrics"
	"github.com/andrumolt/transfer-ledger/internal/models"
	"github.com/andrumolt/transfer-ledger/internal/query"
	"github.com/andrumolt/transfer-ledger/internal/server"
	"github.com/andrumolt/transfer-ledger/internal/storage/memory"
	"github.com/andrumolt/transfer-ledger/internal/storage/postgres"
	"github.com/andrumolt/transfer-ledger/internal/transfer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	accounts, entries, closeStores, err := openStores(cfg, logger)
	if err != nil {
		logger.Fatal("open stores", zap.Error(err))
	}
	defer closeStores()

	var publisher interfaces.EventPublisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kp.Close()
		publisher = kp
		logger.Info("kafka publisher enabled",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New("ledger", registry)

	engine := transfer.NewEngine(accounts, entries,
		transfer.WithPublisher(publisher, cfg.KafkaTopic),
		transfer.WithLogger(logger),
		transfer.WithMetrics(m),
		transfer.WithCompensation(cfg.Compensate),
	)
	queries := query.NewService(accounts, entries)

	srv := server.New(server.Config{
		Addr:         cfg.HTTPAddr,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, engine, queries, logger, registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
	logger.Info("server stopped")
}

func openStores(cfg config.Config, logger *zap.Logger) (interfaces.AccountStore, interfaces.LedgerStore, func(), error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		store, err := postgres.Open(cfg.PostgresURL)
		if err != nil {
			return nil, nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.InitSchema(ctx); err != nil {
			store.Close()
			return nil, nil, nil, err
		}
		logger.Info("using postgres storage")
		return store, store, func() { store.Close() }, nil
	default:
		store := memory.NewStore()
		store.SeedAccounts(demoAccounts()...)
		logger.Info("using in-memory storage with demo accounts")
		return store, store, func() {}, nil
	}
}

// demoAccounts provisions the in-memory deployment. Account provisioning is
// out-of-band for the transfer core, so the memory backend ships a small
// fixed set to make the server usable right away.
func demoAccounts() []models.Account {
	numbers := []int64{1234567890, 132161597, 343726692, 740013224}
	accounts := make([]models.Account, 0, len(numbers)+1)
	for i, n := range numbers {
		accounts = append(accounts, models.Account{
			AccountNumber:       n,
			Balance:             decimal.NewFromInt(1000),
			RoutingNumber:       100000000 + int64(i),
			DirectDepositNumber: 200000000 + int64(i),
			WireTransferNumber:  300000000 + int64(i),
		})
	}
	accounts = append(accounts, models.Account{
		AccountNumber:       377336819,
		Balance:             decimal.NewFromInt(1000000),
		RoutingNumber:       100000009,
		DirectDepositNumber: 200000009,
		WireTransferNumber:  300000009,
	})
	return accounts
}
