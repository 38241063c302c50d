// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/Rohan-Singla/solfund-backend/internal/config"
	"github.com/Rohan-Singla/solfund-backend/internal/controller"
	"github.com/Rohan-Singla/solfund-backend/internal/db"
	"github.com/Rohan-Singla/solfund-backend/internal/ledger"
	"github.com/Rohan-Singla/solfund-backend/internal/model"
	"github.com/Rohan-Singla/solfund-backend/internal/queue"
	"github.com/Rohan-Singla/solfund-backend/internal/repository"
	"github.com/Rohan-Singla/solfund-backend/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mirror database")
	}
	defer conn.Close()

	keyring := ledger.LocalKeyring{}
	if cfg.FeePayerKey != "" {
		key, err := solana.PrivateKeyFromBase58(cfg.FeePayerKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid fee payer key")
		}
		keyring[key.PublicKey()] = key
	}

	campaigns := &repository.CampaignRepository{DB: conn}
	contributions := &repository.ContributionRepository{DB: conn}
	ledgerClient := ledger.NewRPCClient(cfg.RPCEndpoint, keyring, logger)

	reconciler := &service.Reconciler{
		Campaigns:     campaigns,
		Contributions: contributions,
		Journal:       &repository.EventJournal{DB: conn},
		Ledger:        ledgerClient,
		Log:           logger,
	}

	coordinator := &service.Coordinator{
		Campaigns:     campaigns,
		Contributions: contributions,
		Ledger:        ledgerClient,
		Events:        newEventFeed(cfg, reconciler, logger),
		Log:           logger,
	}

	campaignController := &controller.CampaignController{
		Coordinator: coordinator,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)
	r.Post("/campaigns/{id}/contribute", campaignController.Contribute)
	r.Post("/campaigns/{id}/refund", campaignController.Refund)
	r.Post("/campaigns/{id}/withdraw", campaignController.Withdraw)

	logger.Info().Str("port", cfg.Port).Msg("server listening")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

// newEventFeed wires the reconciliation feed: the durable amqp queue when a
// broker is reachable, otherwise an in-process fan-out with the reconciler
// subscribed directly. The fallback loses events on a crash (no durability),
// but keeps the mirror self-healing while the broker is down; cmd/backfill
// remains the repair for anything lost.
func newEventFeed(cfg config.Config, reconciler *service.Reconciler, logger zerolog.Logger) queue.Publisher {
	conn, err := amqpDial(cfg.AMQPURL)
	if err == nil {
		pub, err := queue.NewAMQPPublisher(conn, queue.LedgerEventsTopic)
		if err == nil {
			return pub
		}
		logger.Warn().Err(err).Msg("amqp queue declare failed, falling back to in-process feed")
	} else {
		logger.Warn().Err(err).Msg("amqp unavailable, falling back to in-process feed")
	}

	feed := queue.NewInMemoryQueue(logger)
	feed.Subscribe(queue.LedgerEventsTopic, func(payload any) error {
		ev, ok := payload.(model.LedgerEvent)
		if !ok {
			return fmt.Errorf("unexpected payload %T on %s", payload, queue.LedgerEventsTopic)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return reconciler.HandleEvent(ctx, ev)
	})
	return feed
}

func amqpDial(url string) (*amqp.Connection, error) {
	return amqp.Dial(url)
}
