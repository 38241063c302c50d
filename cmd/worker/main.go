// cmd/worker/main.go
//
// Reconciliation worker: consumes the durable ledger event feed and replays
// it into the mirror. Redelivered events are dropped by the signature
// journal, so acking only after a successful apply is safe.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/Rohan-Singla/solfund-backend/internal/config"
	"github.com/Rohan-Singla/solfund-backend/internal/db"
	"github.com/Rohan-Singla/solfund-backend/internal/ledger"
	"github.com/Rohan-Singla/solfund-backend/internal/model"
	"github.com/Rohan-Singla/solfund-backend/internal/queue"
	"github.com/Rohan-Singla/solfund-backend/internal/repository"
	"github.com/Rohan-Singla/solfund-backend/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "worker").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mirror database")
	}
	defer conn.Close()

	reconciler := &service.Reconciler{
		Campaigns:     &repository.CampaignRepository{DB: conn},
		Contributions: &repository.ContributionRepository{DB: conn},
		Journal:       &repository.EventJournal{DB: conn},
		Ledger:        ledger.NewRPCClient(cfg.RPCEndpoint, ledger.LocalKeyring{}, logger),
		Log:           logger,
	}

	mq, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to amqp")
	}
	defer mq.Close()

	ch, err := mq.Channel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open channel")
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		queue.LedgerEventsTopic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to declare queue")
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register consumer")
	}

	logger.Info().Msg("replaying ledger events into the mirror")

	for d := range msgs {
		var ev model.LedgerEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			logger.Error().Err(err).Msg("dropping malformed event")
			d.Nack(false, false)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := reconciler.HandleEvent(ctx, ev)
		cancel()

		if err != nil {
			// Reconciliation is idempotent, so requeueing is always safe.
			logger.Error().Err(err).Str("kind", ev.Kind).Str("signature", ev.Signature).Msg("failed to apply event, requeueing")
			d.Nack(false, true)
			continue
		}

		d.Ack(false)
	}
}
