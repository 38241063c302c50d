// cmd/backfill/main.go
//
// Out-of-band mirror repair: walks every campaign account under the program
// and upserts it into the mirror. This is the recovery path for campaigns
// that confirmed on the ledger but never reached the mirror, and for drift
// with no surviving event to replay.
package main

import (
	"context"
	"os"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/Rohan-Singla/solfund-backend/internal/config"
	"github.com/Rohan-Singla/solfund-backend/internal/db"
	"github.com/Rohan-Singla/solfund-backend/internal/ledger"
	"github.com/Rohan-Singla/solfund-backend/internal/pda"
	"github.com/Rohan-Singla/solfund-backend/internal/repository"
	"github.com/Rohan-Singla/solfund-backend/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "backfill").Logger()

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
		Log:           logger,
	}

	client := rpc.New(cfg.RPCEndpoint)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	accounts, err := client.GetProgramAccounts(ctx, pda.ProgramID)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to list program accounts")
	}

	var upserted, skipped int
	for _, keyed := range accounts {
		acct, err := ledger.DecodeCampaignAccount(keyed.Account.Data.GetBinary())
		if err != nil {
			// Contribution accounts live under the same program; skip them.
			skipped++
			continue
		}
		if err := reconciler.BackfillCampaign(keyed.Pubkey.String(), acct); err != nil {
			logger.Error().Err(err).Str("escrow", keyed.Pubkey.String()).Msg("failed to upsert campaign")
			continue
		}
		upserted++
	}

	logger.Info().Int("upserted", upserted).Int("skipped", skipped).Msg("backfill complete")
}
