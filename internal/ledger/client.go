// internal/ledger/client.go
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
)

// ErrAccountNotFound is returned when the requested account does not exist on
// the ledger.
var ErrAccountNotFound = errors.New("ledger account not found")

// ErrSubmissionTimeout marks an ambiguous outcome: the transaction was sent
// but confirmation never arrived. The caller must re-query the ledger for the
// expected post-state before retrying; it must never assume failure.
var ErrSubmissionTimeout = errors.New("ledger submission timed out")

// Client is the coordinator's view of the ledger program. Reads return the
// authoritative on-chain state; writes submit one signed instruction and
// return its signature, or a typed *apperr.LedgerRejection.
type Client interface {
	GetCampaign(ctx context.Context, escrow solana.PublicKey) (*CampaignAccount, error)
	GetContribution(ctx context.Context, address solana.PublicKey) (*ContributionAccount, error)

	CreateCampaign(ctx context.Context, creator, escrow solana.PublicKey, goal uint64, deadline int64) (solana.Signature, error)
	Contribute(ctx context.Context, contributor, escrow, contribution solana.PublicKey, lamports uint64) (solana.Signature, error)
	Refund(ctx context.Context, contributor, escrow, contribution solana.PublicKey) (solana.Signature, error)
	Withdraw(ctx context.Context, escrow, creator solana.PublicKey) (solana.Signature, error)
}

// Keyring resolves the private key that signs for an identity. The API server
// holds no user keys in production; a wallet-backed keyring fronts the wallet
// layer there, while devnet deployments load local keys from config.
type Keyring interface {
	PrivateKeyFor(pub solana.PublicKey) (solana.PrivateKey, bool)
}

// LocalKeyring is an in-memory Keyring for devnet and tests.
type LocalKeyring map[solana.PublicKey]solana.PrivateKey

func (k LocalKeyring) PrivateKeyFor(pub solana.PublicKey) (solana.PrivateKey, bool) {
	key, ok := k[pub]
	return key, ok
}

// RPCClient implements Client over a Solana JSON-RPC endpoint.
type RPCClient struct {
	RPC     *rpc.Client
	Keyring Keyring
	Log     zerolog.Logger
}

func NewRPCClient(endpoint string, keyring Keyring, log zerolog.Logger) *RPCClient {
	return &RPCClient{
		RPC:     rpc.New(endpoint),
		Keyring: keyring,
		Log:     log.With().Str("component", "ledger").Logger(),
	}
}

func (c *RPCClient) GetCampaign(ctx context.Context, escrow solana.PublicKey) (*CampaignAccount, error) {
	data, err := c.fetchAccountData(ctx, escrow)
	if err != nil {
		return nil, err
	}
	return DecodeCampaignAccount(data)
}

func (c *RPCClient) GetContribution(ctx context.Context, address solana.PublicKey) (*ContributionAccount, error) {
	data, err := c.fetchAccountData(ctx, address)
	if err != nil {
		return nil, err
	}
	return DecodeContributionAccount(data)
}

func (c *RPCClient) fetchAccountData(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	res, err := c.RPC.GetAccountInfo(ctx, address)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("fetch account %s: %w", address, err)
	}
	if res == nil || res.Value == nil || res.Value.Data == nil {
		return nil, ErrAccountNotFound
	}
	return res.Value.Data.GetBinary(), nil
}

func (c *RPCClient) CreateCampaign(ctx context.Context, creator, escrow solana.PublicKey, goal uint64, deadline int64) (solana.Signature, error) {
	ins := createCampaignInstruction(creator, escrow, goal, deadline)
	return c.submit(ctx, ins, creator)
}

func (c *RPCClient) Contribute(ctx context.Context, contributor, escrow, contribution solana.PublicKey, lamports uint64) (solana.Signature, error) {
	ins := contributeInstruction(contributor, escrow, contribution, lamports)
	return c.submit(ctx, ins, contributor)
}

func (c *RPCClient) Refund(ctx context.Context, contributor, escrow, contribution solana.PublicKey) (solana.Signature, error) {
	ins := refundInstruction(contributor, escrow, contribution)
	return c.submit(ctx, ins, contributor)
}

func (c *RPCClient) Withdraw(ctx context.Context, escrow, creator solana.PublicKey) (solana.Signature, error) {
	ins := withdrawInstruction(escrow, creator)
	return c.submit(ctx, ins, creator)
}

// submit builds, signs and sends a single-instruction transaction. A context
// deadline expiring here is reported as ErrSubmissionTimeout because the
// transaction may still land after we stop waiting.
func (c *RPCClient) submit(ctx context.Context, ins solana.Instruction, signer solana.PublicKey) (solana.Signature, error) {
	key, ok := c.Keyring.PrivateKeyFor(signer)
	if !ok {
		return solana.Signature{}, fmt.Errorf("no signing key for %s", signer)
	}

	recent, err := c.RPC.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("fetch blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ins},
		recent.Value.Blockhash,
		solana.TransactionPayer(signer),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}

	if _, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(signer) {
			return &key
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}

	sig, err := c.RPC.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentProcessed,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return solana.Signature{}, ErrSubmissionTimeout
		}
		return solana.Signature{}, mapSubmissionError(err)
	}

	c.Log.Debug().Str("signature", sig.String()).Msg("transaction submitted")
	return sig, nil
}
