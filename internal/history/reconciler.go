// Package history reconciles contract transfer state with transaction logs.
// The contract is the source of truth for transfer tuples; event logs only
// contribute the transaction hash. Log reads are best effort and never fail
// a history request.
package history

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/chain"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/errors"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/logging"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/retry"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/token"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
)

const (
	maxPageSize     = 100
	defaultPageSize = 20
)

// ChainHistoryReader is the read surface the reconciler needs.
type ChainHistoryReader interface {
	GetUserTransactionIds(ctx context.Context, addr common.Address, start, count uint64) ([]*big.Int, error)
	GetTransaction(ctx context.Context, id *big.Int) (*chain.ContractTransaction, error)
	FilterTransferInitiated(ctx context.Context, addr common.Address, dir chain.LogDirection) ([]chain.TransferEvent, error)
}

// Reconciler builds transaction history pages for an address.
type Reconciler struct {
	reader   ChainHistoryReader
	registry *token.Registry
	retryCfg *retry.Config
}

// NewReconciler creates a history reconciler.
func NewReconciler(reader ChainHistoryReader, registry *token.Registry) *Reconciler {
	return &Reconciler{
		reader:   reader,
		registry: registry,
		retryCfg: retry.DefaultConfig(),
	}
}

// WithRetryConfig overrides the backoff used for required chain reads.
func (r *Reconciler) WithRetryConfig(cfg *retry.Config) *Reconciler {
	r.retryCfg = cfg
	return r
}

// readWithRetry runs a required read under the reconciler's backoff config.
func (r *Reconciler) readWithRetry(ctx context.Context, fn retry.Func) error {
	result := retry.WithExponentialBackoff(ctx, r.retryCfg, fn)
	if !result.Success {
		return fmt.Errorf("operation failed after %d attempts: %w", result.Attempts, result.LastError)
	}
	return nil
}

// GetHistory returns a page of reconciled transfer records in the contract's
// order. start below zero clamps to zero; count clamps into [1, 100], with
// zero meaning the default page size.
func (r *Reconciler) GetHistory(ctx context.Context, addr common.Address, start, count int64) ([]types.TransactionRecord, error) {
	if start < 0 {
		start = 0
	}
	switch {
	case count == 0:
		count = defaultPageSize
	case count < 1:
		count = 1
	case count > maxPageSize:
		count = maxPageSize
	}

	var ids []*big.Int
	err := r.readWithRetry(ctx, func(ctx context.Context, _ int) error {
		var readErr error
		ids, readErr = r.reader.GetUserTransactionIds(ctx, addr, uint64(start), uint64(count))
		return readErr
	})
	if err != nil {
		return nil, errors.NewRequiredReadFailedError("getUserTransactionIds", err)
	}
	if len(ids) == 0 {
		return []types.TransactionRecord{}, nil
	}

	hashes := r.collectTxHashes(ctx, addr)

	records := make([]types.TransactionRecord, 0, len(ids))
	for _, id := range ids {
		var tx *chain.ContractTransaction
		err := r.readWithRetry(ctx, func(ctx context.Context, _ int) error {
			var readErr error
			tx, readErr = r.reader.GetTransaction(ctx, id)
			return readErr
		})
		if err != nil {
			return nil, errors.NewRequiredReadFailedError("getTransaction", err)
		}
		records = append(records, r.toRecord(tx, hashes[id.String()]))
	}
	return records, nil
}

// collectTxHashes joins TransferInitiated logs from both indexed positions
// into an id-to-hash map. A log fetch failure degrades to an empty map: the
// page still renders, just without hashes.
func (r *Reconciler) collectTxHashes(ctx context.Context, addr common.Address) map[string]common.Hash {
	hashes := make(map[string]common.Hash)
	for _, dir := range []chain.LogDirection{chain.DirectionSender, chain.DirectionRecipient} {
		events, err := r.reader.FilterTransferInitiated(ctx, addr, dir)
		if err != nil {
			logging.FromContext(ctx).WithError(err).WithField("address", addr.Hex()).
				Warn("Transfer log fetch failed, history will omit transaction hashes")
			continue
		}
		for _, ev := range events {
			key := ev.TxID.String()
			if _, ok := hashes[key]; !ok {
				hashes[key] = ev.TxHash
			}
		}
	}
	return hashes
}

func (r *Reconciler) toRecord(tx *chain.ContractTransaction, txHash common.Hash) types.TransactionRecord {
	symbol := "UNKNOWN"
	decimals := 0
	if desc, ok := r.registry.ByAddress(tx.Token); ok {
		symbol = desc.Symbol
		decimals = desc.Decimals
	}

	record := types.TransactionRecord{
		ID:          tx.ID.String(),
		Sender:      tx.Sender.Hex(),
		Recipient:   tx.Recipient.Hex(),
		Amount:      token.FromBaseUnits(tx.Amount, decimals),
		TokenSymbol: symbol,
		Country:     tx.Country,
		Fee:         token.FromBaseUnits(tx.Fee, decimals),
		Cashback:    token.FromBaseUnits(tx.Cashback, decimals),
		Timestamp:   tx.Timestamp.Int64(),
		Completed:   tx.Completed,
	}
	if txHash != (common.Hash{}) {
		record.TxHash = txHash.Hex()
	}
	if tx.GroupID != nil && tx.GroupID.Sign() > 0 {
		record.GroupID = tx.GroupID.String()
	}
	return record
}
