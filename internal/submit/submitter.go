// Package submit drives execution plans onto the chain. Two submission paths
// exist: sequential per-call writes with a confirmation barrier between each
// call and its successor, and a single atomic batch through a smart account.
// The path is chosen from the session's capability, never per request.
package submit

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/chain"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/errors"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/logging"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
)

// ChainWriter is the write-side surface the submitter needs from the chain
// client.
type ChainWriter interface {
	Write(ctx context.Context, session *chain.Session, call types.PlannedCall) (common.Hash, error)
	SendBatch(ctx context.Context, session *chain.Session, calls []types.PlannedCall) (common.Hash, error)
	WaitForReceipt(ctx context.Context, txHash common.Hash, timeout time.Duration) (*ethtypes.Receipt, error)
}

// AccountInvalidator drops cached account state after a confirmed submission.
// Cached entries are invalidated, never updated in place.
type AccountInvalidator interface {
	InvalidateAccounts(ctx context.Context, addrs []common.Address)
}

// Result reports a completed submission. Sequential submissions carry one
// hash per call; batch submissions carry exactly one.
type Result struct {
	TxHashes       []common.Hash `json:"txHashes"`
	CallsCompleted int           `json:"callsCompleted"`
	Batched        bool          `json:"batched"`
}

// Submitter executes plans for a single operator session. At most one
// submission per sender may be in flight at a time.
type Submitter struct {
	writer         ChainWriter
	session        *chain.Session
	receiptTimeout time.Duration
	invalidator    AccountInvalidator

	mu       sync.Mutex
	inFlight map[common.Address]bool
}

// Config configures a submitter. Invalidator may be nil.
type Config struct {
	Writer         ChainWriter
	Session        *chain.Session
	ReceiptTimeout time.Duration
	Invalidator    AccountInvalidator
}

// NewSubmitter creates a submitter for the given session.
func NewSubmitter(cfg Config) *Submitter {
	timeout := cfg.ReceiptTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Submitter{
		writer:         cfg.Writer,
		session:        cfg.Session,
		receiptTimeout: timeout,
		invalidator:    cfg.Invalidator,
		inFlight:       make(map[common.Address]bool),
	}
}

// Submit executes a plan to completion. A second submission for the same
// sender while one is in flight fails fast with SUBMISSION_IN_PROGRESS.
func (s *Submitter) Submit(ctx context.Context, plan *types.ExecutionPlan) (*Result, error) {
	if plan.Empty() {
		return nil, errors.NewInternalError("execution plan has no calls", nil)
	}
	if !s.acquire(plan.Sender) {
		return nil, errors.NewSubmissionBusyError(plan.Sender.Hex())
	}
	defer s.release(plan.Sender)

	log := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"sender": plan.Sender.Hex(),
		"calls":  len(plan.Calls),
		"batch":  s.session.SupportsAtomicBatch,
	})

	var (
		result *Result
		err    error
	)
	if s.session.SupportsAtomicBatch {
		result, err = s.submitBatch(ctx, plan)
	} else {
		result, err = s.submitSequential(ctx, plan)
	}
	if err != nil {
		log.WithError(err).Error("Submission failed")
		return nil, err
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateAccounts(ctx, affectedAccounts(plan))
	}
	log.WithField("txHashes", len(result.TxHashes)).Info("Submission confirmed")
	return result, nil
}

// submitSequential sends each call as its own transaction and waits for its
// receipt before issuing the next. A failure at call i leaves calls 0..i-1
// confirmed on chain; the error reports that partial completion.
func (s *Submitter) submitSequential(ctx context.Context, plan *types.ExecutionPlan) (*Result, error) {
	result := &Result{TxHashes: make([]common.Hash, 0, len(plan.Calls))}

	for i, call := range plan.Calls {
		hash, err := s.writer.Write(ctx, s.session, call)
		if err != nil {
			return nil, errors.NewSubmissionError(writeCode(err), i, i, err)
		}

		receipt, err := s.writer.WaitForReceipt(ctx, hash, s.receiptTimeout)
		if err != nil {
			var timeout *chain.ConfirmationTimeoutError
			if stderrors.As(err, &timeout) {
				return nil, errors.NewSubmissionError(errors.CodeConfirmationTimeout, i, i, err)
			}
			return nil, errors.NewSubmissionError(errors.CodeUnknown, i, i, err)
		}
		if receipt.Status == ethtypes.ReceiptStatusFailed {
			return nil, errors.NewSubmissionError(errors.CodeReverted, i, i,
				&chain.WriteError{Method: call.Method, Reason: chain.ReasonReverted})
		}

		result.TxHashes = append(result.TxHashes, hash)
		result.CallsCompleted = i + 1
	}
	return result, nil
}

// submitBatch submits the whole plan as one executeBatch transaction. The
// plan either lands atomically or not at all; a failure never leaves a
// partial prefix on chain.
func (s *Submitter) submitBatch(ctx context.Context, plan *types.ExecutionPlan) (*Result, error) {
	hash, err := s.writer.SendBatch(ctx, s.session, plan.Calls)
	if err != nil {
		return nil, errors.NewSubmissionError(writeCode(err), 0, -1, err)
	}

	receipt, err := s.writer.WaitForReceipt(ctx, hash, s.receiptTimeout)
	if err != nil {
		var timeout *chain.ConfirmationTimeoutError
		if stderrors.As(err, &timeout) {
			return nil, errors.NewSubmissionError(errors.CodeConfirmationTimeout, 0, -1, err)
		}
		return nil, errors.NewSubmissionError(errors.CodeUnknown, 0, -1, err)
	}
	if receipt.Status == ethtypes.ReceiptStatusFailed {
		return nil, errors.NewSubmissionError(errors.CodeReverted, 0, -1,
			&chain.WriteError{Method: "executeBatch", Reason: chain.ReasonReverted})
	}

	return &Result{
		TxHashes:       []common.Hash{hash},
		CallsCompleted: len(plan.Calls),
		Batched:        true,
	}, nil
}

func (s *Submitter) acquire(sender common.Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[sender] {
		return false
	}
	s.inFlight[sender] = true
	return true
}

func (s *Submitter) release(sender common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, sender)
}

// writeCode maps a classified chain write failure onto an error code.
func writeCode(err error) string {
	var werr *chain.WriteError
	if !stderrors.As(err, &werr) {
		return errors.CodeUnknown
	}
	switch werr.Reason {
	case chain.ReasonUserRejected:
		return errors.CodeUserRejected
	case chain.ReasonInsufficientFunds:
		return errors.CodeInsufficientGas
	case chain.ReasonReverted:
		return errors.CodeReverted
	default:
		return errors.CodeUnknown
	}
}

// affectedAccounts lists every address whose cached account state may be
// stale after the plan confirms.
func affectedAccounts(plan *types.ExecutionPlan) []common.Address {
	seen := map[common.Address]bool{plan.Sender: true}
	addrs := []common.Address{plan.Sender}
	for _, call := range plan.Calls {
		switch call.Tag {
		case types.TagTransfer:
			if len(call.Args) > 0 {
				if addr, ok := call.Args[0].(common.Address); ok && !seen[addr] {
					seen[addr] = true
					addrs = append(addrs, addr)
				}
			}
		case types.TagBatchTransfer:
			if len(call.Args) > 0 {
				if list, ok := call.Args[0].([]common.Address); ok {
					for _, addr := range list {
						if !seen[addr] {
							seen[addr] = true
							addrs = append(addrs, addr)
						}
					}
				}
			}
		}
	}
	return addrs
}
