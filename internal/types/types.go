// Package types defines the domain types shared across the remittance gateway.
package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TokenDescriptor describes a stablecoin the gateway knows how to move.
type TokenDescriptor struct {
	Symbol   string         `json:"symbol"`
	Address  common.Address `json:"address"`
	Decimals int            `json:"decimals"` // 0..18
}

// TransferRequest is a single-recipient remittance request.
type TransferRequest struct {
	Sender    common.Address `json:"sender"`
	Recipient common.Address `json:"recipient"`
	Token     string         `json:"token"`  // token symbol, resolved via the registry
	Amount    string         `json:"amount"` // decimal amount, e.g. "50" or "12.75"
	Country   string         `json:"country"`
	Memo      string         `json:"memo,omitempty"`
}

// GroupRecipient is one leg of a group payment.
type GroupRecipient struct {
	Recipient common.Address `json:"recipient"`
	Amount    string         `json:"amount"`
}

// GroupPaymentRequest fans one token out to several recipients in one bundle.
type GroupPaymentRequest struct {
	Sender     common.Address   `json:"sender"`
	Token      string           `json:"token"`
	Recipients []GroupRecipient `json:"recipients"`
	Country    string           `json:"country"`
}

// Quote is the validator's verdict on a transfer request. Fee is advisory:
// FeeUnits is nil when the fee read failed, and the flow proceeds with
// principal-only allowance sizing.
type Quote struct {
	PrincipalUnits       *big.Int
	FeeUnits             *big.Int
	RequiresRegistration bool
	Token                TokenDescriptor
}

// CallTag labels a planned call's role in the plan.
type CallTag string

const (
	TagRegister      CallTag = "register"
	TagApprove       CallTag = "approve"
	TagTransfer      CallTag = "transfer"
	TagBatchTransfer CallTag = "batchTransfer"
	TagWithdraw      CallTag = "withdraw"
)

// PlannedCall is one on-chain call in an execution plan. CallData carries the
// ABI-encoded arguments so the batch path can submit it without re-encoding.
type PlannedCall struct {
	Target   common.Address
	Method   string
	Args     []interface{}
	CallData []byte
	Tag      CallTag
}

// ExecutionPlan is an ordered sequence of calls. A register call, if present,
// always precedes approve/transfer; an approve always precedes the call that
// spends its allowance.
type ExecutionPlan struct {
	Sender common.Address
	Calls  []PlannedCall
}

// Empty reports whether the plan carries no calls.
func (p *ExecutionPlan) Empty() bool {
	return p == nil || len(p.Calls) == 0
}

// Tags returns the plan's call tags in order. Test helper and log fodder.
func (p *ExecutionPlan) Tags() []CallTag {
	tags := make([]CallTag, len(p.Calls))
	for i, c := range p.Calls {
		tags[i] = c.Tag
	}
	return tags
}

// UserAccountState mirrors the contract's getUser tuple. Owned by the
// contract; the gateway holds a short-TTL read-through cache keyed by address.
type UserAccountState struct {
	Address          common.Address `json:"address"`
	IsRegistered     bool           `json:"isRegistered"`
	Referrer         common.Address `json:"referrer"`
	TotalTransferred *big.Int       `json:"totalTransferred"`
	TotalReceived    *big.Int       `json:"totalReceived"`
	CashbackEarned   *big.Int       `json:"cashbackEarned"`
	ReferralRewards  *big.Int       `json:"referralRewards"`
	ReferralCount    uint64         `json:"referralCount"`
	LastActivity     int64          `json:"lastActivity"`
}

// TransactionRecord is one reconciled history entry. TxHash is empty when
// log correlation failed; such records are valid and must render without it.
type TransactionRecord struct {
	ID          string `json:"id"`
	Sender      string `json:"sender"`
	Recipient   string `json:"recipient"`
	Amount      string `json:"amount"`
	TokenSymbol string `json:"tokenSymbol"`
	Country     string `json:"country"`
	Fee         string `json:"fee"`
	Cashback    string `json:"cashback"`
	Timestamp   int64  `json:"timestamp"`
	Completed   bool   `json:"completed"`
	TxHash      string `json:"txHash,omitempty"`
	GroupID     string `json:"groupId,omitempty"`
}

// Contact is client-local state persisted for the frontend; never derived
// from chain state. Owner and Address are stored lower-cased so lookups
// match regardless of checksum casing.
type Contact struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ServiceError is the structured error surfaced through the HTTP layer.
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
