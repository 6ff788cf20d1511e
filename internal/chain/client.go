// Package chain is the single point of contact-call encoding, read execution,
// and write submission against the remittance contract and its tokens.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/logging"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
)

// Client wraps an ethclient connection with the remittance, ERC-20 and
// smart-account ABIs. Reads go straight to the RPC node; writes go through
// the session's transactor.
type Client struct {
	eth      *ethclient.Client
	chainID  *big.Int
	contract common.Address

	remitABI abi.ABI
	erc20ABI abi.ABI
	batchABI abi.ABI

	remitBound *bind.BoundContract

	pollInterval time.Duration
}

// ClientConfig configures the chain client.
type ClientConfig struct {
	RPCURL          string
	ContractAddress string
}

// NewClient dials the RPC endpoint and binds the remittance contract.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid remittance contract address: %s", cfg.ContractAddress)
	}

	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}

	remitABI, erc20ABI, batchABI := MustParseABIs()
	contract := common.HexToAddress(cfg.ContractAddress)

	return &Client{
		eth:          eth,
		chainID:      chainID,
		contract:     contract,
		remitABI:     remitABI,
		erc20ABI:     erc20ABI,
		batchABI:     batchABI,
		remitBound:   bind.NewBoundContract(contract, remitABI, eth, eth, eth),
		pollInterval: 2 * time.Second,
	}, nil
}

// ChainID returns the connected chain's id.
func (c *Client) ChainID() *big.Int { return c.chainID }

// ContractAddress returns the remittance contract address.
func (c *Client) ContractAddress() common.Address { return c.contract }

// Close closes the underlying RPC connection.
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}

// IsTokenSupported asks the contract whether it accepts the token. A false
// answer is a valid result, not an error.
func (c *Client) IsTokenSupported(ctx context.Context, token common.Address) (bool, error) {
	var out []interface{}
	err := c.remitBound.Call(&bind.CallOpts{Context: ctx}, &out, "supportedStablecoins", token)
	if err != nil {
		return false, &ReadError{Method: "supportedStablecoins", Cause: err}
	}
	supported, ok := out[0].(bool)
	if !ok {
		return false, &ReadError{Method: "supportedStablecoins", Cause: fmt.Errorf("unexpected result type %T", out[0])}
	}
	return supported, nil
}

// GetUser reads the contract's account record for an address.
func (c *Client) GetUser(ctx context.Context, addr common.Address) (*types.UserAccountState, error) {
	var out []interface{}
	err := c.remitBound.Call(&bind.CallOpts{Context: ctx}, &out, "getUser", addr)
	if err != nil {
		return nil, &ReadError{Method: "getUser", Cause: err}
	}
	if len(out) != 8 {
		return nil, &ReadError{Method: "getUser", Cause: fmt.Errorf("expected 8 outputs, got %d", len(out))}
	}

	state := &types.UserAccountState{
		Address:          addr,
		IsRegistered:     out[0].(bool),
		Referrer:         out[1].(common.Address),
		TotalTransferred: out[2].(*big.Int),
		TotalReceived:    out[3].(*big.Int),
		CashbackEarned:   out[4].(*big.Int),
		ReferralRewards:  out[5].(*big.Int),
	}
	state.ReferralCount = out[6].(*big.Int).Uint64()
	state.LastActivity = out[7].(*big.Int).Int64()
	return state, nil
}

// CalculateFee reads the contract fee for a principal. Advisory only.
func (c *Client) CalculateFee(ctx context.Context, amount *big.Int) (*big.Int, error) {
	var out []interface{}
	err := c.remitBound.Call(&bind.CallOpts{Context: ctx}, &out, "calculateFee", amount)
	if err != nil {
		return nil, &ReadError{Method: "calculateFee", Cause: err}
	}
	return out[0].(*big.Int), nil
}

// BalanceOf reads an ERC-20 balance.
func (c *Client) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	bound := bind.NewBoundContract(token, c.erc20ABI, c.eth, c.eth, c.eth)
	var out []interface{}
	if err := bound.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", owner); err != nil {
		return nil, &ReadError{Method: "balanceOf", Cause: err}
	}
	return out[0].(*big.Int), nil
}

// Allowance reads the amount the remittance contract may pull from owner.
func (c *Client) Allowance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	bound := bind.NewBoundContract(token, c.erc20ABI, c.eth, c.eth, c.eth)
	var out []interface{}
	if err := bound.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, c.contract); err != nil {
		return nil, &ReadError{Method: "allowance", Cause: err}
	}
	return out[0].(*big.Int), nil
}

// GetUserTransactionIds reads a bounded window of logical transfer ids.
func (c *Client) GetUserTransactionIds(ctx context.Context, addr common.Address, start, count uint64) ([]*big.Int, error) {
	var out []interface{}
	err := c.remitBound.Call(&bind.CallOpts{Context: ctx}, &out, "getUserTransactionIds",
		addr, new(big.Int).SetUint64(start), new(big.Int).SetUint64(count))
	if err != nil {
		return nil, &ReadError{Method: "getUserTransactionIds", Cause: err}
	}
	ids, ok := out[0].([]*big.Int)
	if !ok {
		return nil, &ReadError{Method: "getUserTransactionIds", Cause: fmt.Errorf("unexpected result type %T", out[0])}
	}
	return ids, nil
}

// ContractTransaction mirrors the contract's getTransaction tuple.
type ContractTransaction struct {
	ID        *big.Int
	Sender    common.Address
	Recipient common.Address
	Amount    *big.Int
	Fee       *big.Int
	Cashback  *big.Int
	Timestamp *big.Int
	Country   string
	Token     common.Address
	GroupID   *big.Int
	Completed bool
}

// GetTransaction reads the full transfer tuple for a logical id.
func (c *Client) GetTransaction(ctx context.Context, id *big.Int) (*ContractTransaction, error) {
	var out []interface{}
	err := c.remitBound.Call(&bind.CallOpts{Context: ctx}, &out, "getTransaction", id)
	if err != nil {
		return nil, &ReadError{Method: "getTransaction", Cause: err}
	}
	if len(out) != 10 {
		return nil, &ReadError{Method: "getTransaction", Cause: fmt.Errorf("expected 10 outputs, got %d", len(out))}
	}
	return &ContractTransaction{
		ID:        new(big.Int).Set(id),
		Sender:    out[0].(common.Address),
		Recipient: out[1].(common.Address),
		Amount:    out[2].(*big.Int),
		Fee:       out[3].(*big.Int),
		Cashback:  out[4].(*big.Int),
		Timestamp: out[5].(*big.Int),
		Country:   out[6].(string),
		Token:     out[7].(common.Address),
		GroupID:   out[8].(*big.Int),
		Completed: out[9].(bool),
	}, nil
}

// TransferEvent is one decoded TransferInitiated log.
type TransferEvent struct {
	TxID      *big.Int
	Sender    common.Address
	Recipient common.Address
	TxHash    common.Hash
}

// LogDirection selects which indexed topic an event query filters on.
type LogDirection int

const (
	// DirectionSender filters TransferInitiated by its sender topic.
	DirectionSender LogDirection = iota
	// DirectionRecipient filters TransferInitiated by its recipient topic.
	DirectionRecipient
)

// FilterTransferInitiated fetches TransferInitiated logs with the given
// address in the chosen indexed position, across the full log range.
func (c *Client) FilterTransferInitiated(ctx context.Context, addr common.Address, dir LogDirection) ([]TransferEvent, error) {
	eventID := c.remitABI.Events["TransferInitiated"].ID
	addrTopic := common.BytesToHash(addr.Bytes())

	topics := [][]common.Hash{{eventID}}
	switch dir {
	case DirectionSender:
		topics = append(topics, []common.Hash{addrTopic})
	case DirectionRecipient:
		topics = append(topics, nil, []common.Hash{addrTopic})
	}

	logs, err := c.eth.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{c.contract},
		Topics:    topics,
	})
	if err != nil {
		return nil, &ReadError{Method: "TransferInitiated logs", Cause: err}
	}

	events := make([]TransferEvent, 0, len(logs))
	for _, lg := range logs {
		if len(lg.Topics) < 3 {
			continue
		}
		vals, err := c.remitABI.Unpack("TransferInitiated", lg.Data)
		if err != nil || len(vals) == 0 {
			logging.FromContext(ctx).WithField("txHash", lg.TxHash.Hex()).Warn("Skipping undecodable TransferInitiated log")
			continue
		}
		txID, ok := vals[0].(*big.Int)
		if !ok {
			continue
		}
		events = append(events, TransferEvent{
			TxID:      txID,
			Sender:    common.BytesToAddress(lg.Topics[1].Bytes()),
			Recipient: common.BytesToAddress(lg.Topics[2].Bytes()),
			TxHash:    lg.TxHash,
		})
	}
	return events, nil
}

// Pack ABI-encodes a planned call's arguments for the method, choosing the
// ABI the method belongs to.
func (c *Client) Pack(method string, args ...interface{}) ([]byte, error) {
	target, err := c.abiFor(method)
	if err != nil {
		return nil, err
	}
	data, err := target.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}

func (c *Client) abiFor(method string) (abi.ABI, error) {
	if _, ok := c.remitABI.Methods[method]; ok {
		return c.remitABI, nil
	}
	if _, ok := c.erc20ABI.Methods[method]; ok {
		return c.erc20ABI, nil
	}
	if _, ok := c.batchABI.Methods[method]; ok {
		return c.batchABI, nil
	}
	return abi.ABI{}, fmt.Errorf("unknown method %q", method)
}

// Write submits one state-changing call through the session. The returned
// hash identifies the pending transaction; callers decide whether to wait.
func (c *Client) Write(ctx context.Context, session *Session, call types.PlannedCall) (common.Hash, error) {
	callABI, err := c.abiFor(call.Method)
	if err != nil {
		return common.Hash{}, &WriteError{Method: call.Method, Reason: ReasonUnknown, Cause: err}
	}

	bound := bind.NewBoundContract(call.Target, callABI, c.eth, c.eth, c.eth)
	tx, err := bound.Transact(session.opts(ctx), call.Method, call.Args...)
	if err != nil {
		return common.Hash{}, &WriteError{Method: call.Method, Reason: classifyWriteError(err), Cause: err}
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"method": call.Method,
		"tag":    string(call.Tag),
		"txHash": tx.Hash().Hex(),
	}).Info("Transaction submitted")

	return tx.Hash(), nil
}

// SendBatch submits every planned call as one atomic bundle through the
// session's smart account. Only valid for batch-capable sessions; either one
// hash comes back or nothing was issued.
func (c *Client) SendBatch(ctx context.Context, session *Session, calls []types.PlannedCall) (common.Hash, error) {
	if !session.SupportsAtomicBatch {
		return common.Hash{}, &WriteError{
			Method: "executeBatch",
			Reason: ReasonUnknown,
			Cause:  fmt.Errorf("session %s does not support atomic batches", session.Address.Hex()),
		}
	}
	if len(calls) == 0 {
		return common.Hash{}, &WriteError{Method: "executeBatch", Reason: ReasonUnknown, Cause: fmt.Errorf("empty batch")}
	}

	targets := make([]common.Address, len(calls))
	payloads := make([][]byte, len(calls))
	for i, call := range calls {
		if len(call.CallData) == 0 {
			return common.Hash{}, &WriteError{
				Method: "executeBatch",
				Reason: ReasonUnknown,
				Cause:  fmt.Errorf("call %d (%s) carries no calldata", i, call.Method),
			}
		}
		targets[i] = call.Target
		payloads[i] = call.CallData
	}

	bound := bind.NewBoundContract(session.SmartAccount, c.batchABI, c.eth, c.eth, c.eth)
	tx, err := bound.Transact(session.opts(ctx), "executeBatch", targets, payloads)
	if err != nil {
		return common.Hash{}, &WriteError{Method: "executeBatch", Reason: classifyWriteError(err), Cause: err}
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"calls":  len(calls),
		"txHash": tx.Hash().Hex(),
	}).Info("Batch submitted")

	return tx.Hash(), nil
}

// WaitForReceipt polls until the transaction is mined, the context is
// cancelled, or the timeout elapses. A timeout is a distinct outcome: the
// transaction may still mine later.
func (c *Client) WaitForReceipt(ctx context.Context, txHash common.Hash, timeout time.Duration) (*ethtypes.Receipt, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, txHash)
		if receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, &ReadError{Method: "TransactionReceipt", Cause: err}
		}
		if time.Now().After(deadline) {
			return nil, &ConfirmationTimeoutError{TxHash: txHash.Hex(), Timeout: timeout.String()}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
