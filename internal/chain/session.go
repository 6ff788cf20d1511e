package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Session is the explicit account context a submission runs under. It
// replaces any ambient wallet state: components receive a Session from the
// caller, and the batch capability is decided once at connect time, never
// re-derived per call.
type Session struct {
	Address             common.Address
	SupportsAtomicBatch bool
	SmartAccount        common.Address // batch entry point; zero unless SupportsAtomicBatch

	transactOpts *bind.TransactOpts
}

// SessionConfig configures a signing session.
type SessionConfig struct {
	PrivateKeyHex       string
	ChainID             *big.Int
	SupportsAtomicBatch bool
	SmartAccount        common.Address
}

// NewSession builds a session from a signing key. A session with batch
// support must name the smart account that executes the bundle.
func NewSession(cfg SessionConfig) (*Session, error) {
	key, err := parsePrivateKey(cfg.PrivateKeyHex)
	if err != nil {
		return nil, err
	}
	if cfg.ChainID == nil {
		return nil, fmt.Errorf("chain id is required")
	}
	if cfg.SupportsAtomicBatch && cfg.SmartAccount == (common.Address{}) {
		return nil, fmt.Errorf("batch-capable session requires a smart account address")
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, cfg.ChainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	opts.GasLimit = 0 // let the node estimate
	opts.GasPrice = nil
	opts.Nonce = nil

	return &Session{
		Address:             crypto.PubkeyToAddress(key.PublicKey),
		SupportsAtomicBatch: cfg.SupportsAtomicBatch,
		SmartAccount:        cfg.SmartAccount,
		transactOpts:        opts,
	}, nil
}

// opts returns a per-call copy of the transact options bound to ctx.
func (s *Session) opts(ctx context.Context) *bind.TransactOpts {
	o := *s.transactOpts
	o.Context = ctx
	return &o
}

func parsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("private key is required")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}
