// Package validate implements the preflight checks that run before any write:
// token resolution, contract acceptance, registration status, advisory fee
// and balance reads. Expected business outcomes come back as a typed
// ValidationFailure; only infrastructure failures are returned as errors.
package validate

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/errors"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/logging"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/token"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
)

// ChainReader is the read surface the validator needs. The chain client
// satisfies it; tests supply fakes.
type ChainReader interface {
	IsTokenSupported(ctx context.Context, token common.Address) (bool, error)
	GetUser(ctx context.Context, addr common.Address) (*types.UserAccountState, error)
	CalculateFee(ctx context.Context, amount *big.Int) (*big.Int, error)
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

// Validator runs preflight checks against the registry and the chain.
type Validator struct {
	reader   ChainReader
	registry *token.Registry
}

// NewValidator creates a preflight validator.
func NewValidator(reader ChainReader, registry *token.Registry) *Validator {
	return &Validator{reader: reader, registry: registry}
}

// ValidateTransfer checks a single-recipient request. The returned failure is
// an expected business outcome (bad token, short balance); the returned error
// is an infrastructure fault that prevented validation entirely.
func (v *Validator) ValidateTransfer(ctx context.Context, req *types.TransferRequest) (*types.Quote, *errors.CategorizedError, error) {
	if failure := v.checkAddresses(req.Sender, req.Recipient); failure != nil {
		return nil, failure, nil
	}

	desc, principal, failure := v.resolveAmount(req.Token, req.Amount)
	if failure != nil {
		return nil, failure, nil
	}

	return v.buildQuote(ctx, req.Sender, desc, principal)
}

// ValidateGroupPayment checks a group request and returns a quote for the
// summed principal.
func (v *Validator) ValidateGroupPayment(ctx context.Context, req *types.GroupPaymentRequest) (*types.Quote, *errors.CategorizedError, error) {
	if req.Sender == (common.Address{}) {
		return nil, errors.NewInvalidAddressError("sender", req.Sender.Hex()), nil
	}
	if len(req.Recipients) == 0 {
		return nil, errors.NewInvalidAmountError("", "group payment requires at least one recipient"), nil
	}

	desc, ok := v.registry.BySymbol(req.Token)
	if !ok {
		return nil, errors.NewUnsupportedTokenError(req.Token), nil
	}

	total := new(big.Int)
	for _, leg := range req.Recipients {
		if leg.Recipient == (common.Address{}) || leg.Recipient == req.Sender {
			return nil, errors.NewInvalidAddressError("recipient", leg.Recipient.Hex()), nil
		}
		units, err := token.ToBaseUnits(leg.Amount, desc.Decimals)
		if err != nil {
			return nil, errors.NewInvalidAmountError(leg.Amount, err.Error()), nil
		}
		if units.Sign() <= 0 {
			return nil, errors.NewInvalidAmountError(leg.Amount, "amount must be positive"), nil
		}
		total.Add(total, units)
	}

	return v.buildQuote(ctx, req.Sender, desc, total)
}

func (v *Validator) checkAddresses(sender, recipient common.Address) *errors.CategorizedError {
	if sender == (common.Address{}) {
		return errors.NewInvalidAddressError("sender", sender.Hex())
	}
	if recipient == (common.Address{}) {
		return errors.NewInvalidAddressError("recipient", recipient.Hex())
	}
	if recipient == sender {
		return errors.NewInvalidAddressError("recipient", "recipient must differ from sender")
	}
	return nil
}

func (v *Validator) resolveAmount(symbol, amount string) (types.TokenDescriptor, *big.Int, *errors.CategorizedError) {
	desc, ok := v.registry.BySymbol(symbol)
	if !ok {
		return types.TokenDescriptor{}, nil, errors.NewUnsupportedTokenError(symbol)
	}
	units, err := token.ToBaseUnits(amount, desc.Decimals)
	if err != nil {
		return types.TokenDescriptor{}, nil, errors.NewInvalidAmountError(amount, err.Error())
	}
	if units.Sign() <= 0 {
		return types.TokenDescriptor{}, nil, errors.NewInvalidAmountError(amount, "amount must be positive")
	}
	return desc, units, nil
}

// buildQuote runs the on-chain portion of validation. The contract is
// authoritative for balances and fees; those reads are advisory and their
// failure never blocks submission.
func (v *Validator) buildQuote(ctx context.Context, sender common.Address, desc types.TokenDescriptor, principal *big.Int) (*types.Quote, *errors.CategorizedError, error) {
	logger := logging.FromContext(ctx)

	supported, err := v.reader.IsTokenSupported(ctx, desc.Address)
	if err != nil {
		return nil, nil, err
	}
	if !supported {
		// The gateway knows the token but the contract refuses it. This
		// usually means an address/deployment mismatch.
		return nil, errors.NewTokenNotAcceptedError(desc.Symbol, desc.Address.Hex()), nil
	}

	// A failed registration read counts as "not registered": an unnecessary
	// register call costs gas, but skipping a necessary one fails the whole
	// sequential chain.
	requiresRegistration := true
	if user, err := v.reader.GetUser(ctx, sender); err == nil {
		requiresRegistration = !user.IsRegistered
	} else {
		logger.WithError(err).WithField("sender", sender.Hex()).Warn("Registration read failed, assuming unregistered")
	}

	var fee *big.Int
	if f, err := v.reader.CalculateFee(ctx, principal); err == nil {
		fee = f
	} else {
		logger.WithError(err).Warn("Fee read failed, quote proceeds without fee")
	}

	if balance, err := v.reader.BalanceOf(ctx, desc.Address, sender); err == nil {
		if balance.Cmp(principal) < 0 {
			return nil, errors.NewInsufficientBalanceError(principal, balance), nil
		}
	} else {
		logger.WithError(err).Warn("Balance read failed, deferring to the contract")
	}

	return &types.Quote{
		PrincipalUnits:       principal,
		FeeUnits:             fee,
		RequiresRegistration: requiresRegistration,
		Token:                desc,
	}, nil, nil
}
