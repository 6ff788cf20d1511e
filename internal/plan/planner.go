// Package plan turns a validated quote into an ordered execution plan. The
// planner never issues writes; a blocking read failure aborts planning
// atomically with no calls issued.
package plan

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/errors"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/logging"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/token"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
)

// AllowanceReader reads the current ERC-20 allowance granted to the
// remittance contract. Group planning tops the allowance up only when
// insufficient; single-transfer planning deliberately does not read it.
type AllowanceReader interface {
	Allowance(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

// CallEncoder ABI-encodes a call's arguments. Satisfied by the chain client.
type CallEncoder interface {
	Pack(method string, args ...interface{}) ([]byte, error)
}

// Planner builds execution plans against a fixed contract address.
type Planner struct {
	contract  common.Address
	allowance AllowanceReader
	encoder   CallEncoder

	// approveIncludesFee sizes single-transfer approvals at principal+fee
	// instead of principal. Default false: the contract pulls only the
	// principal from the sender.
	approveIncludesFee bool
}

// Config configures a planner.
type Config struct {
	Contract           common.Address
	Allowance          AllowanceReader
	Encoder            CallEncoder
	ApproveIncludesFee bool
}

// NewPlanner creates an execution planner.
func NewPlanner(cfg Config) *Planner {
	return &Planner{
		contract:           cfg.Contract,
		allowance:          cfg.Allowance,
		encoder:            cfg.Encoder,
		approveIncludesFee: cfg.ApproveIncludesFee,
	}
}

// PlanTransfer builds the single-transfer plan:
// [register?] -> approve(principal) -> initiateTransfer. The approval is
// sized to the principal; the contract pulls only that amount.
func (p *Planner) PlanTransfer(ctx context.Context, req *types.TransferRequest, quote *types.Quote) (*types.ExecutionPlan, error) {
	plan := &types.ExecutionPlan{Sender: req.Sender}

	if quote.RequiresRegistration {
		call, err := p.buildCall(p.contract, "registerUser", types.TagRegister, common.Address{})
		if err != nil {
			return nil, err
		}
		plan.Calls = append(plan.Calls, call)
	}

	approveAmount := new(big.Int).Set(quote.PrincipalUnits)
	if p.approveIncludesFee && quote.FeeUnits != nil {
		approveAmount.Add(approveAmount, quote.FeeUnits)
	}
	approve, err := p.buildCall(quote.Token.Address, "approve", types.TagApprove, p.contract, approveAmount)
	if err != nil {
		return nil, err
	}
	plan.Calls = append(plan.Calls, approve)

	transfer, err := p.buildCall(p.contract, "initiateTransfer", types.TagTransfer,
		req.Recipient, quote.PrincipalUnits, req.Country, quote.Token.Address)
	if err != nil {
		return nil, err
	}
	plan.Calls = append(plan.Calls, transfer)

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"sender": req.Sender.Hex(),
		"calls":  len(plan.Calls),
	}).Debug("Transfer plan built")

	return plan, nil
}

// PlanGroupPayment builds the group plan: [register?] -> [approve(total)?]
// -> batchTransfer. Unlike the single path, the current allowance is read
// and the approval appended only when it falls short of the summed total.
func (p *Planner) PlanGroupPayment(ctx context.Context, req *types.GroupPaymentRequest, quote *types.Quote) (*types.ExecutionPlan, error) {
	plan := &types.ExecutionPlan{Sender: req.Sender}

	if quote.RequiresRegistration {
		call, err := p.buildCall(p.contract, "registerUser", types.TagRegister, common.Address{})
		if err != nil {
			return nil, err
		}
		plan.Calls = append(plan.Calls, call)
	}

	total := quote.PrincipalUnits

	// The allowance read gates plan shape, so it is blocking: without it we
	// cannot know whether a top-up belongs in the plan.
	current, err := p.allowance.Allowance(ctx, quote.Token.Address, req.Sender)
	if err != nil {
		return nil, errors.NewPlanningBlockedError("allowance", err)
	}
	if current.Cmp(total) < 0 {
		approve, err := p.buildCall(quote.Token.Address, "approve", types.TagApprove, p.contract, total)
		if err != nil {
			return nil, err
		}
		plan.Calls = append(plan.Calls, approve)
	}

	recipients := make([]common.Address, len(req.Recipients))
	amounts := make([]*big.Int, len(req.Recipients))
	for i, leg := range req.Recipients {
		recipients[i] = leg.Recipient
		units, convErr := token.ToBaseUnits(leg.Amount, quote.Token.Decimals)
		if convErr != nil {
			// The validator already parsed these amounts; a failure here is
			// an internal inconsistency, not a user error.
			return nil, errors.NewPlanningBlockedError("amount conversion", convErr)
		}
		amounts[i] = units
	}

	batch, err := p.buildCall(p.contract, "batchTransfer", types.TagBatchTransfer,
		recipients, amounts, quote.Token.Address)
	if err != nil {
		return nil, err
	}
	plan.Calls = append(plan.Calls, batch)

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"sender":     req.Sender.Hex(),
		"recipients": len(recipients),
		"calls":      len(plan.Calls),
	}).Debug("Group payment plan built")

	return plan, nil
}

// PlanWithdrawal builds a single-call plan for a rewards withdrawal.
func (p *Planner) PlanWithdrawal(ctx context.Context, sender common.Address, amountUnits *big.Int) (*types.ExecutionPlan, error) {
	call, err := p.buildCall(p.contract, "withdrawRewards", types.TagWithdraw, amountUnits)
	if err != nil {
		return nil, err
	}
	return &types.ExecutionPlan{Sender: sender, Calls: []types.PlannedCall{call}}, nil
}

func (p *Planner) buildCall(target common.Address, method string, tag types.CallTag, args ...interface{}) (types.PlannedCall, error) {
	data, err := p.encoder.Pack(method, args...)
	if err != nil {
		return types.PlannedCall{}, errors.NewPlanningBlockedError("encode "+method, err)
	}
	return types.PlannedCall{
		Target:   target,
		Method:   method,
		Args:     args,
		CallData: data,
		Tag:      tag,
	}, nil
}
