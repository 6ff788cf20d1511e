// Package account serves per-address account state read through a short-TTL
// cache. The contract owns this state; cached entries are invalidated after
// the gateway's own writes rather than patched in place.
package account

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/errors"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/logging"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/storage"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/token"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
)

// ChainAccountReader reads account state from the contract.
type ChainAccountReader interface {
	GetUser(ctx context.Context, addr common.Address) (*types.UserAccountState, error)
}

// Service answers account, stats, and rewards queries.
type Service struct {
	reader ChainAccountReader
	cache  *storage.CacheService

	// statsDecimals renders aggregate amounts; the contract accumulates
	// them in the stablecoins' shared base unit.
	statsDecimals int
}

// NewService creates an account service. cache may be nil, which disables
// caching entirely.
func NewService(reader ChainAccountReader, cache *storage.CacheService, statsDecimals int) *Service {
	return &Service{
		reader:        reader,
		cache:         cache,
		statsDecimals: statsDecimals,
	}
}

// GetAccount returns the account state for an address, reading through the
// cache. Cache failures degrade to a direct chain read.
func (s *Service) GetAccount(ctx context.Context, addr common.Address) (*types.UserAccountState, error) {
	log := logging.FromContext(ctx)

	if s.cache != nil {
		var cached types.UserAccountState
		hit, err := s.cache.Get(ctx, s.cache.GenerateAccountKey(addr.Hex()), &cached)
		if err != nil {
			log.WithError(err).Warn("Account cache read failed, falling through to chain")
		} else if hit {
			return &cached, nil
		}
	}

	state, err := s.reader.GetUser(ctx, addr)
	if err != nil {
		return nil, errors.NewRequiredReadFailedError("getUser", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cache.GenerateAccountKey(addr.Hex()), state); err != nil {
			log.WithError(err).Warn("Account cache write failed")
		}
	}
	return state, nil
}

// InvalidateAccounts drops cached state for the given addresses. Called by
// the submitter after a confirmed submission.
func (s *Service) InvalidateAccounts(ctx context.Context, addrs []common.Address) {
	if s.cache == nil {
		return
	}
	for _, addr := range addrs {
		if err := s.cache.InvalidateAccount(ctx, addr.Hex()); err != nil {
			logging.FromContext(ctx).WithError(err).WithField("address", addr.Hex()).
				Warn("Account cache invalidation failed")
		}
	}
}

// UserStats is the stats view rendered for the frontend.
type UserStats struct {
	Address       string `json:"address"`
	IsRegistered  bool   `json:"isRegistered"`
	TotalSent     string `json:"totalSent"`
	TotalReceived string `json:"totalReceived"`
	ReferralCount uint64 `json:"referralCount"`
	Tier          string `json:"tier"`
}

// RewardsData is the rewards view rendered for the frontend.
type RewardsData struct {
	Address         string `json:"address"`
	CashbackEarned  string `json:"cashbackEarned"`
	ReferralRewards string `json:"referralRewards"`
	ReferralCount   uint64 `json:"referralCount"`
	TotalRewards    string `json:"totalRewards"`
}

// GetStats returns transfer totals plus the loyalty tier derived from
// lifetime sent volume.
func (s *Service) GetStats(ctx context.Context, addr common.Address) (*UserStats, error) {
	state, err := s.GetAccount(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &UserStats{
		Address:       addr.Hex(),
		IsRegistered:  state.IsRegistered,
		TotalSent:     token.FromBaseUnits(state.TotalTransferred, s.statsDecimals),
		TotalReceived: token.FromBaseUnits(state.TotalReceived, s.statsDecimals),
		ReferralCount: state.ReferralCount,
		Tier:          TierFor(state.TotalTransferred, s.statsDecimals),
	}, nil
}

// GetRewards returns the cashback and referral summary.
func (s *Service) GetRewards(ctx context.Context, addr common.Address) (*RewardsData, error) {
	state, err := s.GetAccount(ctx, addr)
	if err != nil {
		return nil, err
	}
	total := new(big.Int).Add(bigOrZero(state.CashbackEarned), bigOrZero(state.ReferralRewards))
	return &RewardsData{
		Address:         addr.Hex(),
		CashbackEarned:  token.FromBaseUnits(state.CashbackEarned, s.statsDecimals),
		ReferralRewards: token.FromBaseUnits(state.ReferralRewards, s.statsDecimals),
		ReferralCount:   state.ReferralCount,
		TotalRewards:    token.FromBaseUnits(total, s.statsDecimals),
	}, nil
}

// Tier thresholds in whole tokens of lifetime sent volume.
var tierThresholds = []struct {
	name string
	min  int64
}{
	{"platinum", 50_000},
	{"gold", 10_000},
	{"silver", 1_000},
	{"bronze", 0},
}

// TierFor derives the loyalty tier from lifetime sent volume.
func TierFor(totalSent *big.Int, decimals int) string {
	sent := bigOrZero(totalSent)
	for _, tier := range tierThresholds {
		min := new(big.Int).Mul(big.NewInt(tier.min), pow10(decimals))
		if sent.Cmp(min) >= 0 {
			return tier.name
		}
	}
	return "bronze"
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
