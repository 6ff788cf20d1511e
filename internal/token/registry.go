// Package token holds the static stablecoin registry and the decimal/base-unit
// conversion helpers. Every amount conversion goes through a descriptor's
// decimals; nothing in the gateway hardcodes a precision.
package token

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
)

// Registry maps token symbols and contract addresses to descriptors. The set
// is static and small; it is built once at startup from configuration.
type Registry struct {
	bySymbol  map[string]types.TokenDescriptor
	byAddress map[common.Address]types.TokenDescriptor
}

// NewRegistry builds a registry from the given descriptors.
// Descriptors with decimals outside [0,18] are rejected.
func NewRegistry(tokens []types.TokenDescriptor) (*Registry, error) {
	r := &Registry{
		bySymbol:  make(map[string]types.TokenDescriptor, len(tokens)),
		byAddress: make(map[common.Address]types.TokenDescriptor, len(tokens)),
	}
	for _, t := range tokens {
		if t.Decimals < 0 || t.Decimals > 18 {
			return nil, fmt.Errorf("token %s: decimals %d out of range [0,18]", t.Symbol, t.Decimals)
		}
		if t.Symbol == "" {
			return nil, fmt.Errorf("token at %s: empty symbol", t.Address.Hex())
		}
		r.bySymbol[strings.ToUpper(t.Symbol)] = t
		r.byAddress[t.Address] = t
	}
	return r, nil
}

// BySymbol resolves a descriptor by symbol, case-insensitively.
func (r *Registry) BySymbol(symbol string) (types.TokenDescriptor, bool) {
	t, ok := r.bySymbol[strings.ToUpper(symbol)]
	return t, ok
}

// ByAddress resolves a descriptor by contract address.
func (r *Registry) ByAddress(addr common.Address) (types.TokenDescriptor, bool) {
	t, ok := r.byAddress[addr]
	return t, ok
}

// SymbolFor returns the display symbol for a token address, or "UNKNOWN" for
// addresses outside the registry. History rendering must never fail on an
// unrecognized token.
func (r *Registry) SymbolFor(addr common.Address) string {
	if t, ok := r.byAddress[addr]; ok {
		return t.Symbol
	}
	return "UNKNOWN"
}

// Tokens returns all registered descriptors.
func (r *Registry) Tokens() []types.TokenDescriptor {
	out := make([]types.TokenDescriptor, 0, len(r.bySymbol))
	for _, t := range r.bySymbol {
		out = append(out, t)
	}
	return out
}

// ToBaseUnits converts a human-readable decimal amount to base units,
// e.g. "12.5" with 6 decimals -> 12500000. Fractional digits beyond the
// token's precision are rejected rather than silently truncated.
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}
	if strings.HasPrefix(amount, "-") {
		return nil, fmt.Errorf("amount cannot be negative: %s", amount)
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}
	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}

	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %s exceeds token precision of %d decimals", amount, decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	combined := strings.TrimLeft(whole+frac, "0")
	if combined == "" {
		combined = "0"
	}

	units, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}
	return units, nil
}

// FromBaseUnits converts base units back to a human-readable decimal string,
// e.g. 12500000 with 6 decimals -> "12.5".
func FromBaseUnits(units *big.Int, decimals int) string {
	if units == nil {
		return "0"
	}

	str := units.String()
	negative := strings.HasPrefix(str, "-")
	if negative {
		str = str[1:]
	}

	if len(str) <= decimals {
		str = strings.Repeat("0", decimals-len(str)+1) + str
	}

	cut := len(str) - decimals
	whole := str[:cut]
	frac := strings.TrimRight(str[cut:], "0")

	out := whole
	if frac != "" {
		out = whole + "." + frac
	}
	if negative {
		out = "-" + out
	}
	return out
}
