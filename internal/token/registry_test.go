package token

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
)

var (
	usdcAddr = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	usdtAddr = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry([]types.TokenDescriptor{
		{Symbol: "USDC", Address: usdcAddr, Decimals: 6},
		{Symbol: "USDT", Address: usdtAddr, Decimals: 6},
	})
	require.NoError(t, err)
	return reg
}

func TestNewRegistry_RejectsBadDecimals(t *testing.T) {
	_, err := NewRegistry([]types.TokenDescriptor{
		{Symbol: "BAD", Address: usdcAddr, Decimals: 19},
	})
	assert.Error(t, err)

	_, err = NewRegistry([]types.TokenDescriptor{
		{Symbol: "BAD", Address: usdcAddr, Decimals: -1},
	})
	assert.Error(t, err)
}

func TestRegistry_BySymbolCaseInsensitive(t *testing.T) {
	reg := newTestRegistry(t)

	for _, symbol := range []string{"USDC", "usdc", "Usdc"} {
		desc, ok := reg.BySymbol(symbol)
		require.True(t, ok, symbol)
		assert.Equal(t, usdcAddr, desc.Address)
	}

	_, ok := reg.BySymbol("DOGE")
	assert.False(t, ok)
}

func TestRegistry_SymbolFor(t *testing.T) {
	reg := newTestRegistry(t)

	assert.Equal(t, "USDT", reg.SymbolFor(usdtAddr))
	assert.Equal(t, "UNKNOWN", reg.SymbolFor(common.HexToAddress("0xdd")))
}

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     int64
		wantErr  bool
	}{
		{"whole", "50", 6, 50_000_000, false},
		{"fractional", "12.75", 6, 12_750_000, false},
		{"full precision", "0.000001", 6, 1, false},
		{"leading dot", ".5", 6, 500_000, false},
		{"trailing dot", "5.", 6, 5_000_000, false},
		{"zero decimals", "42", 0, 42, false},
		{"whitespace", "  7 ", 6, 7_000_000, false},
		{"excess precision", "0.0000001", 6, 0, true},
		{"negative", "-1", 6, 0, true},
		{"empty", "", 6, 0, true},
		{"two dots", "1.2.3", 6, 0, true},
		{"garbage", "abc", 6, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnits(tt.amount, tt.decimals)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, got.Cmp(big.NewInt(tt.want)))
		})
	}
}

func TestFromBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		units    int64
		decimals int
		want     string
	}{
		{"whole", 50_000_000, 6, "50"},
		{"fractional", 12_750_000, 6, "12.75"},
		{"sub-unit", 1, 6, "0.000001"},
		{"zero", 0, 6, "0"},
		{"zero decimals", 42, 0, "42"},
		{"negative", -1_500_000, 6, "-1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromBaseUnits(big.NewInt(tt.units), tt.decimals))
		})
	}
}

func TestUnitConversion_RoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("units -> decimal -> units is the identity", prop.ForAll(
		func(units int64, decimals int) bool {
			original := big.NewInt(units)
			rendered := FromBaseUnits(original, decimals)
			back, err := ToBaseUnits(rendered, decimals)
			if err != nil {
				return false
			}
			return back.Cmp(original) == 0
		},
		gen.Int64Range(0, 1_000_000_000_000),
		gen.IntRange(0, 18),
	))

	properties.TestingRun(t)
}
