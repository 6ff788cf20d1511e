package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Config validation runs before any RPC dial, so these cases need no
// network. ContractAddress is the raw hex string from the environment;
// NewClient owns parsing it.
func TestNewClient_ConfigValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("missing rpc url", func(t *testing.T) {
		_, err := NewClient(ctx, ClientConfig{
			ContractAddress: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rpc url")
	})

	t.Run("invalid contract address", func(t *testing.T) {
		_, err := NewClient(ctx, ClientConfig{
			RPCURL:          "http://localhost:8545",
			ContractAddress: "not-an-address",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid remittance contract address")
	})
}
