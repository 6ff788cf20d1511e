package chain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyWriteError(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want WriteReason
	}{
		{"metamask denial", "MetaMask Tx Signature: User denied transaction signature.", ReasonUserRejected},
		{"eip-1193 rejection", "request rejected by user", ReasonUserRejected},
		{"rpc code", "provider error, code: 4001", ReasonUserRejected},
		{"gas funds", "insufficient funds for gas * price + value", ReasonInsufficientFunds},
		{"gas allowance", "gas required exceeds allowance (21000)", ReasonInsufficientFunds},
		{"revert", "execution reverted: transfer amount exceeds balance", ReasonReverted},
		{"legacy revert", "always failing transaction", ReasonReverted},
		{"opaque", "connection reset by peer", ReasonUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyWriteError(errors.New(tt.msg)))
		})
	}
}

func TestClassifyWriteError_Nil(t *testing.T) {
	assert.Equal(t, ReasonUnknown, classifyWriteError(nil))
}

func TestWriteError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	werr := &WriteError{Method: "approve", Reason: ReasonUnknown, Cause: cause}
	assert.ErrorIs(t, werr, cause)
	assert.Contains(t, werr.Error(), "approve")
}

func TestMustParseABIs(t *testing.T) {
	remittance, erc20, batchAccount := MustParseABIs()

	for _, method := range []string{
		"registerUser", "initiateTransfer", "batchTransfer", "withdrawRewards",
		"calculateFee", "getUser", "getUserTransactionIds", "getTransaction",
		"supportedStablecoins",
	} {
		_, ok := remittance.Methods[method]
		assert.True(t, ok, "remittance ABI missing %s", method)
	}
	for _, method := range []string{"approve", "balanceOf", "allowance"} {
		_, ok := erc20.Methods[method]
		assert.True(t, ok, "erc20 ABI missing %s", method)
	}
	_, ok := batchAccount.Methods["executeBatch"]
	assert.True(t, ok, "batch ABI missing executeBatch")

	event, ok := remittance.Events["TransferInitiated"]
	require.True(t, ok)
	// sender and recipient are indexed for directional log filtering; txId
	// rides in the data section.
	assert.False(t, event.Inputs[0].Indexed, "txId must not be indexed")
	assert.True(t, event.Inputs[1].Indexed, "sender must be indexed")
	assert.True(t, event.Inputs[2].Indexed, "recipient must be indexed")
}
