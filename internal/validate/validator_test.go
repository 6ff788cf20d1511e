package validate

import (
	"context"
	stderrors "errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	remerrors "github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/errors"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/token"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
)

var (
	usdcAddr = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	sender   = common.HexToAddress("0x0000000000000000000000000000000000000001")
	recip    = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

type fakeChainReader struct {
	supported    bool
	supportedErr error

	user    *types.UserAccountState
	userErr error

	fee    *big.Int
	feeErr error

	balance    *big.Int
	balanceErr error
}

func (f *fakeChainReader) IsTokenSupported(context.Context, common.Address) (bool, error) {
	return f.supported, f.supportedErr
}

func (f *fakeChainReader) GetUser(context.Context, common.Address) (*types.UserAccountState, error) {
	return f.user, f.userErr
}

func (f *fakeChainReader) CalculateFee(context.Context, *big.Int) (*big.Int, error) {
	return f.fee, f.feeErr
}

func (f *fakeChainReader) BalanceOf(context.Context, common.Address, common.Address) (*big.Int, error) {
	return f.balance, f.balanceErr
}

func healthyReader(registered bool) *fakeChainReader {
	return &fakeChainReader{
		supported: true,
		user:      &types.UserAccountState{IsRegistered: registered},
		fee:       big.NewInt(750_000),
		balance:   big.NewInt(1_000_000_000),
	}
}

func testRegistry(t *testing.T) *token.Registry {
	t.Helper()
	reg, err := token.NewRegistry([]types.TokenDescriptor{
		{Symbol: "USDC", Address: usdcAddr, Decimals: 6},
	})
	require.NoError(t, err)
	return reg
}

func transferReq(amount string) *types.TransferRequest {
	return &types.TransferRequest{
		Sender:    sender,
		Recipient: recip,
		Token:     "USDC",
		Amount:    amount,
		Country:   "KE",
	}
}

func TestValidateTransfer_HappyPath(t *testing.T) {
	v := NewValidator(healthyReader(true), testRegistry(t))

	quote, vfail, err := v.ValidateTransfer(context.Background(), transferReq("50"))
	require.NoError(t, err)
	require.Nil(t, vfail)
	require.NotNil(t, quote)

	assert.Equal(t, 0, quote.PrincipalUnits.Cmp(big.NewInt(50_000_000)))
	assert.Equal(t, 0, quote.FeeUnits.Cmp(big.NewInt(750_000)))
	assert.False(t, quote.RequiresRegistration)
	assert.Equal(t, "USDC", quote.Token.Symbol)
}

func TestValidateTransfer_UnsupportedToken(t *testing.T) {
	v := NewValidator(healthyReader(true), testRegistry(t))

	req := transferReq("50")
	req.Token = "DOGE"

	quote, vfail, err := v.ValidateTransfer(context.Background(), req)
	require.NoError(t, err)
	require.Nil(t, quote)
	require.NotNil(t, vfail)
	assert.Equal(t, remerrors.CodeUnsupportedToken, vfail.Code)
}

func TestValidateTransfer_TokenNotAcceptedByContract(t *testing.T) {
	reader := healthyReader(true)
	reader.supported = false
	v := NewValidator(reader, testRegistry(t))

	_, vfail, err := v.ValidateTransfer(context.Background(), transferReq("50"))
	require.NoError(t, err)
	require.NotNil(t, vfail)
	assert.Equal(t, remerrors.CodeTokenNotAcceptedByContract, vfail.Code)
}

func TestValidateTransfer_SupportReadFailureIsInfrastructure(t *testing.T) {
	reader := healthyReader(true)
	reader.supportedErr = stderrors.New("rpc down")
	v := NewValidator(reader, testRegistry(t))

	quote, vfail, err := v.ValidateTransfer(context.Background(), transferReq("50"))
	assert.Nil(t, quote)
	assert.Nil(t, vfail)
	assert.Error(t, err)
}

func TestValidateTransfer_BadAmounts(t *testing.T) {
	v := NewValidator(healthyReader(true), testRegistry(t))

	tests := []struct {
		name   string
		amount string
	}{
		{"zero", "0"},
		{"negative", "-5"},
		{"unparseable", "fifty"},
		{"excess precision", "1.0000001"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, vfail, err := v.ValidateTransfer(context.Background(), transferReq(tt.amount))
			require.NoError(t, err)
			require.NotNil(t, vfail)
			assert.Equal(t, remerrors.CodeInvalidAmount, vfail.Code)
		})
	}
}

func TestValidateTransfer_AddressChecks(t *testing.T) {
	v := NewValidator(healthyReader(true), testRegistry(t))

	req := transferReq("50")
	req.Recipient = sender
	_, vfail, err := v.ValidateTransfer(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, vfail)
	assert.Equal(t, remerrors.CodeInvalidAddress, vfail.Code)

	req = transferReq("50")
	req.Recipient = common.Address{}
	_, vfail, err = v.ValidateTransfer(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, vfail)
	assert.Equal(t, remerrors.CodeInvalidAddress, vfail.Code)
}

func TestValidateTransfer_RegistrationReadFailsOpen(t *testing.T) {
	reader := healthyReader(true)
	reader.userErr = stderrors.New("rpc flake")
	v := NewValidator(reader, testRegistry(t))

	quote, vfail, err := v.ValidateTransfer(context.Background(), transferReq("50"))
	require.NoError(t, err)
	require.Nil(t, vfail)
	// Unknown registration status plans a register call rather than risking
	// the whole sequence on a missing one.
	assert.True(t, quote.RequiresRegistration)
}

func TestValidateTransfer_FeeReadIsAdvisory(t *testing.T) {
	reader := healthyReader(true)
	reader.feeErr = stderrors.New("rpc flake")
	v := NewValidator(reader, testRegistry(t))

	quote, vfail, err := v.ValidateTransfer(context.Background(), transferReq("50"))
	require.NoError(t, err)
	require.Nil(t, vfail)
	assert.Nil(t, quote.FeeUnits)
}

func TestValidateTransfer_InsufficientBalance(t *testing.T) {
	reader := healthyReader(true)
	reader.balance = big.NewInt(1_000_000) // 1 USDC against a 50 USDC request
	v := NewValidator(reader, testRegistry(t))

	_, vfail, err := v.ValidateTransfer(context.Background(), transferReq("50"))
	require.NoError(t, err)
	require.NotNil(t, vfail)
	assert.Equal(t, remerrors.CodeInsufficientBalance, vfail.Code)
	assert.Equal(t, "50000000", vfail.Details["requiredUnits"])
	assert.Equal(t, "1000000", vfail.Details["availableUnits"])
}

func TestValidateTransfer_BalanceReadIsAdvisory(t *testing.T) {
	reader := healthyReader(true)
	reader.balanceErr = stderrors.New("rpc flake")
	v := NewValidator(reader, testRegistry(t))

	quote, vfail, err := v.ValidateTransfer(context.Background(), transferReq("50"))
	require.NoError(t, err)
	require.Nil(t, vfail)
	require.NotNil(t, quote)
}

func TestValidateGroupPayment_SumsLegs(t *testing.T) {
	v := NewValidator(healthyReader(true), testRegistry(t))

	quote, vfail, err := v.ValidateGroupPayment(context.Background(), &types.GroupPaymentRequest{
		Sender: sender,
		Token:  "USDC",
		Recipients: []types.GroupRecipient{
			{Recipient: recip, Amount: "30"},
			{Recipient: common.HexToAddress("0x3"), Amount: "20.5"},
		},
		Country: "NG",
	})
	require.NoError(t, err)
	require.Nil(t, vfail)
	assert.Equal(t, 0, quote.PrincipalUnits.Cmp(big.NewInt(50_500_000)))
}

func TestValidateGroupPayment_RejectsEmptyAndSelfLegs(t *testing.T) {
	v := NewValidator(healthyReader(true), testRegistry(t))

	_, vfail, err := v.ValidateGroupPayment(context.Background(), &types.GroupPaymentRequest{
		Sender: sender,
		Token:  "USDC",
	})
	require.NoError(t, err)
	require.NotNil(t, vfail)
	assert.Equal(t, remerrors.CodeInvalidAmount, vfail.Code)

	_, vfail, err = v.ValidateGroupPayment(context.Background(), &types.GroupPaymentRequest{
		Sender:     sender,
		Token:      "USDC",
		Recipients: []types.GroupRecipient{{Recipient: sender, Amount: "10"}},
	})
	require.NoError(t, err)
	require.NotNil(t, vfail)
	assert.Equal(t, remerrors.CodeInvalidAddress, vfail.Code)
}

func TestValidateGroupPayment_BalanceCheckedAgainstTotal(t *testing.T) {
	reader := healthyReader(true)
	reader.balance = big.NewInt(40_000_000)
	v := NewValidator(reader, testRegistry(t))

	_, vfail, err := v.ValidateGroupPayment(context.Background(), &types.GroupPaymentRequest{
		Sender: sender,
		Token:  "USDC",
		Recipients: []types.GroupRecipient{
			{Recipient: recip, Amount: "30"},
			{Recipient: common.HexToAddress("0x3"), Amount: "20"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, vfail)
	assert.Equal(t, remerrors.CodeInsufficientBalance, vfail.Code)
}
