package history

import (
	"context"
	stderrors "errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/chain"
	remerrors "github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/errors"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/retry"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/token"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
)

var (
	usdcAddr = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	holder   = common.HexToAddress("0x0000000000000000000000000000000000000001")
	other    = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

type fakeHistoryReader struct {
	ids    []*big.Int
	txs    map[string]*chain.ContractTransaction
	events map[chain.LogDirection][]chain.TransferEvent

	idsErr    error
	txErr     error
	filterErr map[chain.LogDirection]error

	lastStart uint64
	lastCount uint64
	idsCalls  int
}

func (f *fakeHistoryReader) GetUserTransactionIds(_ context.Context, _ common.Address, start, count uint64) ([]*big.Int, error) {
	f.lastStart, f.lastCount = start, count
	f.idsCalls++
	if f.idsErr != nil {
		return nil, f.idsErr
	}
	return f.ids, nil
}

func (f *fakeHistoryReader) GetTransaction(_ context.Context, id *big.Int) (*chain.ContractTransaction, error) {
	if f.txErr != nil {
		return nil, f.txErr
	}
	tx, ok := f.txs[id.String()]
	if !ok {
		return nil, stderrors.New("unknown id")
	}
	return tx, nil
}

func (f *fakeHistoryReader) FilterTransferInitiated(_ context.Context, _ common.Address, dir chain.LogDirection) ([]chain.TransferEvent, error) {
	if err := f.filterErr[dir]; err != nil {
		return nil, err
	}
	return f.events[dir], nil
}

func testRegistry(t *testing.T) *token.Registry {
	t.Helper()
	reg, err := token.NewRegistry([]types.TokenDescriptor{
		{Symbol: "USDC", Address: usdcAddr, Decimals: 6},
	})
	require.NoError(t, err)
	return reg
}

func contractTx(id int64, amount int64) *chain.ContractTransaction {
	return &chain.ContractTransaction{
		ID:        big.NewInt(id),
		Sender:    holder,
		Recipient: other,
		Amount:    big.NewInt(amount),
		Fee:       big.NewInt(amount / 100),
		Cashback:  big.NewInt(0),
		Timestamp: big.NewInt(1_700_000_000 + id),
		Country:   "KE",
		Token:     usdcAddr,
		GroupID:   big.NewInt(0),
		Completed: true,
	}
}

func TestGetHistory_RecordsPreserveContractOrder(t *testing.T) {
	reader := &fakeHistoryReader{
		ids: []*big.Int{big.NewInt(7), big.NewInt(3), big.NewInt(9)},
		txs: map[string]*chain.ContractTransaction{
			"7": contractTx(7, 50_000_000),
			"3": contractTx(3, 20_000_000),
			"9": contractTx(9, 1_250_000),
		},
		events: map[chain.LogDirection][]chain.TransferEvent{
			chain.DirectionSender: {
				{TxID: big.NewInt(7), TxHash: common.HexToHash("0xdead")},
			},
		},
	}
	r := NewReconciler(reader, testRegistry(t))

	records, err := r.GetHistory(context.Background(), holder, 0, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"7", "3", "9"}, []string{records[0].ID, records[1].ID, records[2].ID})
	assert.Equal(t, "50", records[0].Amount)
	assert.Equal(t, "USDC", records[0].TokenSymbol)
	assert.Equal(t, "1.25", records[2].Amount)
	assert.Equal(t, common.HexToHash("0xdead").Hex(), records[0].TxHash)
	assert.Empty(t, records[1].TxHash)
}

func TestGetHistory_LogFetchFailureDegradesToEmptyHashes(t *testing.T) {
	reader := &fakeHistoryReader{
		ids: []*big.Int{big.NewInt(1)},
		txs: map[string]*chain.ContractTransaction{"1": contractTx(1, 5_000_000)},
		filterErr: map[chain.LogDirection]error{
			chain.DirectionSender:    stderrors.New("rpc: log range too large"),
			chain.DirectionRecipient: stderrors.New("rpc: log range too large"),
		},
	}
	r := NewReconciler(reader, testRegistry(t))

	records, err := r.GetHistory(context.Background(), holder, 0, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].TxHash)
	assert.Equal(t, "5", records[0].Amount)
}

func TestGetHistory_IdReadFailureIsRequired(t *testing.T) {
	reader := &fakeHistoryReader{idsErr: stderrors.New("rpc down")}
	r := NewReconciler(reader, testRegistry(t))

	records, err := r.GetHistory(context.Background(), holder, 0, 10)
	assert.Nil(t, records)

	var cerr *remerrors.CategorizedError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, remerrors.CodeRequiredReadFailed, cerr.Code)
}

func TestGetHistory_TupleReadFailureIsRequired(t *testing.T) {
	reader := &fakeHistoryReader{
		ids:   []*big.Int{big.NewInt(1)},
		txErr: stderrors.New("rpc down"),
	}
	r := NewReconciler(reader, testRegistry(t))

	_, err := r.GetHistory(context.Background(), holder, 0, 10)
	var cerr *remerrors.CategorizedError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, remerrors.CodeRequiredReadFailed, cerr.Code)
}

func TestGetHistory_HonorsRetryConfig(t *testing.T) {
	reader := &fakeHistoryReader{
		idsErr: stderrors.New("rpc down"),
	}
	r := NewReconciler(reader, testRegistry(t)).WithRetryConfig(&retry.Config{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	})

	_, err := r.GetHistory(context.Background(), holder, 0, 10)
	require.Error(t, err)
	assert.Equal(t, 2, reader.idsCalls)
}

func TestGetHistory_EmptyWindow(t *testing.T) {
	reader := &fakeHistoryReader{}
	r := NewReconciler(reader, testRegistry(t))

	records, err := r.GetHistory(context.Background(), holder, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetHistory_UnknownTokenRendersPlaceholder(t *testing.T) {
	tx := contractTx(1, 42)
	tx.Token = common.HexToAddress("0xcc")
	reader := &fakeHistoryReader{
		ids: []*big.Int{big.NewInt(1)},
		txs: map[string]*chain.ContractTransaction{"1": tx},
	}
	r := NewReconciler(reader, testRegistry(t))

	records, err := r.GetHistory(context.Background(), holder, 0, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "UNKNOWN", records[0].TokenSymbol)
	// Unknown decimals render the raw base-unit count.
	assert.Equal(t, "42", records[0].Amount)
}

func TestGetHistory_GroupIDRenderedOnlyWhenSet(t *testing.T) {
	grouped := contractTx(2, 10_000_000)
	grouped.GroupID = big.NewInt(5)
	reader := &fakeHistoryReader{
		ids: []*big.Int{big.NewInt(1), big.NewInt(2)},
		txs: map[string]*chain.ContractTransaction{
			"1": contractTx(1, 10_000_000),
			"2": grouped,
		},
	}
	r := NewReconciler(reader, testRegistry(t))

	records, err := r.GetHistory(context.Background(), holder, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, records[0].GroupID)
	assert.Equal(t, "5", records[1].GroupID)
}

func TestGetHistory_WindowClampingProperty(t *testing.T) {
	reader := &fakeHistoryReader{}
	r := NewReconciler(reader, testRegistry(t))

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("reads always use a clamped window", prop.ForAll(
		func(start, count int64) bool {
			_, err := r.GetHistory(context.Background(), holder, start, count)
			if err != nil {
				return false
			}
			return reader.lastCount >= 1 && reader.lastCount <= maxPageSize
		},
		gen.Int64Range(-1_000, 1_000),
		gen.Int64Range(-1_000, 1_000),
	))

	properties.TestingRun(t)
}
