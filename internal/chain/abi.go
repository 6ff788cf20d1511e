package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// remittanceABIJSON is the surface of the remittance contract this gateway
// calls. The contract owns all fee/cashback/referral accounting.
const remittanceABIJSON = `[
	{"type":"function","name":"registerUser","stateMutability":"nonpayable","inputs":[{"name":"referrer","type":"address"}],"outputs":[]},
	{"type":"function","name":"initiateTransfer","stateMutability":"nonpayable","inputs":[{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"},{"name":"recipientCountry","type":"string"},{"name":"token","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"batchTransfer","stateMutability":"nonpayable","inputs":[{"name":"recipients","type":"address[]"},{"name":"amounts","type":"uint256[]"},{"name":"token","type":"address"}],"outputs":[]},
	{"type":"function","name":"withdrawRewards","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"calculateFee","stateMutability":"view","inputs":[{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getUser","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"isRegistered","type":"bool"},{"name":"referrer","type":"address"},{"name":"totalTransferred","type":"uint256"},{"name":"totalReceived","type":"uint256"},{"name":"cashbackEarned","type":"uint256"},{"name":"referralRewards","type":"uint256"},{"name":"referralCount","type":"uint256"},{"name":"lastActivity","type":"uint256"}]},
	{"type":"function","name":"getUserTransactionIds","stateMutability":"view","inputs":[{"name":"user","type":"address"},{"name":"start","type":"uint256"},{"name":"count","type":"uint256"}],"outputs":[{"name":"","type":"uint256[]"}]},
	{"type":"function","name":"getTransaction","stateMutability":"view","inputs":[{"name":"txId","type":"uint256"}],"outputs":[{"name":"sender","type":"address"},{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"},{"name":"fee","type":"uint256"},{"name":"cashback","type":"uint256"},{"name":"timestamp","type":"uint256"},{"name":"country","type":"string"},{"name":"token","type":"address"},{"name":"groupId","type":"uint256"},{"name":"completed","type":"bool"}]},
	{"type":"function","name":"supportedStablecoins","stateMutability":"view","inputs":[{"name":"token","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"event","name":"TransferInitiated","inputs":[{"name":"txId","type":"uint256","indexed":false},{"name":"sender","type":"address","indexed":true},{"name":"recipient","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false},{"name":"fee","type":"uint256","indexed":false},{"name":"cashback","type":"uint256","indexed":false},{"name":"country","type":"string","indexed":false},{"name":"token","type":"address","indexed":false},{"name":"groupId","type":"uint256","indexed":false}],"anonymous":false}
]`

// erc20ABIJSON covers the standard calls the planner and validator need.
const erc20ABIJSON = `[
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

// batchAccountABIJSON is the smart-account entry point for the atomic batch
// path: one submitted transaction executing every call in order.
const batchAccountABIJSON = `[
	{"type":"function","name":"executeBatch","stateMutability":"nonpayable","inputs":[{"name":"targets","type":"address[]"},{"name":"payloads","type":"bytes[]"}],"outputs":[]}
]`

// MustParseABIs parses the three ABIs the client uses. Panics on malformed
// JSON, which is a programming error, not a runtime condition.
func MustParseABIs() (remittance, erc20, batchAccount abi.ABI) {
	var err error
	remittance, err = abi.JSON(strings.NewReader(remittanceABIJSON))
	if err != nil {
		panic("chain: parse remittance abi: " + err.Error())
	}
	erc20, err = abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic("chain: parse erc20 abi: " + err.Error())
	}
	batchAccount, err = abi.JSON(strings.NewReader(batchAccountABIJSON))
	if err != nil {
		panic("chain: parse batch account abi: " + err.Error())
	}
	return remittance, erc20, batchAccount
}
