package vault

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/cleyfe/chaincare/internal/chain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

var (
	testVaultAddr = common.HexToAddress("0x45aa96f0b3188d47a1dafdbefce1db6b37f58216")
	testTokenAddr = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	testChainID   = big.NewInt(8453)
)

// fakeBackend answers contract calls from canned results and mines every sent transaction.
type fakeBackend struct {
	mu            sync.Mutex
	abis          map[common.Address]abi.ABI
	results       map[string][]interface{}
	estimates     map[string]uint64
	sent          []*types.Transaction
	receiptStatus uint64
}

func newFakeBackend(t *testing.T) (*fakeBackend, *chain.Contract, *chain.Contract) {
	t.Helper()
	vaultContract, err := chain.NewContractFromABI(chain.VaultContract, testVaultAddr, chain.VaultABI, testChainID.Int64())
	require.NoError(t, err)
	tokenContract, err := chain.NewContractFromABI(chain.TokenContract, testTokenAddr, chain.TokenABI, testChainID.Int64())
	require.NoError(t, err)

	return &fakeBackend{
		abis: map[common.Address]abi.ABI{
			testVaultAddr: vaultContract.GetABI(),
			testTokenAddr: tokenContract.GetABI(),
		},
		results:       make(map[string][]interface{}),
		estimates:     make(map[string]uint64),
		receiptStatus: types.ReceiptStatusSuccessful,
	}, vaultContract, tokenContract
}

func (f *fakeBackend) method(to *common.Address, data []byte) (*abi.Method, error) {
	if to == nil || len(data) < 4 {
		return nil, errors.New("not a contract call")
	}
	a, ok := f.abis[*to]
	if !ok {
		return nil, fmt.Errorf("no contract at %s", to.Hex())
	}
	return a.MethodById(data[:4])
}

// lastTx decodes the most recently sent transaction.
func (f *fakeBackend) lastTx(t *testing.T) (*types.Transaction, string, []interface{}) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	tx := f.sent[len(f.sent)-1]
	m, err := f.method(tx.To(), tx.Data())
	require.NoError(t, err)
	args, err := m.Inputs.Unpack(tx.Data()[4:])
	require.NoError(t, err)
	return tx, m.Name, args
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	m, err := f.method(msg.To, msg.Data)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	out, ok := f.results[m.Name]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("execution reverted: no result for %s", m.Name)
	}
	return m.Outputs.Pack(out...)
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1), BaseFee: big.NewInt(1_000_000_000)}, nil
}

func (f *fakeBackend) PendingCodeAt(context.Context, common.Address) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.sent)), nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000), nil
}

func (f *fakeBackend) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	m, err := f.method(msg.To, msg.Data)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if gas, ok := f.estimates[m.Name]; ok {
		return gas, nil
	}
	return 50_000, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (f *fakeBackend) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("subscriptions not supported")
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tx := range f.sent {
		if tx.Hash() == hash {
			return &types.Receipt{Status: f.receiptStatus, TxHash: hash, BlockNumber: big.NewInt(2)}, nil
		}
	}
	return nil, ethereum.NotFound
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(testChainID), nil
}

func newTestSigner(t *testing.T) *KeySigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return NewKeySignerFromKey(key, testChainID)
}
