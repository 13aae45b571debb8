package fees

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	ata "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/solana-paymaster/internal/oracle"
)

// MockChainClient реализует blockchain.ChainClient
type MockChainClient struct {
	mock.Mock
}

func (m *MockChainClient) GetFeeForMessage(ctx context.Context, message *solana.Message) (uint64, error) {
	args := m.Called(ctx, message)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockChainClient) GetRecentPrioritizationFees(ctx context.Context, accounts solana.PublicKeySlice) ([]rpc.PriorizationFeeResult, error) {
	args := m.Called(ctx, accounts)
	fees, _ := args.Get(0).([]rpc.PriorizationFeeResult)
	return fees, args.Error(1)
}

func (m *MockChainClient) GetAccount(ctx context.Context, address solana.PublicKey) (*rpc.Account, error) {
	args := m.Called(ctx, address)
	acc, _ := args.Get(0).(*rpc.Account)
	return acc, args.Error(1)
}

// MockPriceSource реализует oracle.PriceSource
type MockPriceSource struct {
	mock.Mock
}

func (m *MockPriceSource) GetTokenPrice(ctx context.Context, symbol string) (*oracle.TokenPriceInfo, error) {
	args := m.Called(ctx, symbol)
	info, _ := args.Get(0).(*oracle.TokenPriceInfo)
	return info, args.Error(1)
}

// factoryFor возвращает фабрику, которая запоминает политику повторов и отдает source
func factoryFor(source oracle.PriceSource, gotRetries *uint, gotInterval *time.Duration) oracle.Factory {
	return func(maxRetries uint, retryInterval time.Duration) oracle.PriceSource {
		if gotRetries != nil {
			*gotRetries = maxRetries
		}
		if gotInterval != nil {
			*gotInterval = retryInterval
		}
		return source
	}
}

// mintData собирает 82-байтовую запись минта
func mintData(decimals uint8, initialized bool) []byte {
	data := make([]byte, token.MINT_SIZE)
	binary.LittleEndian.PutUint32(data[0:4], 1)
	copy(data[4:36], solana.NewWallet().PublicKey().Bytes())
	binary.LittleEndian.PutUint64(data[36:44], 1_000_000_000)
	data[44] = decimals
	if initialized {
		data[45] = 1
	}
	return data
}

func mintAccount(data []byte) *rpc.Account {
	return &rpc.Account{
		Lamports: 1_461_600,
		Owner:    solana.TokenProgramID,
		Data:     rpc.DataBytesOrJSONFromBytes(data),
	}
}

// buildTx собирает подписываемую транзакцию с переданными инструкциями
func buildTx(t *testing.T, payer solana.PublicKey, instructions ...solana.Instruction) *solana.Transaction {
	t.Helper()
	tx, err := solana.NewTransaction(instructions, solana.Hash{1, 2, 3}, solana.TransactionPayer(payer))
	require.NoError(t, err)
	return tx
}

func createATAInstruction(payer, owner, mint solana.PublicKey) solana.Instruction {
	return ata.NewCreateInstruction(payer, owner, mint).Build()
}

func transferInstruction(from, to solana.PublicKey) solana.Instruction {
	return system.NewTransferInstruction(1000, from, to).Build()
}

// craftedATAInstruction - инструкция ATA-программы с произвольным адресом на позиции 1
func craftedATAInstruction(payer, address, owner, mint solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		solana.SPLAssociatedTokenAccountProgramID,
		solana.AccountMetaSlice{
			solana.Meta(payer).SIGNER().WRITE(),
			solana.Meta(address).WRITE(),
			solana.Meta(owner),
			solana.Meta(mint),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(solana.TokenProgramID),
		},
		[]byte{},
	)
}
