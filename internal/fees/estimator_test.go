package fees

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-paymaster/internal/blockchain"
	"github.com/rovshanmuradov/solana-paymaster/internal/utils/metrics"
)

func recentFees(values ...uint64) []rpc.PriorizationFeeResult {
	out := make([]rpc.PriorizationFeeResult, len(values))
	for i, v := range values {
		out[i] = rpc.PriorizationFeeResult{Slot: uint64(100 + i), PrioritizationFee: v}
	}
	return out
}

func TestEstimateFeeSumsComponents(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	address, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)

	client := new(MockChainClient)
	client.On("GetFeeForMessage", mock.Anything, mock.Anything).Return(uint64(5000), nil)
	client.On("GetAccount", mock.Anything, address).Return(nil, blockchain.ErrAccountNotFound)
	client.On("GetRecentPrioritizationFees", mock.Anything, mock.Anything).Return(recentFees(100, 2500, 0), nil)

	tx := buildTx(t, payer, createATAInstruction(payer, owner, mint))
	estimator := NewEstimator(client, zap.NewNop())

	components, err := estimator.EstimateFeeComponents(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, FeeComponents{BaseFee: 5000, PriorityFee: 2500, AccountCreationFee: 2_039_280}, components)

	total, err := estimator.EstimateFee(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000+2500+2_039_280), total)
	client.AssertExpectations(t)
}

func TestEstimateFeeEmptyPriorityList(t *testing.T) {
	payer := solana.NewWallet().PublicKey()

	client := new(MockChainClient)
	client.On("GetFeeForMessage", mock.Anything, mock.Anything).Return(uint64(5000), nil)
	client.On("GetRecentPrioritizationFees", mock.Anything, mock.Anything).Return([]rpc.PriorizationFeeResult{}, nil)

	tx := buildTx(t, payer, transferInstruction(payer, solana.NewWallet().PublicKey()))

	components, err := NewEstimator(client, zap.NewNop()).EstimateFeeComponents(context.Background(), tx)
	require.NoError(t, err)
	assert.Zero(t, components.PriorityFee)
	assert.Equal(t, uint64(5000), components.BaseFee)
}

func TestEstimateFeeWithoutATAInstructionsSkipsLookups(t *testing.T) {
	payer := solana.NewWallet().PublicKey()

	client := new(MockChainClient)
	client.On("GetFeeForMessage", mock.Anything, mock.Anything).Return(uint64(5000), nil)
	client.On("GetRecentPrioritizationFees", mock.Anything, mock.Anything).Return(recentFees(10), nil)

	tx := buildTx(t, payer,
		transferInstruction(payer, solana.NewWallet().PublicKey()),
		transferInstruction(payer, solana.NewWallet().PublicKey()),
	)

	fee, err := NewEstimator(client, zap.NewNop()).EstimateFee(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5010), fee)
	client.AssertNotCalled(t, "GetAccount", mock.Anything, mock.Anything)
}

func TestEstimateFeeIgnoresNonCanonicalATA(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	bogus := solana.NewWallet().PublicKey()

	client := new(MockChainClient)
	client.On("GetFeeForMessage", mock.Anything, mock.Anything).Return(uint64(5000), nil)
	client.On("GetRecentPrioritizationFees", mock.Anything, mock.Anything).Return(recentFees(), nil)
	client.On("GetAccount", mock.Anything, mock.Anything).Return(nil, blockchain.ErrAccountNotFound)

	tx := buildTx(t, payer, craftedATAInstruction(payer, bogus, owner, mint))

	components, err := NewEstimator(client, zap.NewNop()).EstimateFeeComponents(context.Background(), tx)
	require.NoError(t, err)
	assert.Zero(t, components.AccountCreationFee)
	client.AssertNotCalled(t, "GetAccount", mock.Anything, mock.Anything)
}

func TestEstimateFeeExistingATAIsFree(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	client := new(MockChainClient)
	client.On("GetFeeForMessage", mock.Anything, mock.Anything).Return(uint64(5000), nil)
	client.On("GetRecentPrioritizationFees", mock.Anything, mock.Anything).Return(recentFees(), nil)
	client.On("GetAccount", mock.Anything, mock.Anything).Return(mintAccount(make([]byte, TokenAccountSize)), nil)

	tx := buildTx(t, payer, createATAInstruction(payer, owner, mint))

	components, err := NewEstimator(client, zap.NewNop()).EstimateFeeComponents(context.Background(), tx)
	require.NoError(t, err)
	assert.Zero(t, components.AccountCreationFee)
}

func TestEstimateFeeATALookupFailureIsRPCError(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	cause := errors.New("502 bad gateway")

	client := new(MockChainClient)
	client.On("GetFeeForMessage", mock.Anything, mock.Anything).Return(uint64(5000), nil)
	client.On("GetAccount", mock.Anything, mock.Anything).Return(nil, cause)

	tx := buildTx(t, payer, createATAInstruction(payer, owner, mint))

	_, err := NewEstimator(client, zap.NewNop()).EstimateFee(context.Background(), tx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRPC)
	assert.ErrorIs(t, err, cause)
	client.AssertNotCalled(t, "GetRecentPrioritizationFees", mock.Anything, mock.Anything)
}

func TestEstimateFeeStepFailures(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name     string
		setup    func(c *MockChainClient)
		wantStep string
	}{
		{
			name: "base fee",
			setup: func(c *MockChainClient) {
				c.On("GetFeeForMessage", mock.Anything, mock.Anything).Return(uint64(0), cause)
			},
			wantStep: "base fee",
		},
		{
			name: "priority fee",
			setup: func(c *MockChainClient) {
				c.On("GetFeeForMessage", mock.Anything, mock.Anything).Return(uint64(5000), nil)
				c.On("GetRecentPrioritizationFees", mock.Anything, mock.Anything).Return(nil, cause)
			},
			wantStep: "priority fee",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payer := solana.NewWallet().PublicKey()
			client := new(MockChainClient)
			tt.setup(client)

			tx := buildTx(t, payer, transferInstruction(payer, solana.NewWallet().PublicKey()))

			fee, err := NewEstimator(client, zap.NewNop()).EstimateFee(context.Background(), tx)
			require.Error(t, err)
			assert.Zero(t, fee)
			assert.ErrorIs(t, err, ErrRPC)
			assert.ErrorIs(t, err, cause)

			var feeErr *Error
			require.ErrorAs(t, err, &feeErr)
			assert.Equal(t, tt.wantStep, feeErr.Step)
		})
	}
}

func TestEstimateFeeOverflow(t *testing.T) {
	payer := solana.NewWallet().PublicKey()

	client := new(MockChainClient)
	client.On("GetFeeForMessage", mock.Anything, mock.Anything).Return(uint64(math.MaxUint64), nil)
	client.On("GetRecentPrioritizationFees", mock.Anything, mock.Anything).Return(recentFees(1), nil)

	tx := buildTx(t, payer, transferInstruction(payer, solana.NewWallet().PublicKey()))

	_, err := NewEstimator(client, zap.NewNop()).EstimateFee(context.Background(), tx)
	assert.ErrorIs(t, err, ErrFeeOverflow)
}

func TestEstimateFeeCancellationIsReachable(t *testing.T) {
	payer := solana.NewWallet().PublicKey()

	client := new(MockChainClient)
	client.On("GetFeeForMessage", mock.Anything, mock.Anything).Return(uint64(0), context.Canceled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tx := buildTx(t, payer, transferInstruction(payer, solana.NewWallet().PublicKey()))

	_, err := NewEstimator(client, zap.NewNop()).EstimateFee(ctx, tx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrRPC)
}

func TestEstimateFeeNilTransaction(t *testing.T) {
	client := new(MockChainClient)

	_, err := NewEstimator(client, zap.NewNop()).EstimateFee(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidTransaction)
	client.AssertNotCalled(t, "GetFeeForMessage", mock.Anything, mock.Anything)
}

func TestEstimateFeeRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	payer := solana.NewWallet().PublicKey()
	client := new(MockChainClient)
	client.On("GetFeeForMessage", mock.Anything, mock.Anything).Return(uint64(5000), nil)
	client.On("GetRecentPrioritizationFees", mock.Anything, mock.Anything).Return(recentFees(7), nil)

	tx := buildTx(t, payer, transferInstruction(payer, solana.NewWallet().PublicKey()))

	estimator := NewEstimator(client, zap.NewNop(), WithEstimatorMetrics(collector))
	_, err = estimator.EstimateFee(context.Background(), tx)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "paymaster_fee_estimates_total", "paymaster_fee_component_lamports")
	require.NoError(t, err)
	// один счетчик success и три компонента
	assert.Equal(t, 4, count)
}

func TestMaxPrioritizationFee(t *testing.T) {
	assert.Zero(t, maxPrioritizationFee(nil))
	assert.Equal(t, uint64(9), maxPrioritizationFee(recentFees(3, 9, 1)))
}
