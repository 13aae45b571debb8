// internal/fees/estimator.go
package fees

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-paymaster/internal/blockchain"
	"github.com/rovshanmuradov/solana-paymaster/internal/utils/metrics"
)

// Estimator оценивает, сколько лампортов релейер заплатит за транзакцию.
type Estimator struct {
	client  blockchain.ChainClient
	rent    Rent
	logger  *zap.Logger
	metrics *metrics.Collector
}

// EstimatorOption настраивает Estimator
type EstimatorOption func(*Estimator)

// WithRent переопределяет параметры аренды
func WithRent(rent Rent) EstimatorOption {
	return func(e *Estimator) { e.rent = rent }
}

// WithEstimatorMetrics подключает коллектор метрик
func WithEstimatorMetrics(collector *metrics.Collector) EstimatorOption {
	return func(e *Estimator) { e.metrics = collector }
}

// NewEstimator создает оценщик комиссии.
func NewEstimator(client blockchain.ChainClient, logger *zap.Logger, opts ...EstimatorOption) *Estimator {
	e := &Estimator{
		client: client,
		rent:   DefaultRent(),
		logger: logger.Named("fee-estimator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EstimateFee возвращает итоговую комиссию: base + priority + создание ATA.
func (e *Estimator) EstimateFee(ctx context.Context, tx *solana.Transaction) (uint64, error) {
	components, err := e.EstimateFeeComponents(ctx, tx)
	if err != nil {
		return 0, err
	}
	return components.Total()
}

// EstimateFeeComponents возвращает составляющие комиссии. Частичного результата нет:
// любая ошибка шага возвращается вызывающему.
func (e *Estimator) EstimateFeeComponents(ctx context.Context, tx *solana.Transaction) (components FeeComponents, err error) {
	start := time.Now()
	defer func() {
		e.metrics.RecordFeeEstimate(time.Since(start), err == nil)
	}()

	if tx == nil {
		return FeeComponents{}, newError(ErrInvalidTransaction, "transaction", errNilTransaction)
	}

	// 1. Базовая комиссия сети
	components.BaseFee, err = e.client.GetFeeForMessage(ctx, &tx.Message)
	if err != nil {
		e.logger.Warn("Failed to get base fee", zap.Error(err))
		return FeeComponents{}, newError(ErrRPC, "base fee", err)
	}

	// 2. Создание ATA
	components.AccountCreationFee, err = AccountCreationFee(ctx, e.client, &tx.Message, e.rent, e.logger)
	if err != nil {
		e.logger.Warn("Failed to compute account creation fee", zap.Error(err))
		return FeeComponents{}, err
	}

	// 3. Приоритетная комиссия по недавним блокам
	recent, err := e.client.GetRecentPrioritizationFees(ctx, nil)
	if err != nil {
		e.logger.Warn("Failed to get recent prioritization fees", zap.Error(err))
		return FeeComponents{}, newError(ErrRPC, "priority fee", err)
	}
	components.PriorityFee = maxPrioritizationFee(recent)

	// 4. Проверяем, что сумма помещается в uint64
	total, err := components.Total()
	if err != nil {
		return FeeComponents{}, err
	}

	e.metrics.RecordFeeComponents(components.BaseFee, components.PriorityFee, components.AccountCreationFee)
	e.logger.Debug("Fee estimated",
		zap.Uint64("base_fee", components.BaseFee),
		zap.Uint64("priority_fee", components.PriorityFee),
		zap.Uint64("account_creation_fee", components.AccountCreationFee),
		zap.Uint64("total_fee", total))

	return components, nil
}

// maxPrioritizationFee - максимум по наблюдениям; пустой список дает 0.
func maxPrioritizationFee(recent []rpc.PriorizationFeeResult) uint64 {
	var fee uint64
	for _, r := range recent {
		if r.PrioritizationFee > fee {
			fee = r.PrioritizationFee
		}
	}
	return fee
}
