// internal/fees/converter.go
package fees

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/solana-paymaster/internal/blockchain"
	"github.com/rovshanmuradov/solana-paymaster/internal/oracle"
	"github.com/rovshanmuradov/solana-paymaster/internal/utils/metrics"
)

// Политика повторов оракула для конвертации
const (
	OracleMaxRetries    uint = 3
	OracleRetryInterval      = time.Second

	// NativeSymbol - символ, под которым у оракула запрашивается цена SOL
	NativeSymbol = oracle.NativeSymbol
)

// Converter переводит сумму токена в эквивалент в лампортах по рыночным ценам.
type Converter struct {
	client    blockchain.ChainClient
	newOracle oracle.Factory
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// ConverterOption настраивает Converter
type ConverterOption func(*Converter)

// WithConverterMetrics подключает коллектор метрик
func WithConverterMetrics(collector *metrics.Collector) ConverterOption {
	return func(c *Converter) { c.metrics = collector }
}

// NewConverter создает конвертер. newOracle вызывается на каждый запрос.
func NewConverter(client blockchain.ChainClient, newOracle oracle.Factory, logger *zap.Logger, opts ...ConverterOption) *Converter {
	c := &Converter{
		client:    client,
		newOracle: newOracle,
		logger:    logger.Named("token-converter"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TokenValueInLamports возвращает стоимость amount (в минимальных единицах токена) в лампортах.
func (c *Converter) TokenValueInLamports(ctx context.Context, amount uint64, mint solana.PublicKey) (lamports uint64, err error) {
	defer func() {
		c.metrics.RecordConversion(err == nil)
	}()

	// 1. Decimals из аккаунта минта
	account, err := c.client.GetAccount(ctx, mint)
	if err != nil {
		return 0, newError(ErrRPC, "mint account", err)
	}
	if account.Data == nil {
		return 0, newError(ErrInvalidTransaction, "invalid mint", fmt.Errorf("mint %s has no data", mint))
	}
	mintData, err := decodeMint(account.Data.GetBinary())
	if err != nil {
		return 0, newError(ErrInvalidTransaction, "invalid mint", err)
	}

	// 2-3. Цены токена и SOL, запрошенные параллельно
	tokenPrice, solPrice, err := c.fetchPrices(ctx, mint.String())
	if err != nil {
		return 0, err
	}

	// 4. Конвертация
	lamports, err = TokenValueToLamports(amount, mintData.Decimals, tokenPrice, solPrice)
	if err != nil {
		return 0, err
	}

	c.logger.Debug("Token value converted",
		zap.Stringer("mint", mint),
		zap.Uint64("amount", amount),
		zap.Uint8("decimals", mintData.Decimals),
		zap.Float64("token_price", tokenPrice),
		zap.Float64("sol_price", solPrice),
		zap.Uint64("lamports", lamports))

	return lamports, nil
}

func (c *Converter) fetchPrices(ctx context.Context, tokenSymbol string) (tokenPrice, solPrice float64, err error) {
	source := c.newOracle(OracleMaxRetries, OracleRetryInterval)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info, err := source.GetTokenPrice(gCtx, tokenSymbol)
		if err != nil {
			return newError(ErrOracle, "token price", err)
		}
		if info == nil {
			return newError(ErrOracle, "token price", oracle.ErrPriceNotFound)
		}
		tokenPrice = info.Price
		return nil
	})
	g.Go(func() error {
		info, err := source.GetTokenPrice(gCtx, NativeSymbol)
		if err != nil {
			return newError(ErrOracle, "SOL price", err)
		}
		if info == nil {
			return newError(ErrOracle, "SOL price", oracle.ErrPriceNotFound)
		}
		solPrice = info.Price
		return nil
	})

	if err := g.Wait(); err != nil {
		c.logger.Warn("Failed to fetch prices", zap.String("symbol", tokenSymbol), zap.Error(err))
		return 0, 0, err
	}
	return tokenPrice, solPrice, nil
}

// TokenValueToLamports - единственное место с арифметикой в float64.
// Результат округляется вниз: дробный лампорт релейеру не начисляется.
func TokenValueToLamports(amount uint64, decimals uint8, tokenPrice, solPrice float64) (uint64, error) {
	if !validPrice(tokenPrice) {
		return 0, newError(ErrOracle, "token price", fmt.Errorf("%w: %v", oracle.ErrInvalidPrice, tokenPrice))
	}
	if !validPrice(solPrice) {
		return 0, newError(ErrOracle, "SOL price", fmt.Errorf("%w: %v", oracle.ErrInvalidPrice, solPrice))
	}

	tokenAmount := float64(amount) / math.Pow10(int(decimals))
	usdValue := tokenAmount * tokenPrice
	solAmount := usdValue / solPrice
	lamports := math.Floor(solAmount * float64(solana.LAMPORTS_PER_SOL))

	// 2^64 точно представимо в float64; все, что не меньше, не помещается в uint64
	if math.IsNaN(lamports) || lamports >= math.MaxUint64 {
		return 0, newError(ErrFeeOverflow, "token value", fmt.Errorf("%v lamports", lamports))
	}
	return uint64(lamports), nil
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}
