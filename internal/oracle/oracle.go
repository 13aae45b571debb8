// internal/oracle/oracle.go
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-paymaster/internal/utils/metrics"
)

const (
	// NativeSymbol - символ нативного SOL. Price API принимает только адреса минтов,
	// поэтому SOL запрашивается по минту wrapped SOL.
	NativeSymbol = "SOL"

	DefaultBaseURL = "https://api.jup.ag/price/v2"
	DefaultTimeout = 5 * time.Second
	apiKeyHeader   = "x-api-key"
)

// PriceOracle получает спотовые цены в USD по HTTP с повторами.
// Каждый экземпляр живет в рамках одного вызова, кэша нет.
type PriceOracle struct {
	maxRetries    uint
	retryInterval time.Duration
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	logger        *zap.Logger
	metrics       *metrics.Collector
}

// Option настраивает PriceOracle
type Option func(*PriceOracle)

// WithBaseURL задает адрес price API
func WithBaseURL(baseURL string) Option {
	return func(o *PriceOracle) { o.baseURL = baseURL }
}

// WithAPIKey задает ключ API
func WithAPIKey(key string) Option {
	return func(o *PriceOracle) { o.apiKey = key }
}

// WithHTTPClient задает HTTP клиент
func WithHTTPClient(client *http.Client) Option {
	return func(o *PriceOracle) { o.httpClient = client }
}

// WithLogger задает логгер
func WithLogger(logger *zap.Logger) Option {
	return func(o *PriceOracle) { o.logger = logger }
}

// WithMetrics подключает коллектор метрик
func WithMetrics(collector *metrics.Collector) Option {
	return func(o *PriceOracle) { o.metrics = collector }
}

// New создает оракул, делающий до maxRetries попыток с паузой retryInterval.
func New(maxRetries uint, retryInterval time.Duration, opts ...Option) *PriceOracle {
	o := &PriceOracle{
		maxRetries:    maxRetries,
		retryInterval: retryInterval,
		baseURL:       DefaultBaseURL,
		httpClient:    &http.Client{Timeout: DefaultTimeout},
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.maxRetries == 0 {
		o.maxRetries = 1
	}
	o.logger = o.logger.Named("price-oracle")
	return o
}

// GetTokenPrice возвращает цену символа в USD.
func (o *PriceOracle) GetTokenPrice(ctx context.Context, symbol string) (*TokenPriceInfo, error) {
	attempt := 0
	operation := func() (*TokenPriceInfo, error) {
		attempt++
		info, err := o.fetchPrice(ctx, symbol)
		o.metrics.RecordOracleRequest(err == nil)
		return info, err
	}

	notify := func(err error, next time.Duration) {
		o.logger.Debug("Price request failed, retrying",
			zap.String("symbol", symbol),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", next),
			zap.Error(err))
	}

	info, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(o.retryInterval)),
		backoff.WithMaxTries(o.maxRetries),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify))
	if err != nil {
		o.logger.Warn("Failed to fetch price",
			zap.String("symbol", symbol),
			zap.Int("attempts", attempt),
			zap.Error(err))
		return nil, fmt.Errorf("failed to fetch price for %s after %d attempt(s): %w", symbol, attempt, err)
	}
	return info, nil
}

func (o *PriceOracle) fetchPrice(ctx context.Context, symbol string) (*TokenPriceInfo, error) {
	endpoint, err := url.Parse(o.baseURL)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("invalid oracle URL: %w", err))
	}
	query := endpoint.Query()
	id := priceID(symbol)
	query.Set("ids", id)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if o.apiKey != "" {
		req.Header.Set(apiKeyHeader, o.apiKey)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("API returned status code: %d", resp.StatusCode)
		// 4xx кроме 429 не исправится повтором
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(statusErr)
		}
		return nil, statusErr
	}

	var body priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode API response: %w", err)
	}

	entry, ok := body.Data[id]
	if !ok || entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrPriceNotFound, symbol)
	}

	price := float64(entry.Price)
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, backoff.Permanent(fmt.Errorf("%w: %v for %s", ErrInvalidPrice, price, symbol))
	}

	return &TokenPriceInfo{Price: price}, nil
}

// priceID возвращает идентификатор, под которым price API знает символ
func priceID(symbol string) string {
	if symbol == NativeSymbol {
		return solana.SolMint.String()
	}
	return symbol
}
