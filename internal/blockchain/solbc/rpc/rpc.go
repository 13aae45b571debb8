// internal/blockchain/solbc/rpc/rpc.go
package rpc

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-paymaster/internal/utils/metrics"
)

// Основные константы
const (
	retryAttempts = 3
	retryDelay    = 200 * time.Millisecond
)

// Node - один RPC узел пула
type Node struct {
	Client *solanarpc.Client
	URL    string
}

// RPCClient представляет упрощенный RPC клиент с переключением узлов при ошибке
type RPCClient struct {
	nodes      []Node
	current    int
	mu         sync.Mutex
	commitment solanarpc.CommitmentType
	logger     *zap.Logger
	metrics    *metrics.Collector
}

// Option настраивает RPCClient
type Option func(*RPCClient)

// WithCommitment задает уровень подтверждения для запросов
func WithCommitment(commitment solanarpc.CommitmentType) Option {
	return func(c *RPCClient) { c.commitment = commitment }
}

// WithMetrics подключает коллектор метрик
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *RPCClient) { c.metrics = collector }
}

// NewClient создает новый RPC клиент
func NewClient(urls []string, logger *zap.Logger, opts ...Option) (*RPCClient, error) {
	if len(urls) == 0 {
		return nil, ErrNoRPCNodes
	}

	nodes := make([]Node, len(urls))
	for i, url := range urls {
		nodes[i] = Node{Client: solanarpc.New(url), URL: url}
	}
	return newClient(nodes, logger, opts...), nil
}

func newClient(nodes []Node, logger *zap.Logger, opts ...Option) *RPCClient {
	c := &RPCClient{
		nodes:      nodes,
		commitment: solanarpc.CommitmentConfirmed,
		logger:     logger.Named("rpc-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RPCClient) nextNode() Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	node := c.nodes[c.current]
	c.current = (c.current + 1) % len(c.nodes)
	return node
}

// ExecuteWithRetry выполняет RPC-запрос, переключая узлы при повторяемых ошибках
func ExecuteWithRetry[T any](ctx context.Context, c *RPCClient, method string, operation func(*solanarpc.Client) (T, error)) (T, error) {
	op := func() (T, error) {
		node := c.nextNode()

		start := time.Now()
		res, err := operation(node.Client)
		c.metrics.RecordRPCLatency(method, node.URL, time.Since(start))
		if err == nil {
			return res, nil
		}

		err = NewError(err, node.URL, method)
		if !IsRetryableError(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	notify := func(err error, next time.Duration) {
		c.logger.Debug("RPC request failed, trying next node",
			zap.String("method", method),
			zap.Duration("backoff", next),
			zap.Error(err))
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(retryDelay)),
		backoff.WithMaxTries(uint(min(retryAttempts, len(c.nodes)+1))),
		backoff.WithNotify(notify))
}

// GetFeeForMessage возвращает базовую комиссию за сообщение
func (c *RPCClient) GetFeeForMessage(ctx context.Context, message *solana.Message) (uint64, error) {
	encoded := message.ToBase64()
	return ExecuteWithRetry(ctx, c, "getFeeForMessage", func(client *solanarpc.Client) (uint64, error) {
		out, err := client.GetFeeForMessage(ctx, encoded, c.commitment)
		if err != nil {
			return 0, err
		}
		if out == nil || out.Value == nil {
			// Узел не знает blockhash сообщения
			return 0, ErrInvalidResponse
		}
		return *out.Value, nil
	})
}

// GetRecentPrioritizationFees получает недавние prioritization fees
func (c *RPCClient) GetRecentPrioritizationFees(ctx context.Context, accounts solana.PublicKeySlice) ([]solanarpc.PriorizationFeeResult, error) {
	return ExecuteWithRetry(ctx, c, "getRecentPrioritizationFees", func(client *solanarpc.Client) ([]solanarpc.PriorizationFeeResult, error) {
		return client.GetRecentPrioritizationFees(ctx, accounts)
	})
}

// GetAccountInfo получает информацию об аккаунте
func (c *RPCClient) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*solanarpc.GetAccountInfoResult, error) {
	return ExecuteWithRetry(ctx, c, "getAccountInfo", func(client *solanarpc.Client) (*solanarpc.GetAccountInfoResult, error) {
		return client.GetAccountInfoWithOpts(ctx, pubkey, &solanarpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: c.commitment,
		})
	})
}
