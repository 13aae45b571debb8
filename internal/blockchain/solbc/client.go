// internal/blockchain/solbc/client.go
package solbc

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-paymaster/internal/blockchain"
	solbcrpc "github.com/rovshanmuradov/solana-paymaster/internal/blockchain/solbc/rpc"
)

// Client – тонкий адаптер над пулом RPC узлов, реализующий blockchain.ChainClient.
type Client struct {
	rpc    *solbcrpc.RPCClient
	logger *zap.Logger
}

// NewClient создаёт клиент поверх списка RPC URL.
func NewClient(rpcURLs []string, logger *zap.Logger, opts ...solbcrpc.Option) (*Client, error) {
	pool, err := solbcrpc.NewClient(rpcURLs, logger, opts...)
	if err != nil {
		return nil, err
	}
	return NewClientWithPool(pool, logger), nil
}

// NewClientWithPool создаёт клиент поверх готового пула.
func NewClientWithPool(pool *solbcrpc.RPCClient, logger *zap.Logger) *Client {
	return &Client{
		rpc:    pool,
		logger: logger.Named("solbc-client"),
	}
}

// GetFeeForMessage возвращает базовую комиссию сети за сообщение.
func (c *Client) GetFeeForMessage(ctx context.Context, message *solana.Message) (uint64, error) {
	fee, err := c.rpc.GetFeeForMessage(ctx, message)
	if err != nil {
		c.logger.Debug("GetFeeForMessage error", zap.Error(err))
		return 0, err
	}
	return fee, nil
}

// GetRecentPrioritizationFees получает недавние prioritization fees.
func (c *Client) GetRecentPrioritizationFees(ctx context.Context, accounts solana.PublicKeySlice) ([]rpc.PriorizationFeeResult, error) {
	fees, err := c.rpc.GetRecentPrioritizationFees(ctx, accounts)
	if err != nil {
		c.logger.Debug("GetRecentPrioritizationFees error", zap.Error(err))
		return nil, err
	}
	return fees, nil
}

// GetAccount получает данные аккаунта. Отсутствующий аккаунт возвращается как blockchain.ErrAccountNotFound.
func (c *Client) GetAccount(ctx context.Context, address solana.PublicKey) (*rpc.Account, error) {
	result, err := c.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		if blockchain.IsAccountNotFound(err) {
			return nil, blockchain.ErrAccountNotFound
		}
		c.logger.Debug("GetAccount error",
			zap.String("pubkey", address.String()),
			zap.Error(err))
		return nil, err
	}
	if result == nil || result.Value == nil {
		return nil, blockchain.ErrAccountNotFound
	}
	return result.Value, nil
}

// Гарантируем, что Client реализует интерфейс blockchain.ChainClient.
var _ blockchain.ChainClient = (*Client)(nil)
