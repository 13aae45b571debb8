// internal/blockchain/types.go
package blockchain

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ChainClient определяет минимальный набор запросов к сети, нужный для расчёта комиссий.
type ChainClient interface {
	// Базовая комиссия сети за сообщение транзакции.
	GetFeeForMessage(ctx context.Context, message *solana.Message) (uint64, error)
	// Недавние prioritization fees; пустой список аккаунтов означает запрос без фильтра.
	GetRecentPrioritizationFees(ctx context.Context, accounts solana.PublicKeySlice) ([]rpc.PriorizationFeeResult, error)
	// Данные аккаунта. Если аккаунта нет, возвращается ErrAccountNotFound.
	GetAccount(ctx context.Context, address solana.PublicKey) (*rpc.Account, error)
}
