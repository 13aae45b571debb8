// internal/blockchain/blockchain.go
package blockchain

import (
	"errors"

	"github.com/gagliardetto/solana-go/rpc"
)

// ErrAccountNotFound возвращается, когда аккаунт по адресу не существует в сети.
var ErrAccountNotFound = errors.New("account not found")

// IsAccountNotFound отличает "аккаунта нет" от сетевых ошибок.
func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) || errors.Is(err, rpc.ErrNotFound)
}
