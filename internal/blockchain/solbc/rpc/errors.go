// internal/blockchain/solbc/rpc/errors.go
package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

var (
	// ErrNoRPCNodes возникает, когда список узлов пуст
	ErrNoRPCNodes = errors.New("no RPC nodes available")

	// ErrInvalidResponse возникает при получении некорректного ответа
	ErrInvalidResponse = errors.New("invalid RPC response")
)

// Error представляет ошибку RPC с дополнительным контекстом
type Error struct {
	Err     error
	NodeURL string
	Method  string
}

// Error реализует интерфейс error
func (e *Error) Error() string {
	return fmt.Sprintf("RPC error [%s] at %s: %v", e.Method, e.NodeURL, e.Err)
}

// Unwrap возвращает оригинальную ошибку
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError создает новую ошибку RPC
func NewError(err error, nodeURL, method string) error {
	return &Error{
		Err:     err,
		NodeURL: nodeURL,
		Method:  method,
	}
}

// IsRetryableError определяет, стоит ли повторять запрос на другом узле.
// "not found" - это ответ, а не сбой узла, его не повторяем.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, solanarpc.ErrNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrInvalidResponse) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "invalid request") ||
		strings.Contains(errStr, "invalid params") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "forbidden") {
		return false
	}
	return true
}
