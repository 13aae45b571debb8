// internal/fees/errors.go
package fees

import (
	"errors"
	"fmt"
)

// Классы ошибок. Проверяются через errors.Is.
var (
	// ErrRPC - сбой запроса к сети (базовая комиссия, prioritization fees, аккаунты, минт)
	ErrRPC = errors.New("rpc error")

	// ErrInvalidTransaction - структурно некорректный вход: минт, индексы аккаунтов
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrOracle - оракул исчерпал попытки или вернул неположительную цену
	ErrOracle = errors.New("oracle error")

	// ErrFeeOverflow - переполнение uint64 при сложении или конвертации
	ErrFeeOverflow = errors.New("fee overflow")

	errNilTransaction = errors.New("transaction is nil")
)

// Error описывает, на каком шаге расчета произошла ошибка.
// Unwrap отдает и класс ошибки, и исходную причину.
type Error struct {
	Kind error
	Step string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Step)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Step, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, step string, err error) error {
	return &Error{Kind: kind, Step: step, Err: err}
}
