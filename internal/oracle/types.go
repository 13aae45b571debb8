// internal/oracle/types.go
package oracle

import (
	"context"
	"errors"
	"strconv"
	"time"
)

var (
	// ErrPriceNotFound возникает, когда оракул не вернул цену для символа
	ErrPriceNotFound = errors.New("price not found")

	// ErrInvalidPrice возникает при нулевой, отрицательной или нечисловой цене
	ErrInvalidPrice = errors.New("invalid price")
)

// TokenPriceInfo - цена одного символа в USD на момент запроса.
type TokenPriceInfo struct {
	Price float64 `json:"price"`
}

// PriceSource определяет источник цен.
type PriceSource interface {
	GetTokenPrice(ctx context.Context, symbol string) (*TokenPriceInfo, error)
}

// Factory создает источник цен с заданной политикой повторов.
type Factory func(maxRetries uint, retryInterval time.Duration) PriceSource

// NewFactory возвращает Factory, создающую PriceOracle с общими опциями.
func NewFactory(opts ...Option) Factory {
	return func(maxRetries uint, retryInterval time.Duration) PriceSource {
		return New(maxRetries, retryInterval, opts...)
	}
}

// priceResponse представляет ответ price API
type priceResponse struct {
	Data map[string]*priceEntry `json:"data"`
}

type priceEntry struct {
	ID    string    `json:"id"`
	Price jsonPrice `json:"price"`
}

// jsonPrice принимает цену как числом, так и строкой ("148.23")
type jsonPrice float64

func (p *jsonPrice) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = 0
		return nil
	}
	raw := string(data)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	*p = jsonPrice(v)
	return nil
}
