// internal/fees/rent.go
package fees

const (
	// DefaultLamportsPerByteYear - стандартная ставка аренды сети
	DefaultLamportsPerByteYear uint64 = 3480

	// DefaultExemptionThreshold - сколько лет аренды нужно внести для освобождения
	DefaultExemptionThreshold = 2.0

	// AccountStorageOverhead - служебные байты, учитываемые для каждого аккаунта
	AccountStorageOverhead uint64 = 128

	// TokenAccountSize - размер аккаунта SPL Token
	TokenAccountSize uint64 = 165
)

// Rent - параметры аренды сети.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
}

// DefaultRent возвращает параметры аренды по умолчанию, без запроса к сети.
func DefaultRent() Rent {
	return Rent{
		LamportsPerByteYear: DefaultLamportsPerByteYear,
		ExemptionThreshold:  DefaultExemptionThreshold,
	}
}

// MinimumBalance - минимальный баланс для освобождения от аренды аккаунта размером dataLen.
func (r Rent) MinimumBalance(dataLen uint64) uint64 {
	bytes := AccountStorageOverhead + dataLen
	return uint64(float64(bytes*r.LamportsPerByteYear) * r.ExemptionThreshold)
}
