// internal/fees/components.go
package fees

import "math/bits"

// FeeComponents - составляющие комиссии в лампортах.
type FeeComponents struct {
	BaseFee            uint64
	PriorityFee        uint64
	AccountCreationFee uint64
}

// Total складывает составляющие без переполнения.
func (c FeeComponents) Total() (uint64, error) {
	sum, carry := bits.Add64(c.BaseFee, c.PriorityFee, 0)
	sum, carry2 := bits.Add64(sum, c.AccountCreationFee, 0)
	if carry != 0 || carry2 != 0 {
		return 0, newError(ErrFeeOverflow, "total fee", nil)
	}
	return sum, nil
}

func checkedMul(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}
