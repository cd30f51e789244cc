package power

import (
	"iter"
	"math/bits"
)

// Bits yields (index, bit of state at index) for every set bit of mask,
// lowest index first. The sequence is pure and can be ranged over again.
func Bits(state, mask uint8) iter.Seq2[int, bool] {
	return func(yield func(int, bool) bool) {
		for m := mask; m != 0; m &= m - 1 {
			i := bits.TrailingZeros8(m)
			if !yield(i, state&(1<<i) != 0) {
				return
			}
		}
	}
}
