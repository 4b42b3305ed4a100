// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-2 helpers used to size the zero-padded
FFT buffers of the convolution engine.

Usage:

	// Padded transform length for a linear convolution of 1000 samples
	nFFT := bitint.NextPowerOfTwo(1000) // Returns 1024

	// Verify a plan length before building it
	isValid := bitint.IsPowerOfTwo(nFFT)

----------------------------------------------------------------------

What this code does:

	NextPowerOfTwo returns the next power of 2 greater than or
	equal to size. For powers of 2, it returns the same value.
	For other values, it returns the next higher power of 2.

	The subtraction (size-1) is what keeps exact powers of 2 in
	place:

	- For input 8 (already a power of 2):
	  size-1 = 7 (binary 0111)
	  bits.Len(7) = 3
	  1 << 3 = 8

	- For input 9:
	  size-1 = 8 (binary 1000)
	  bits.Len(8) = 4
	  1 << 4 = 16

	This is the integer form of 2^ceil(log2(size)). Working on the
	bits instead of math.Log2 keeps the result exact for lengths where
	the float logarithm of a non-power rounds onto a whole number.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
//
// Examples:
//
//	Input  Output  Explanation
//	4      4      Already power of 2 (preserved)
//	5      8      Next power after 5
//	0      1      Handle zero case
//	-1     1      Handle negative case
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo checks if n is a power of 2 using bit manipulation.
// The expression (n & (n-1)) == 0 works because powers of 2 have
// exactly one bit set, and subtracting 1 sets all the lower bits.
//
// Examples:
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
//	-8     false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
