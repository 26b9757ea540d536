// SPDX-License-Identifier: MIT
/*
Package bitint provides integer helpers for fixed bit-depth samples and
power-of-2 buffer sizes. Everything here is allocation free and safe to
call from the sampling loop.

An analog-to-digital converter with a resolution of b bits reports values
in [0, 2^b-1]. Audio arriving from other sources (PortAudio floats, signed
PCM from WAV files) is mapped onto that range with the signal's zero
level sitting at mid-scale:

	bits  Max    Mid
	8     255    128
	12    4095   2048
	16    65535  32768
*/
package bitint

import "math"

// IsPowerOfTwo checks if n is a power of 2. Powers of 2 have exactly one bit
// set, so n&(n-1) clears it and leaves zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns the base 2 logarithm of a power of 2, or -1 for anything else.
func Log2(n int) int {
	if !IsPowerOfTwo(n) {
		return -1
	}
	k := 0
	for n > 1 {
		n >>= 1
		k++
	}
	return k
}

// Max returns the largest unsigned value representable with bits bits.
func Max(bits int) uint16 {
	if bits <= 0 {
		return 0
	}
	if bits >= 16 {
		return math.MaxUint16
	}
	return uint16(1)<<bits - 1
}

// Mid returns the mid-scale value used as the zero level of a bipolar signal.
func Mid(bits int) uint16 {
	if bits <= 0 {
		return 0
	}
	if bits > 16 {
		bits = 16
	}
	return uint16(1 << (bits - 1))
}

// FromUnit maps a bipolar sample in [-1, 1] onto the unsigned range of the
// given bit depth. Values outside [-1, 1] saturate.
func FromUnit(v float64, bits int) uint16 {
	if math.IsNaN(v) {
		return Mid(bits)
	}
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	max := float64(Max(bits))
	return uint16(math.Round((v + 1) * 0.5 * max))
}

// FromSigned maps a signed PCM sample of depth srcBits onto the unsigned range
// of dstBits.
func FromSigned(sample int, srcBits, dstBits int) uint16 {
	if srcBits <= 0 {
		return Mid(dstBits)
	}
	full := float64(int64(1) << (srcBits - 1))
	return FromUnit(float64(sample)/full, dstBits)
}

// ToSigned re-centres an unsigned sample of depth srcBits around zero and
// scales it to a signed sample of depth dstBits. Used to store captured
// 12-bit frames as 16-bit PCM.
func ToSigned(sample uint16, srcBits, dstBits int) int {
	centred := int(sample) - int(Mid(srcBits))
	shift := dstBits - srcBits
	if shift >= 0 {
		return centred << shift
	}
	return centred >> -shift
}
