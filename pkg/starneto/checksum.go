// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

const hexDigits = "0123456789ABCDEF"

// XOR computes the sentence checksum over data
func XOR(data []byte) byte {
	var cs byte
	for _, b := range data {
		cs ^= b
	}
	return cs
}

// EncodeHex returns the two uppercase hex digits for b
func EncodeHex(b byte) [2]byte {
	return [2]byte{hexDigits[b>>4], hexDigits[b&0x0F]}
}

// DecodeHex parses two hex digits, accepting either case.
// Returns false if either byte is not a hex digit.
func DecodeHex(hi, lo byte) (byte, bool) {
	h, ok := hexNibble(hi)
	if !ok {
		return 0, false
	}
	l, ok := hexNibble(lo)
	if !ok {
		return 0, false
	}
	return h<<4 | l, true
}

func hexNibble(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}
