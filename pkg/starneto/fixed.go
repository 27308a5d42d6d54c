// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

import (
	"fmt"
	"strconv"
	"strings"
)

// Integer is the set of field widths produced by the decoders
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Decimal is a fixed-point value whose scale was read from the token itself.
// The represented number is Value / 10^Places.
type Decimal[T Integer] struct {
	Value  T
	Places uint8
}

// String renders the exact decimal text, e.g. {395955874779, 8} -> "3959.55874779"
func (d Decimal[T]) String() string {
	return FormatFixed(d.Value, int(d.Places))
}

// ParseInteger parses a plain decimal integer token into T, rejecting values
// that do not fit the width of T
func ParseInteger[T Integer](s string) (T, error) {
	if isSigned[T]() {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, err
		}
		if int64(T(v)) != v {
			return 0, &strconv.NumError{Func: "ParseInt", Num: s, Err: strconv.ErrRange}
		}
		return T(v), nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if uint64(T(v)) != v {
		return 0, &strconv.NumError{Func: "ParseUint", Num: s, Err: strconv.ErrRange}
	}
	return T(v), nil
}

// ParseFixed parses a token with exactly places digits after the decimal
// point and returns the value scaled by 10^places.
//
//	ParseFixed[int32]("-308580.94", 2) == -30858094
func ParseFixed[T Integer](s string, places int) (T, error) {
	if places < 0 || len(s) < places+2 {
		return 0, fmt.Errorf("fixed-point %q: too short for %d decimal places", s, places)
	}
	i := len(s) - places - 1
	if s[i] != '.' {
		return 0, fmt.Errorf("fixed-point %q: expected '.' at offset %d", s, i)
	}
	return ParseInteger[T](s[:i] + s[i+1:])
}

// ParseDecimal parses a fixed-point token and infers the scale from the
// position of its last decimal point
func ParseDecimal[T Integer](s string) (Decimal[T], error) {
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return Decimal[T]{}, fmt.Errorf("fixed-point %q: no decimal point", s)
	}
	places := len(s) - i - 1
	if places > 0xFF {
		return Decimal[T]{}, fmt.Errorf("fixed-point %q: too many decimal places", s)
	}
	v, err := ParseInteger[T](s[:i] + s[i+1:])
	if err != nil {
		return Decimal[T]{}, err
	}
	return Decimal[T]{Value: v, Places: uint8(places)}, nil
}

// FormatFixed renders v / 10^places without going through floating point
func FormatFixed[T Integer](v T, places int) string {
	var digits string
	neg := false
	if isSigned[T]() {
		n := int64(v)
		if n < 0 {
			neg = true
			digits = strconv.FormatUint(uint64(-n), 10)
		} else {
			digits = strconv.FormatInt(n, 10)
		}
	} else {
		digits = strconv.FormatUint(uint64(v), 10)
	}

	if places > 0 {
		if len(digits) <= places {
			digits = strings.Repeat("0", places-len(digits)+1) + digits
		}
		cut := len(digits) - places
		digits = digits[:cut] + "." + digits[cut:]
	}
	if neg {
		return "-" + digits
	}
	return digits
}

func isSigned[T Integer]() bool {
	return ^T(0) < 0
}
