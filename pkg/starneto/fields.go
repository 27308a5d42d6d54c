// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

import "strings"

// field describes one positional token of a sentence schema and where its
// decoded value is stored
type field struct {
	name   string
	decode func(tok string) error
}

// plain decodes an integer token as-is
func plain[T Integer](name string, dst *T) field {
	return field{name: name, decode: func(tok string) error {
		v, err := ParseInteger[T](tok)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}}
}

// fixed decodes a token with a known number of decimal places
func fixed[T Integer](name string, places int, dst *T) field {
	return field{name: name, decode: func(tok string) error {
		v, err := ParseFixed[T](tok, places)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}}
}

// decimal decodes a fixed-point token whose scale varies between receivers
func decimal[T Integer](name string, dst *Decimal[T]) field {
	return field{name: name, decode: func(tok string) error {
		v, err := ParseDecimal[T](tok)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}}
}

// optional decodes an integer token that may be blank
func optional[T Integer](name string, dst **T) field {
	return field{name: name, decode: func(tok string) error {
		if tok == "" {
			*dst = nil
			return nil
		}
		v, err := ParseInteger[T](tok)
		if err != nil {
			return err
		}
		*dst = &v
		return nil
	}}
}

// enum decodes a token from a closed set of codes
func enum[T any](name string, dst *T, parse func(string) (T, bool)) field {
	return field{name: name, decode: func(tok string) error {
		v, ok := parse(tok)
		if !ok {
			return ErrParseFailed
		}
		*dst = v
		return nil
	}}
}

// decodeFields consumes tokens left to right, one per descriptor. Tokens
// beyond the schema are ignored.
func decodeFields(head string, tokens []string, fields []field) error {
	for i, f := range fields {
		if i >= len(tokens) {
			return missingField(head + ":" + f.name)
		}
		if err := f.decode(tokens[i]); err != nil {
			return parseFailed(head+":"+f.name, tokens[i])
		}
	}
	return nil
}

// splitTail splits a sentence tail into tokens. An absent tail has no tokens,
// an empty one has a single empty token.
func splitTail(tail string, present bool) []string {
	if !present {
		return nil
	}
	return strings.Split(tail, ",")
}
