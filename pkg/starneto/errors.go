// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

import (
	"errors"
	"fmt"
)

// Sentinel errors. DecodeError values match ErrMissingField or ErrParseFailed
// with errors.Is.
var (
	ErrMissingField = errors.New("missing field")
	ErrParseFailed  = errors.New("parse failed")
	ErrBufferFull   = errors.New("parser buffer full")
	ErrNoTail       = errors.New("message does not retain raw tail text")
)

// DecodeErrorKind distinguishes the two field-level failures
type DecodeErrorKind int

const (
	MissingField DecodeErrorKind = iota
	ParseFailed
)

// DecodeError reports a field that could not be decoded from a
// checksum-valid sentence
type DecodeError struct {
	Kind  DecodeErrorKind
	Field string // e.g. "GPFPD:Latitude"
	Token string // raw token, empty for MissingField
}

func (e *DecodeError) Error() string {
	if e.Kind == MissingField {
		return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
	}
	return fmt.Sprintf("%s: %s = %q", ErrParseFailed, e.Field, e.Token)
}

// Is lets errors.Is match the sentinel for the error's kind
func (e *DecodeError) Is(target error) bool {
	switch e.Kind {
	case MissingField:
		return target == ErrMissingField
	case ParseFailed:
		return target == ErrParseFailed
	}
	return false
}

func missingField(name string) error {
	return &DecodeError{Kind: MissingField, Field: name}
}

func parseFailed(name, token string) error {
	return &DecodeError{Kind: ParseFailed, Field: name, Token: token}
}
