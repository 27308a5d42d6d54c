// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

import "strings"

// Command is a $cmd sentence: an operator command echoed or acknowledged by
// the receiver. Verbs other than get, set and through are kept verbatim.
type Command struct {
	Verb    CommandVerb
	Payload string
}

func (*Command) Head() string { return HeadCommand }
func (*Command) message()     {}

// Tail returns the field text exactly as it appeared on the wire
func (m *Command) Tail() string {
	return string(m.Verb) + "," + m.Payload
}

// Known reports whether the verb is one of get, set or through
func (v CommandVerb) Known() bool {
	switch v {
	case VerbGet, VerbSet, VerbThrough:
		return true
	}
	return false
}

// NewCommand builds a command message, e.g. NewCommand(VerbGet, "product")
func NewCommand(verb CommandVerb, payload string) *Command {
	return &Command{Verb: verb, Payload: payload}
}

func decodeCommand(tail string, present bool) (Message, error) {
	verb, payload, found := strings.Cut(tail, ",")
	if !present || !found {
		return nil, missingField("CMD:Type")
	}
	return &Command{Verb: CommandVerb(verb), Payload: payload}, nil
}
