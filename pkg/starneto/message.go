// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

import "strings"

// Message is a decoded sentence body. The set of implementations is closed:
// *FPD, *IMU, *HPD, *GGA, *RMC, *CHC, *Command and *Unknown.
type Message interface {
	// Head returns the sentence head token, e.g. "GPFPD"
	Head() string
	message()
}

// Tailer is implemented by messages that keep their raw field text and can
// therefore be re-encoded byte for byte
type Tailer interface {
	Message
	Tail() string
}

// Sentence is one checksum-valid sentence pulled from the Parser
type Sentence struct {
	Message  Message
	Checksum byte
}

// RMC is a GPRMC sentence kept as opaque text
type RMC struct {
	Raw string
}

func (*RMC) Head() string   { return HeadRMC }
func (m *RMC) Tail() string { return m.Raw }
func (*RMC) message()       {}

// CHC is a GPCHC sentence kept as opaque text
type CHC struct {
	Raw string
}

func (*CHC) Head() string   { return HeadCHC }
func (m *CHC) Tail() string { return m.Raw }
func (*CHC) message()       {}

// Unknown carries any sentence whose head is not modeled
type Unknown struct {
	Name string
	Raw  string
}

func (m *Unknown) Head() string { return m.Name }
func (m *Unknown) Tail() string { return m.Raw }
func (*Unknown) message()       {}

type decodeFunc func(tail string, present bool) (Message, error)

var decoders = map[string]decodeFunc{
	HeadFPD:     decodeFPD,
	HeadIMU:     decodeIMU,
	HeadHPD:     decodeHPD,
	HeadGGA:     decodeGGA,
	HeadRMC:     passthrough(HeadRMC, func(tail string) Message { return &RMC{Raw: tail} }),
	HeadCHC:     passthrough(HeadCHC, func(tail string) Message { return &CHC{Raw: tail} }),
	HeadCommand: decodeCommand,
}

// passthrough wraps a raw-tail constructor. A body without a field separator
// has no tail to keep, and rebuilding it would add a ',' that was never sent.
func passthrough(head string, build func(tail string) Message) decodeFunc {
	return func(tail string, present bool) (Message, error) {
		if !present {
			return nil, missingField(head + ":Tail")
		}
		return build(tail), nil
	}
}

// ParseBody decodes the text between '$' and '*' of a sentence.
// Unrecognized heads are returned as *Unknown.
func ParseBody(body string) (Message, error) {
	head, tail, present := strings.Cut(body, ",")
	if decode, ok := decoders[head]; ok {
		return decode(tail, present)
	}
	return passthrough(head, func(tail string) Message { return &Unknown{Name: head, Raw: tail} })(tail, present)
}

// IsKnownHead reports whether head has a dedicated decoder
func IsKnownHead(head string) bool {
	_, ok := decoders[head]
	return ok
}
