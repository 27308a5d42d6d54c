// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

import "strings"

// Rebuild assembles "$HEAD,TAIL*XX" with the checksum rendered as two
// uppercase hex digits. The command family always carries "ff".
func Rebuild(head, tail string, checksum byte) string {
	var sb strings.Builder
	sb.Grow(len(head) + len(tail) + 5)
	sb.WriteByte(StartByte)
	sb.WriteString(head)
	sb.WriteByte(FieldSep)
	sb.WriteString(tail)
	sb.WriteByte(ChecksumByte)
	if head == HeadCommand {
		sb.WriteString(commandChecksum)
	} else {
		hex := EncodeHex(checksum)
		sb.Write(hex[:])
	}
	return sb.String()
}

// Encode re-serializes a message that retains its raw tail, using the
// checksum recorded when it was parsed. Messages decoded only into typed
// fields return ErrNoTail.
func Encode(m Message, checksum byte) (string, error) {
	t, ok := m.(Tailer)
	if !ok {
		return "", ErrNoTail
	}
	return Rebuild(t.Head(), t.Tail(), checksum), nil
}

// EncodeSentence re-serializes a parsed sentence
func EncodeSentence(s *Sentence) (string, error) {
	return Encode(s.Message, s.Checksum)
}

// Checksum computes the XOR checksum a sentence with this head and tail
// must carry
func Checksum(head, tail string) byte {
	return XOR([]byte(head)) ^ FieldSep ^ XOR([]byte(tail))
}

// EncodeCommand renders a command ready to be written to the receiver,
// terminated by CRLF
func EncodeCommand(c *Command) []byte {
	return []byte(Rebuild(HeadCommand, c.Tail(), 0) + "\r\n")
}
