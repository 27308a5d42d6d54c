// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

import (
	"bytes"
	"fmt"
	"io"
)

// ParserStats holds cumulative framing counters. Checksum rejections and
// skipped bytes are never reported as errors, only counted here.
type ParserStats struct {
	Sentences      uint64 // accepted and decoded
	ChecksumErrors uint64 // frames rejected by checksum
	DecodeErrors   uint64 // checksum-valid frames whose fields failed to decode
	SkippedBytes   uint64 // bytes discarded outside of any frame
	ForcedDrops    uint64 // single-byte drops from an unsynchronized buffer
}

// Parser extracts sentences from a fixed-capacity buffer.
//
// Cursor invariant: 0 <= r <= c <= w <= len(buf), except that c may trail r
// between pulls; it is raised to r+1 before scanning.
type Parser struct {
	buf []byte
	r   int // start of the candidate sentence ('$'), first byte kept on compaction
	c   int // checksum separator ('*') of the candidate, scan resumes here
	w   int // end of written data

	stats ParserStats
}

// NewParser creates a parser with a buffer of size bytes.
// A non-positive size selects DefaultBufferSize.
func NewParser(size int) *Parser {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Parser{buf: make([]byte, size)}
}

// Reset discards all buffered bytes. Counters are kept.
func (p *Parser) Reset() {
	p.r, p.c, p.w = 0, 0, 0
}

// Buffer returns the writable window of the buffer. Fill it, then call
// Advance with the number of bytes written.
func (p *Parser) Buffer() []byte {
	return p.buf[p.w:]
}

// Advance records n bytes written into the window returned by Buffer.
// Reporting more bytes than the window holds is a caller bug and panics.
func (p *Parser) Advance(n int) {
	if n < 0 || n > len(p.buf)-p.w {
		panic(fmt.Sprintf("starneto: advance by %d outside write window of %d bytes", n, len(p.buf)-p.w))
	}
	p.w += n
}

// Write copies data into the buffer. If it does not fit, the bytes that do
// fit are taken and ErrBufferFull is returned; pull with Next to make room.
func (p *Parser) Write(data []byte) (int, error) {
	n := copy(p.Buffer(), data)
	p.w += n
	if n < len(data) {
		return n, ErrBufferFull
	}
	return n, nil
}

// Fill performs a single Read from r directly into the write window
func (p *Parser) Fill(r io.Reader) (int, error) {
	n, err := r.Read(p.Buffer())
	if n > 0 {
		p.Advance(n)
	}
	return n, err
}

// Buffered returns the number of unread bytes held by the parser
func (p *Parser) Buffered() int {
	return p.w
}

// Cap returns the buffer capacity
func (p *Parser) Cap() int {
	return len(p.buf)
}

// Stats returns a snapshot of the framing counters
func (p *Parser) Stats() ParserStats {
	return p.stats
}

// Next pulls one sentence from the buffer.
// Returns nil, nil when no complete sentence is buffered yet.
// Returns nil and a *DecodeError when a checksum-valid sentence has
// malformed fields; the sentence is consumed and the next call continues
// with the following bytes.
// Frames failing the checksum are skipped silently. A rejected frame that
// contains another '$' is retried from the last one, so a sentence whose
// '*' was corrupted costs only itself.
func (p *Parser) Next() (*Sentence, error) {
	var (
		sentence *Sentence
		err      error
	)
	for {
		if !p.locate() || p.w < p.c+3 {
			// No frame start at all, or a full buffer that cannot complete
			// the frame at its front: drop one byte so a desynchronized
			// stream never wedges the parser
			if p.r == 0 && p.w > 0 && (p.w == len(p.buf) || p.buf[0] != StartByte) {
				p.r = 1
				p.stats.ForcedDrops++
				p.stats.SkippedBytes++
				continue
			}
			break
		}
		if p.checksumOK() {
			sentence, err = p.complete()
			break
		}
		p.stats.ChecksumErrors++
		if i := bytes.LastIndexByte(p.buf[p.r+1:p.c], StartByte); i >= 0 {
			// The frame lost its '*' and ran into the next sentence;
			// retry from that sentence's '$' with the same '*'
			p.r += 1 + i
			continue
		}
		p.skipFrame()
	}
	p.compact()
	return sentence, err
}

// locate moves r to the next '$' and c to the next '*' after it.
// Returns false if either marker is not buffered yet; r is left in place
// when there is no '$'.
func (p *Parser) locate() bool {
	i := bytes.IndexByte(p.buf[p.r:p.w], StartByte)
	if i < 0 {
		return false
	}
	p.stats.SkippedBytes += uint64(i)
	p.r += i
	if p.c <= p.r {
		p.c = p.r + 1
	}
	j := bytes.IndexByte(p.buf[p.c:p.w], ChecksumByte)
	if j < 0 {
		p.c = p.w
		return false
	}
	p.c += j
	return true
}

// checksumOK validates the candidate frame [r, c+2]
func (p *Parser) checksumOK() bool {
	body := p.buf[p.r+1 : p.c]
	hi, lo := p.buf[p.c+1], p.buf[p.c+2]
	if isCommandBody(body) {
		return string([]byte{hi, lo}) == commandChecksum
	}
	want, ok := DecodeHex(hi, lo)
	return ok && XOR(body) == want
}

// complete decodes the accepted frame and moves past it
func (p *Parser) complete() (*Sentence, error) {
	body := string(p.buf[p.r+1 : p.c])
	cs, _ := DecodeHex(p.buf[p.c+1], p.buf[p.c+2])
	p.skipFrame()
	p.locate()

	msg, err := ParseBody(body)
	if err != nil {
		p.stats.DecodeErrors++
		return nil, err
	}
	p.stats.Sentences++
	return &Sentence{Message: msg, Checksum: cs}, nil
}

// skipFrame moves both cursors past the checksum digits and any line
// terminator that is already buffered
func (p *Parser) skipFrame() {
	p.r = p.c + 3
	for p.r < p.w && (p.buf[p.r] == '\r' || p.buf[p.r] == '\n') {
		p.r++
	}
	p.c = p.r
}

// compact shifts unread bytes to the front of the buffer
func (p *Parser) compact() {
	if p.r > 0 && p.r < p.w {
		copy(p.buf, p.buf[p.r:p.w])
	}
	p.w -= p.r
	if p.c > p.r {
		p.c -= p.r
	} else {
		p.c = 0
	}
	p.r = 0
}

func isCommandBody(body []byte) bool {
	if !bytes.HasPrefix(body, []byte(HeadCommand)) {
		return false
	}
	return len(body) == len(HeadCommand) || body[len(HeadCommand)] == FieldSep
}
