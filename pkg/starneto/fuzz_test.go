// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

import (
	"math/rand"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

var fuzzFixtures = []string{fpdLine, imuLine, hpdLine, ggaLine, cmdLine, rmcLine, chcLine, unkLine}

// feedRandomChunks writes data using random chunk sizes, draining after each
func feedRandomChunks(t *testing.T, rng *rand.Rand, p *Parser, data []byte) []*Sentence {
	var sentences []*Sentence
	for len(data) > 0 {
		chunk := rng.Intn(len(p.Buffer())+1) + 1
		if chunk > len(data) {
			chunk = len(data)
		}
		n, _ := p.Write(data[:chunk])
		data = data[n:]

		s, _ := drain(p)
		sentences = append(sentences, s...)

		if p.Buffered() > p.Cap() || len(p.Buffer()) == 0 {
			t.Fatalf("Parser stalled: buffered=%d cap=%d", p.Buffered(), p.Cap())
		}
	}
	return sentences
}

// ============================================================
// Parser Fuzz Tests
// ============================================================

// TestFuzzParser_ValidStreamRandomSplits feeds valid sentences in random
// chunks and expects every one of them back
func TestFuzzParser_ValidStreamRandomSplits(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		var expected []string
		var sb strings.Builder
		for j := rng.Intn(10) + 1; j > 0; j-- {
			line := fuzzFixtures[rng.Intn(len(fuzzFixtures))]
			sb.WriteString(line)
			sb.WriteString("\r\n")
			expected = append(expected, line)
		}

		p := NewParser(DefaultBufferSize)
		sentences := feedRandomChunks(t, rng, p, []byte(sb.String()))

		if len(sentences) != len(expected) {
			t.Fatalf("Round %d: expected %d sentences, got %d", i, len(expected), len(sentences))
		}
		for j, s := range sentences {
			if s.Message.Head() != expected[j][1:len(s.Message.Head())+1] {
				t.Errorf("Round %d: sentence %d: unexpected head %s", i, j, s.Message.Head())
			}
		}
	}
}

// TestFuzzParser_RandomBytes feeds pure noise - should not panic
func TestFuzzParser_RandomBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	alphabet := []byte("$*,.-0123456789ABCDEFabcdefGPFIMUcmd\r\n")
	for i := 0; i < rounds; i++ {
		data := make([]byte, rng.Intn(512))
		for j := range data {
			if rng.Intn(2) == 0 {
				data[j] = alphabet[rng.Intn(len(alphabet))]
			} else {
				data[j] = byte(rng.Intn(256))
			}
		}

		p := NewParser(rng.Intn(DefaultBufferSize) + MinBufferSize)
		feedRandomChunks(t, rng, p, data)
	}
}

// TestFuzzParser_CorruptedSentences corrupts one random byte of a sentence
// surrounded by valid ones - the neighbours must survive
func TestFuzzParser_CorruptedSentences(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		victim := []byte(fuzzFixtures[rng.Intn(len(fuzzFixtures))])
		idx := rng.Intn(len(victim))
		victim[idx] = byte(rng.Intn(256))

		stream := imuLine + "\r\n" + string(victim) + "\r\n" + imuLine + "\r\n" + hpdLine + "\r\n"
		p := NewParser(DefaultBufferSize)
		sentences := feedRandomChunks(t, rng, p, []byte(stream))

		// Both neighbours of the victim survive even when its '*' is lost
		if len(sentences) < 3 {
			t.Fatalf("Round %d: expected neighbours to survive, got %v (corrupted offset %d)", i, heads(sentences), idx)
		}
		if sentences[0].Message.Head() != HeadIMU || sentences[len(sentences)-1].Message.Head() != HeadHPD {
			t.Errorf("Round %d: unexpected heads %v (corrupted offset %d)", i, heads(sentences), idx)
		}
	}
}

// TestFuzzParser_MissingBytes removes random bytes from a valid stream
func TestFuzzParser_MissingBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		data := []byte(strings.Join(fuzzFixtures, "\r\n"))
		numToRemove := rng.Intn(5) + 1
		for j := 0; j < numToRemove; j++ {
			idx := rng.Intn(len(data))
			data = append(data[:idx], data[idx+1:]...)
		}

		p := NewParser(DefaultBufferSize)
		sentences := feedRandomChunks(t, rng, p, data)
		if len(sentences) > len(fuzzFixtures) {
			t.Errorf("Round %d: more sentences (%d) than were sent", i, len(sentences))
		}
	}
}

// TestFuzzFixed_RoundTrip checks FormatFixed and ParseFixed agree for random values
func TestFuzzFixed_RoundTrip(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		v := int32(rng.Uint32())
		places := rng.Intn(10)
		text := FormatFixed(v, places)
		if places == 0 {
			text += "."
		}
		got, err := ParseFixed[int32](text, places)
		if err != nil {
			t.Fatalf("Round %d: parse %q: %v", i, text, err)
		}
		if got != v {
			t.Errorf("Round %d: %q: expected %d, got %d", i, text, v, got)
		}
	}
}
