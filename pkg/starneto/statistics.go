// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Statistics tracks sentence statistics and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalSentences  uint64
	ValidSentences  uint64
	DecodeErrors    uint64
	MissingFields   uint64
	ParseFailures   uint64
	AnomalousValues uint64
	InvalidPosition uint64
	InvalidAngle    uint64
	SystemErrors    uint64
	NoFix           uint64
	NoSatellites    uint64
	InvalidTemp     uint64
	UnknownVerbs    uint64

	// Framing counters, mirrored from the parser
	ChecksumErrors uint64
	SkippedBytes   uint64
	ForcedDrops    uint64

	// Sentences per head
	ByHead map[string]uint64

	// Rates (calculated)
	SentenceRate float64 // sentences/sec
	ErrorRate    float64 // errors/sec

	parserBase ParserStats
	parserLast ParserStats
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
		ByHead:         make(map[string]uint64),
	}
}

// Update updates statistics based on a pulled sentence, its decode error and
// its validation errors
func (s *Statistics) Update(sentence *Sentence, decodeErr error, validationErrors []ValidationError) {
	s.TotalSentences++
	s.LastUpdateTime = time.Now()

	if decodeErr != nil {
		s.DecodeErrors++
		switch {
		case errors.Is(decodeErr, ErrMissingField):
			s.MissingFields++
		case errors.Is(decodeErr, ErrParseFailed):
			s.ParseFailures++
		}
		return
	}

	if sentence != nil {
		s.ByHead[sentence.Message.Head()]++
	}

	if len(validationErrors) == 0 {
		s.ValidSentences++
		return
	}

	s.AnomalousValues++
	for _, err := range validationErrors {
		switch err.Type {
		case ANOMALY_INVALID_POSITION:
			s.InvalidPosition++
		case ANOMALY_INVALID_ANGLE:
			s.InvalidAngle++
		case ANOMALY_SYSTEM_ERROR:
			s.SystemErrors++
		case ANOMALY_NO_FIX:
			s.NoFix++
		case ANOMALY_NO_SATELLITES:
			s.NoSatellites++
		case ANOMALY_INVALID_TEMP:
			s.InvalidTemp++
		case ANOMALY_UNKNOWN_VERB:
			s.UnknownVerbs++
		}
	}
}

// ObserveParser takes the framing counters from a parser snapshot,
// relative to the last Reset
func (s *Statistics) ObserveParser(ps ParserStats) {
	s.parserLast = ps
	s.ChecksumErrors = ps.ChecksumErrors - s.parserBase.ChecksumErrors
	s.SkippedBytes = ps.SkippedBytes - s.parserBase.SkippedBytes
	s.ForcedDrops = ps.ForcedDrops - s.parserBase.ForcedDrops
}

// CalculateRates calculates sentence and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.SentenceRate = float64(s.TotalSentences) / elapsed
		s.ErrorRate = float64(s.ErrorCount()) / elapsed
	}
}

// ErrorCount returns checksum, decode and anomaly counts combined
func (s *Statistics) ErrorCount() uint64 {
	return s.ChecksumErrors + s.DecodeErrors + s.AnomalousValues
}

// Heads returns the observed heads in lexical order
func (s *Statistics) Heads() []string {
	heads := make([]string, 0, len(s.ByHead))
	for head := range s.ByHead {
		heads = append(heads, head)
	}
	sort.Strings(heads)
	return heads
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	// Checksum failures never reach Update, so they are measured against
	// every frame seen
	frames := s.TotalSentences + s.ChecksumErrors

	var validPercent, decodeErrorPercent, anomalousPercent, checksumPercent float64
	if s.TotalSentences > 0 {
		validPercent = float64(s.ValidSentences) * 100.0 / float64(s.TotalSentences)
		decodeErrorPercent = float64(s.DecodeErrors) * 100.0 / float64(s.TotalSentences)
		anomalousPercent = float64(s.AnomalousValues) * 100.0 / float64(s.TotalSentences)
	}
	if frames > 0 {
		checksumPercent = float64(s.ChecksumErrors) * 100.0 / float64(frames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Sentences: %8d\n", s.TotalSentences)
	result += fmt.Sprintf("Valid Sentences: %8d (%.1f%%)\n", s.ValidSentences, validPercent)

	if s.ChecksumErrors > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d (%.1f%% of frames)\n", s.ChecksumErrors, checksumPercent)
	}
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d (%.1f%%)\n", s.DecodeErrors, decodeErrorPercent)
		if s.MissingFields > 0 {
			result += fmt.Sprintf("  Missing Field:    %5d\n", s.MissingFields)
		}
		if s.ParseFailures > 0 {
			result += fmt.Sprintf("  Parse Failed:     %5d\n", s.ParseFailures)
		}
	}
	if s.AnomalousValues > 0 {
		result += fmt.Sprintf("Anomalous Values:%8d (%.1f%%)\n", s.AnomalousValues, anomalousPercent)
		if s.InvalidPosition > 0 {
			result += fmt.Sprintf("  Invalid Position: %5d\n", s.InvalidPosition)
		}
		if s.InvalidAngle > 0 {
			result += fmt.Sprintf("  Invalid Heading:  %5d\n", s.InvalidAngle)
		}
		if s.SystemErrors > 0 {
			result += fmt.Sprintf("  System Error:     %5d\n", s.SystemErrors)
		}
		if s.NoFix > 0 {
			result += fmt.Sprintf("  No Fix:           %5d\n", s.NoFix)
		}
		if s.NoSatellites > 0 {
			result += fmt.Sprintf("  No Satellites:    %5d\n", s.NoSatellites)
		}
		if s.InvalidTemp > 0 {
			result += fmt.Sprintf("  Invalid Temp:     %5d\n", s.InvalidTemp)
		}
		if s.UnknownVerbs > 0 {
			result += fmt.Sprintf("  Unknown Verb:     %5d\n", s.UnknownVerbs)
		}
	}
	if s.SkippedBytes > 0 {
		result += fmt.Sprintf("Skipped Bytes:   %8d (%d forced)\n", s.SkippedBytes, s.ForcedDrops)
	}

	if len(s.ByHead) > 0 {
		result += "By Head:\n"
		for _, head := range s.Heads() {
			result += fmt.Sprintf("  %-8s %12d\n", head, s.ByHead[head])
		}
	}

	result += fmt.Sprintf("Sentence Rate:   %8.1f sent/sec\n", s.SentenceRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	last := s.parserLast
	*s = *NewStatistics()
	s.parserBase = last
	s.parserLast = last
}
