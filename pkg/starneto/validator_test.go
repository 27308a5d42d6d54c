// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

import (
	"strings"
	"testing"
	"time"
)

func mustParse(t *testing.T, body string) Message {
	t.Helper()
	msg, err := ParseBody(body)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return msg
}

func anomalyTypes(errs []ValidationError) []AnomalyType {
	types := make([]AnomalyType, len(errs))
	for i, e := range errs {
		types[i] = e.Type
	}
	return types
}

// ============================================================
// Validator Tests
// ============================================================

func TestValidateMessage_CleanFixtures(t *testing.T) {
	for _, line := range []string{fpdLine, imuLine, hpdLine, ggaLine, cmdLine, rmcLine} {
		t.Run(line[1:6], func(t *testing.T) {
			if errs := ValidateMessage(mustParse(t, body(line))); len(errs) != 0 {
				t.Errorf("Expected no anomalies, got %v", anomalyTypes(errs))
			}
		})
	}
}

func TestValidateMessage_FPDAnomalies(t *testing.T) {
	msg := mustParse(t, "GPFPD,2185,108150.400,372.628,2.722,0.188,39.9926157,116.3269623,-308580.94,0.003,-0.033,-3243.491,10.191,0,0,F4")
	errs := ValidateMessage(msg)

	types := anomalyTypes(errs)
	if len(types) != 2 || types[0] != ANOMALY_INVALID_ANGLE || types[1] != ANOMALY_SYSTEM_ERROR {
		t.Errorf("Expected [INVALID_ANGLE SYSTEM_ERROR], got %v", types)
	}
	if !strings.Contains(errs[0].Error(), "372.628") {
		t.Errorf("Expected exact heading in message, got %s", errs[0].Error())
	}
}

func TestValidateMessage_NoSatellitesWhilePositioning(t *testing.T) {
	msg := mustParse(t, "GPFPD,2185,108150.400,272.628,2.722,0.188,39.9926157,116.3269623,-308580.94,0.003,-0.033,-3243.491,10.191,0,0,34")
	types := anomalyTypes(ValidateMessage(msg))
	if len(types) != 1 || types[0] != ANOMALY_NO_SATELLITES {
		t.Errorf("Expected [NO_SATELLITES], got %v", types)
	}
}

func TestValidateMessage_PositionRange(t *testing.T) {
	fpd := *expectedFPD
	fpd.Latitude = 900000001
	fpd.Longitude = -1800000001
	types := anomalyTypes(ValidateMessage(&fpd))
	if len(types) != 2 || types[0] != ANOMALY_INVALID_POSITION || types[1] != ANOMALY_INVALID_POSITION {
		t.Errorf("Expected two INVALID_POSITION, got %v", types)
	}

	fpd.Latitude = -900000000
	fpd.Longitude = 1800000000
	if errs := ValidateMessage(&fpd); len(errs) != 0 {
		t.Errorf("Range limits should be valid, got %v", anomalyTypes(errs))
	}
}

func TestValidateMessage_IMUTemperature(t *testing.T) {
	msg := mustParse(t, "GTIMU,0,6.000,3.3755,-0.0768,-3.0907,-0.1633,0.6105,0.7855,127.5")
	types := anomalyTypes(ValidateMessage(msg))
	if len(types) != 1 || types[0] != ANOMALY_INVALID_TEMP {
		t.Errorf("Expected [INVALID_TEMP], got %v", types)
	}
}

func TestValidateMessage_GGA(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []AnomalyType
	}{
		{
			name:     "no fix",
			body:     "GPGGA,060220.00,3959.55874779,N,11619.61828897,E,0,0,1.6,60.1397,M,-9.2862,M,,",
			expected: []AnomalyType{ANOMALY_NO_FIX},
		},
		{
			name:     "fix without satellites",
			body:     "GPGGA,060220.00,3959.55874779,N,11619.61828897,E,1,0,1.6,60.1397,M,-9.2862,M,,",
			expected: []AnomalyType{ANOMALY_NO_SATELLITES},
		},
		{
			name:     "minutes out of range",
			body:     "GPGGA,060220.00,3975.00000000,N,11619.61828897,E,1,17,1.6,60.1397,M,-9.2862,M,,",
			expected: []AnomalyType{ANOMALY_INVALID_POSITION},
		},
		{
			name:     "longitude past 180",
			body:     "GPGGA,060220.00,3959.55874779,N,18000.00010000,W,1,17,1.6,60.1397,M,-9.2862,M,,",
			expected: []AnomalyType{ANOMALY_INVALID_POSITION},
		},
		{
			name:     "longitude at 180",
			body:     "GPGGA,060220.00,3959.55874779,N,18000.00000000,W,1,17,1.6,60.1397,M,-9.2862,M,,",
			expected: []AnomalyType{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			types := anomalyTypes(ValidateMessage(mustParse(t, tt.body)))
			if len(types) != len(tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, types)
			}
			for i := range types {
				if types[i] != tt.expected[i] {
					t.Errorf("Expected %v, got %v", tt.expected, types)
				}
			}
		})
	}
}

func TestValidateMessage_UnknownVerb(t *testing.T) {
	types := anomalyTypes(ValidateMessage(&Command{Verb: "reboot", Payload: "now"}))
	if len(types) != 1 || types[0] != ANOMALY_UNKNOWN_VERB {
		t.Errorf("Expected [UNKNOWN_VERB], got %v", types)
	}
}

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatSentence_FPD(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 34, 56, 789000000, time.UTC)
	out := FormatSentence(&Sentence{Message: expectedFPD, Checksum: 0x63}, at)

	for _, want := range []string{
		"[12:34:56.789] ATTITUDE_POSITION (GPFPD) cs=0x63",
		"Time: 108150.400 s",
		"Heading: 272.628°, Pitch: 2.722°, Roll: 0.188°",
		"Lat: 39.9926157°, Lon: 116.3269623°, Alt: -308580.94 m",
		"Velocity: E=0.003 N=-0.033 U=-3243.491 m/s",
		"Baseline: 10.191 m, Satellites: 15/18",
		"Status: INITIALIZING / RTK_FIXED",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestFormatSentence_GGA(t *testing.T) {
	out := FormatSentence(&Sentence{Message: expectedGGA, Checksum: 0x42}, time.Time{})

	for _, want := range []string{
		"GNSS_FIX (GPGGA)",
		"UTC: 06:02:20.00, Fix: SINGLE_POINT, Satellites: 17, HDOP: 1.6",
		"Lat: 3959.55874779 N, Lon: 11619.61828897 E",
		"Alt: 60.1397 M, Geoid: -9.2862 M",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Differential") {
		t.Error("Differential line should be omitted when both fields are blank")
	}
}

func TestFormatMessage_Kinds(t *testing.T) {
	tests := []struct {
		msg  Message
		want string
	}{
		{expectedIMU, "Temperature: 27.5°C"},
		{expectedIMU, "Gyro: X=3.3755 Y=-0.0768 Z=-3.0907 deg/s"},
		{&HPD{Status: HeadingRTKHeading}, "Status: RTK_HEADING"},
		{NewCommand(VerbGet, "product"), "Verb: get, Payload: product"},
		{&RMC{Raw: "a,b"}, "Fields: a,b"},
	}

	for _, tt := range tests {
		if out := FormatMessage(tt.msg); !strings.Contains(out, tt.want) {
			t.Errorf("%s: expected %q in:\n%s", tt.msg.Head(), tt.want, out)
		}
	}
}

func TestFormatHead(t *testing.T) {
	if FormatHead(HeadIMU) != "RAW_IMU" {
		t.Errorf("Unexpected name for GTIMU: %s", FormatHead(HeadIMU))
	}
	if FormatHead("PSTNX") != "UNKNOWN" {
		t.Errorf("Unexpected name for unknown head: %s", FormatHead("PSTNX"))
	}
}

func TestEnumStrings_Unknown(t *testing.T) {
	if s := SystemStatus(0xD).String(); s != "UNKNOWN(0xD)" {
		t.Errorf("Unexpected system status string %s", s)
	}
	if s := FixQuality(3).String(); s != "UNKNOWN(3)" {
		t.Errorf("Unexpected fix quality string %s", s)
	}
}

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_Update(t *testing.T) {
	stats := NewStatistics()

	valid := &Sentence{Message: expectedFPD, Checksum: 0x63}
	stats.Update(valid, nil, nil)
	stats.Update(&Sentence{Message: expectedIMU}, nil, nil)

	_, decodeErr := ParseBody("GPFPD")
	stats.Update(nil, decodeErr, nil)
	_, decodeErr = ParseBody("GPFPD,x")
	stats.Update(nil, decodeErr, nil)

	anomalous := &Sentence{Message: &Command{Verb: "reboot"}}
	stats.Update(anomalous, nil, ValidateMessage(anomalous.Message))

	if stats.TotalSentences != 5 {
		t.Errorf("Expected 5 total, got %d", stats.TotalSentences)
	}
	if stats.ValidSentences != 2 {
		t.Errorf("Expected 2 valid, got %d", stats.ValidSentences)
	}
	if stats.DecodeErrors != 2 || stats.MissingFields != 1 || stats.ParseFailures != 1 {
		t.Errorf("Unexpected decode counters: %+v", stats)
	}
	if stats.AnomalousValues != 1 || stats.UnknownVerbs != 1 {
		t.Errorf("Unexpected anomaly counters: %+v", stats)
	}
	if stats.ByHead[HeadFPD] != 1 || stats.ByHead[HeadIMU] != 1 || stats.ByHead[HeadCommand] != 1 {
		t.Errorf("Unexpected per-head counts: %v", stats.ByHead)
	}

	out := stats.String()
	for _, want := range []string{"Total Sentences:        5", "Decode Errors:", "Unknown Verb:", "GPFPD"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected summary to contain %q, got:\n%s", want, out)
		}
	}
}

func TestStatistics_ObserveParserAndReset(t *testing.T) {
	stats := NewStatistics()
	stats.ObserveParser(ParserStats{ChecksumErrors: 3, SkippedBytes: 10, ForcedDrops: 2})
	if stats.ChecksumErrors != 3 || stats.SkippedBytes != 10 || stats.ForcedDrops != 2 {
		t.Errorf("Unexpected framing counters: %+v", stats)
	}
	if stats.ErrorCount() != 3 {
		t.Errorf("Expected error count 3, got %d", stats.ErrorCount())
	}

	stats.Reset()
	if stats.ChecksumErrors != 0 || stats.TotalSentences != 0 || len(stats.ByHead) != 0 {
		t.Errorf("Expected counters cleared, got %+v", stats)
	}

	stats.ObserveParser(ParserStats{ChecksumErrors: 5, SkippedBytes: 10, ForcedDrops: 2})
	if stats.ChecksumErrors != 2 || stats.SkippedBytes != 0 {
		t.Errorf("Expected counters relative to reset, got %+v", stats)
	}
}
