// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

import (
	"errors"
	"testing"
)

// ============================================================
// Re-serialization Tests
// ============================================================

func TestRebuild_RoundTrip(t *testing.T) {
	tests := []string{ggaLine, cmdLine, rmcLine, chcLine, unkLine}

	for _, line := range tests {
		t.Run(line[1:6], func(t *testing.T) {
			p := NewParser(DefaultBufferSize)
			p.Write([]byte(line + "\r\n"))

			s, err := p.Next()
			if err != nil || s == nil {
				t.Fatalf("Expected sentence, got %v, %v", s, err)
			}
			out, err := EncodeSentence(s)
			if err != nil {
				t.Fatalf("Encode error: %v", err)
			}
			if out != line {
				t.Errorf("Round trip mismatch:\n  in:  %s\n  out: %s", line, out)
			}
		})
	}
}

func TestRebuild_UppercaseDigits(t *testing.T) {
	out := Rebuild(HeadIMU, "0,6.000", 0x0A)
	if out != "$GTIMU,0,6.000*0A" {
		t.Errorf("Expected zero-padded uppercase checksum, got %s", out)
	}
}

func TestRebuild_CommandLiteral(t *testing.T) {
	out := Rebuild(HeadCommand, "get,product", 0x12)
	if out != "$cmd,get,product*ff" {
		t.Errorf("Expected literal ff checksum, got %s", out)
	}
}

func TestEncode_NoTail(t *testing.T) {
	for _, m := range []Message{expectedFPD, expectedIMU, &HPD{}} {
		if _, err := Encode(m, 0); !errors.Is(err, ErrNoTail) {
			t.Errorf("%s: expected ErrNoTail, got %v", m.Head(), err)
		}
	}
}

func TestChecksum_MatchesWire(t *testing.T) {
	if cs := Checksum(HeadGGA, expectedGGA.Raw); cs != 0x42 {
		t.Errorf("Expected 0x42, got 0x%02X", cs)
	}
}

func TestEncodeCommand(t *testing.T) {
	tests := []struct {
		name     string
		cmd      *Command
		expected string
	}{
		{"get", NewCommand(VerbGet, "product"), "$cmd,get,product*ff\r\n"},
		{"set", NewCommand(VerbSet, "navmode,single,1"), "$cmd,set,navmode,single,1*ff\r\n"},
		{"through", NewCommand(VerbThrough, "com1,gpgga,1"), "$cmd,through,com1,gpgga,1*ff\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out := string(EncodeCommand(tt.cmd)); out != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, out)
			}
		})
	}
}

func TestEncodeCommand_ParsesBack(t *testing.T) {
	p := NewParser(DefaultBufferSize)
	p.Write(EncodeCommand(NewCommand(VerbSet, "baud,115200")))

	s, err := p.Next()
	if err != nil || s == nil {
		t.Fatalf("Expected sentence, got %v, %v", s, err)
	}
	cmd, ok := s.Message.(*Command)
	if !ok || cmd.Verb != VerbSet || cmd.Payload != "baud,115200" {
		t.Errorf("Unexpected command: %+v", s.Message)
	}
}

// ============================================================
// CBOR Record Tests
// ============================================================

func TestEncodeCBOR_FPD(t *testing.T) {
	data, err := EncodeCBOR(&Sentence{Message: expectedFPD, Checksum: 0x63})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	head, cs, payload, err := ParseCBORRecord(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if head != HeadFPD || cs != 0x63 {
		t.Errorf("Expected GPFPD/0x63, got %s/0x%02X", head, cs)
	}
	if v, ok := GetMapInt(payload, 7); !ok || v != -30858094 {
		t.Errorf("Expected altitude -30858094, got %d (%v)", v, ok)
	}
	if v, ok := GetMapUint(payload, 0); !ok || v != 2185 {
		t.Errorf("Expected week 2185, got %d (%v)", v, ok)
	}
	if v, ok := GetMapUint(payload, 14); !ok || v != 0x04 {
		t.Errorf("Expected status 0x04, got 0x%02X (%v)", v, ok)
	}
}

func TestEncodeCBOR_GGA(t *testing.T) {
	data, err := EncodeCBOR(&Sentence{Message: expectedGGA, Checksum: 0x42})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	_, _, payload, err := ParseCBORRecord(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	lat, ok := GetMapDecimal(payload, 1)
	if !ok || lat.Value != 395955874779 || lat.Places != 8 {
		t.Errorf("Expected latitude {395955874779 8}, got %+v (%v)", lat, ok)
	}
	sep, ok := GetMapDecimal(payload, 10)
	if !ok || sep.Value != -92862 || sep.Places != 4 {
		t.Errorf("Expected separation {-92862 4}, got %+v (%v)", sep, ok)
	}
	if ns, ok := GetMapString(payload, 2); !ok || ns != "N" {
		t.Errorf("Expected N, got %q", ns)
	}
	if _, ok := payload[12]; ok {
		t.Error("Absent DiffAge should be omitted")
	}
}

func TestEncodeCBOR_Passthrough(t *testing.T) {
	data, err := EncodeCBOR(&Sentence{Message: &Unknown{Name: "PSTNX", Raw: "hello,world"}, Checksum: 0x41})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	head, _, payload, err := ParseCBORRecord(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if tail, ok := GetMapString(payload, 0); head != "PSTNX" || !ok || tail != "hello,world" {
		t.Errorf("Unexpected record: %s %v", head, payload)
	}
}

func TestParseCBORRecord_Errors(t *testing.T) {
	if _, _, _, err := ParseCBORRecord(nil); err == nil {
		t.Error("Expected error for empty record")
	}
	if _, _, _, err := ParseCBORRecord([]byte{0xFF}); err == nil {
		t.Error("Expected error for invalid CBOR")
	}
	// [1, 2] encoded by hand
	if _, _, _, err := ParseCBORRecord([]byte{0x82, 0x01, 0x02}); err == nil {
		t.Error("Expected error for two-element array")
	}
}
