// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR record layout: [head, checksum, payload_map]
//
// Payload keys are field positions in sentence order. Scaled fields carry the
// scaled integer, Decimal fields a [value, places] pair, and passthrough
// kinds a single key 0 holding the raw tail. Absent optional fields are
// omitted.

// EncodeCBOR encodes a sentence as a CBOR record
func EncodeCBOR(s *Sentence) ([]byte, error) {
	payload, err := cborPayload(s.Message)
	if err != nil {
		return nil, err
	}
	record := []interface{}{s.Message.Head(), s.Checksum, payload}
	data, err := cbor.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode CBOR: %w", err)
	}
	return data, nil
}

func cborPayload(m Message) (map[int]interface{}, error) {
	switch m := m.(type) {
	case *FPD:
		return map[int]interface{}{
			0: m.GPSWeek, 1: m.GPSTime, 2: m.Heading, 3: m.Pitch, 4: m.Roll,
			5: m.Latitude, 6: m.Longitude, 7: m.Altitude,
			8: m.VelE, 9: m.VelN, 10: m.VelU, 11: m.Baseline,
			12: m.NSV1, 13: m.NSV2, 14: uint8(m.Status.System)<<4 | uint8(m.Status.RTK),
		}, nil
	case *IMU:
		return map[int]interface{}{
			0: m.GPSWeek, 1: m.GPSTime,
			2: m.GyroX, 3: m.GyroY, 4: m.GyroZ,
			5: m.AccX, 6: m.AccY, 7: m.AccZ,
			8: m.Temperature,
		}, nil
	case *HPD:
		return map[int]interface{}{
			0: m.GPSWeek, 1: m.GPSTime, 2: m.Heading, 3: m.Pitch, 4: m.Track,
			5: m.Latitude, 6: m.Longitude, 7: m.Altitude,
			8: m.VelE, 9: m.VelN, 10: m.VelU, 11: m.Baseline,
			12: m.NSV1, 13: m.NSV2, 14: uint8(m.Status),
		}, nil
	case *GGA:
		payload := map[int]interface{}{
			0: m.UTCTime, 1: cborDecimal(m.Latitude), 2: string(rune(m.NS)),
			3: cborDecimal(m.Longitude), 4: string(rune(m.EW)),
			5: uint8(m.Quality), 6: m.Satellites, 7: cborDecimal(m.HDOP),
			8: cborDecimal(m.Altitude), 9: string(rune(m.AltitudeUnit)),
			10: cborDecimal(m.Separation), 11: string(rune(m.SeparationUnit)),
		}
		if m.DiffAge != nil {
			payload[12] = *m.DiffAge
		}
		if m.DiffStation != nil {
			payload[13] = *m.DiffStation
		}
		return payload, nil
	case *Command:
		return map[int]interface{}{0: string(m.Verb), 1: m.Payload}, nil
	case Tailer:
		return map[int]interface{}{0: m.Tail()}, nil
	}
	return nil, fmt.Errorf("no CBOR layout for %T", m)
}

func cborDecimal[T Integer](d Decimal[T]) []interface{} {
	return []interface{}{d.Value, d.Places}
}

// ParseCBORRecord parses a CBOR record: [head, checksum, payload_map]
func ParseCBORRecord(data []byte) (head string, checksum byte, payload map[int]interface{}, err error) {
	if len(data) == 0 {
		return "", 0, nil, fmt.Errorf("empty CBOR record")
	}

	var record []interface{}
	if err := cbor.Unmarshal(data, &record); err != nil {
		return "", 0, nil, fmt.Errorf("failed to decode CBOR: %w", err)
	}

	if len(record) != 3 {
		return "", 0, nil, fmt.Errorf("expected 3-element array, got %d elements", len(record))
	}

	head, ok := record[0].(string)
	if !ok {
		return "", 0, nil, fmt.Errorf("expected string for head, got %T", record[0])
	}

	switch v := record[1].(type) {
	case uint64:
		if v > 255 {
			return "", 0, nil, fmt.Errorf("checksum out of range: %d", v)
		}
		checksum = byte(v)
	default:
		return "", 0, nil, fmt.Errorf("expected uint for checksum, got %T", record[1])
	}

	switch v := record[2].(type) {
	case map[interface{}]interface{}:
		payload = make(map[int]interface{}, len(v))
		for key, val := range v {
			switch k := key.(type) {
			case uint64:
				payload[int(k)] = val
			case int64:
				payload[int(k)] = val
			default:
				return "", 0, nil, fmt.Errorf("expected integer map key, got %T", key)
			}
		}
	default:
		return "", 0, nil, fmt.Errorf("expected map for payload, got %T", record[2])
	}

	return head, checksum, payload, nil
}

// Map value extraction helpers

// GetMapUint extracts a uint64 from a CBOR map by key
func GetMapUint(m map[int]interface{}, key int) (uint64, bool) {
	switch val := m[key].(type) {
	case uint64:
		return val, true
	case int64:
		if val >= 0 {
			return uint64(val), true
		}
	}
	return 0, false
}

// GetMapInt extracts an int64 from a CBOR map by key
func GetMapInt(m map[int]interface{}, key int) (int64, bool) {
	switch val := m[key].(type) {
	case int64:
		return val, true
	case uint64:
		return int64(val), true
	}
	return 0, false
}

// GetMapString extracts a text string from a CBOR map by key
func GetMapString(m map[int]interface{}, key int) (string, bool) {
	val, ok := m[key].(string)
	return val, ok
}

// GetMapDecimal extracts a [value, places] pair from a CBOR map by key
func GetMapDecimal(m map[int]interface{}, key int) (Decimal[int64], bool) {
	pair, ok := m[key].([]interface{})
	if !ok || len(pair) != 2 {
		return Decimal[int64]{}, false
	}
	inner := map[int]interface{}{0: pair[0], 1: pair[1]}
	value, ok := GetMapInt(inner, 0)
	if !ok {
		return Decimal[int64]{}, false
	}
	places, ok := GetMapUint(inner, 1)
	if !ok || places > 0xFF {
		return Decimal[int64]{}, false
	}
	return Decimal[int64]{Value: value, Places: uint8(places)}, true
}
