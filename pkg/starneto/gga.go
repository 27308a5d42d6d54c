// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

// UTCTimePlaces is the number of decimal places of the GPGGA time of day
const UTCTimePlaces = 2

// Hemisphere is a GPGGA hemisphere letter (N, S, E or W)
type Hemisphere byte

// LengthUnit is a GPGGA unit letter
type LengthUnit byte

// GGA is a GPGGA fix. Coordinates keep the receiver's own precision, which
// varies between firmware versions, so their scale is read from the token.
// Raw holds the undivided field text for exact re-encoding.
type GGA struct {
	UTCTime        uint32          // hhmmss.ss * 100
	Latitude       Decimal[uint64] // ddmm.mmmm
	NS             Hemisphere
	Longitude      Decimal[uint64] // dddmm.mmmm
	EW             Hemisphere
	Quality        FixQuality
	Satellites     uint8
	HDOP           Decimal[uint16]
	Altitude       Decimal[int32]
	AltitudeUnit   LengthUnit
	Separation     Decimal[int32] // geoid separation
	SeparationUnit LengthUnit
	DiffAge        *uint8  // seconds since last differential correction
	DiffStation    *uint16 // differential reference station id
	Raw            string
}

func (*GGA) Head() string   { return HeadGGA }
func (m *GGA) Tail() string { return m.Raw }
func (*GGA) message()       {}

func (m *GGA) fields() []field {
	return []field{
		fixed("UTCTime", UTCTimePlaces, &m.UTCTime),
		decimal("Latitude", &m.Latitude),
		enum("N", &m.NS, parseHemisphere(North, South)),
		decimal("Longitude", &m.Longitude),
		enum("E", &m.EW, parseHemisphere(East, West)),
		enum("FS", &m.Quality, parseFixQuality),
		plain("NoSV", &m.Satellites),
		decimal("HDOP", &m.HDOP),
		decimal("Altitude", &m.Altitude),
		enum("AltUnit", &m.AltitudeUnit, parseLengthUnit),
		decimal("Altref", &m.Separation),
		enum("AltrefUnit", &m.SeparationUnit, parseLengthUnit),
		optional("DiffAge", &m.DiffAge),
		optional("DiffStation", &m.DiffStation),
	}
}

func decodeGGA(tail string, present bool) (Message, error) {
	m := &GGA{Raw: tail}
	if err := decodeFields(HeadGGA, splitTail(tail, present), m.fields()); err != nil {
		return nil, err
	}
	return m, nil
}

func parseHemisphere(a, b byte) func(string) (Hemisphere, bool) {
	return func(s string) (Hemisphere, bool) {
		if len(s) != 1 || (s[0] != a && s[0] != b) {
			return 0, false
		}
		return Hemisphere(s[0]), true
	}
}

func parseLengthUnit(s string) (LengthUnit, bool) {
	if len(s) != 1 || s[0] != UnitMeters {
		return 0, false
	}
	return UnitMeters, true
}

func parseFixQuality(s string) (FixQuality, bool) {
	if len(s) != 1 {
		return 0, false
	}
	switch q := FixQuality(s[0] - '0'); q {
	case FixInvalid, FixSinglePoint, FixDifferential, FixRTKFixed, FixRTKFloat,
		FixEstimating, FixManual, FixDeadReckoning, FixWAAS:
		return q, true
	}
	return 0, false
}
