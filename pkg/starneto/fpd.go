// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

// Decimal places of the scaled GPFPD and GPHPD fields
const (
	TimePlaces     = 3 // seconds of week
	AnglePlaces    = 3 // degrees
	LatLonPlaces   = 7 // degrees
	AltitudePlaces = 2 // meters
	VelocityPlaces = 3 // m/s
	BaselinePlaces = 3 // meters
)

// FPD is the GPFPD attitude and position composite.
// Scaled fields hold value * 10^places, see the *Places constants.
type FPD struct {
	GPSWeek   uint16
	GPSTime   uint32
	Heading   uint32
	Pitch     int32
	Roll      int32
	Latitude  int32
	Longitude int32
	Altitude  int32
	VelE      int32
	VelN      int32
	VelU      int32
	Baseline  uint16
	NSV1      uint8 // satellites seen by antenna 1
	NSV2      uint8 // satellites seen by antenna 2
	Status    FPDStatus
}

// FPDStatus is the two-digit GPFPD status code
type FPDStatus struct {
	System SystemStatus
	RTK    RTKStatus
}

func (*FPD) Head() string { return HeadFPD }
func (*FPD) message()     {}

func (m *FPD) fields() []field {
	return []field{
		plain("GPSWeek", &m.GPSWeek),
		fixed("GPSTime", TimePlaces, &m.GPSTime),
		fixed("Heading", AnglePlaces, &m.Heading),
		fixed("Pitch", AnglePlaces, &m.Pitch),
		fixed("Roll", AnglePlaces, &m.Roll),
		fixed("Latitude", LatLonPlaces, &m.Latitude),
		fixed("Longitude", LatLonPlaces, &m.Longitude),
		fixed("Altitude", AltitudePlaces, &m.Altitude),
		fixed("Ve", VelocityPlaces, &m.VelE),
		fixed("Vn", VelocityPlaces, &m.VelN),
		fixed("Vu", VelocityPlaces, &m.VelU),
		fixed("Baseline", BaselinePlaces, &m.Baseline),
		plain("NSV1", &m.NSV1),
		plain("NSV2", &m.NSV2),
		enum("Status", &m.Status, parseFPDStatus),
	}
}

func decodeFPD(tail string, present bool) (Message, error) {
	m := &FPD{}
	if err := decodeFields(HeadFPD, splitTail(tail, present), m.fields()); err != nil {
		return nil, err
	}
	return m, nil
}

func parseFPDStatus(s string) (FPDStatus, bool) {
	if len(s) != 2 {
		return FPDStatus{}, false
	}
	sys, ok := parseSystemStatus(s[0])
	if !ok {
		return FPDStatus{}, false
	}
	rtk, ok := parseRTKStatus(s[1])
	if !ok {
		return FPDStatus{}, false
	}
	return FPDStatus{System: sys, RTK: rtk}, true
}

func parseSystemStatus(c byte) (SystemStatus, bool) {
	switch {
	case c >= '0' && c <= '9':
		return SystemStatus(c - '0'), true
	case c >= 'A' && c <= 'C':
		return SystemStatus(c - 'A' + 10), true
	case c == 'F':
		return SysDynamicError, true
	}
	return 0, false
}

func parseRTKStatus(c byte) (RTKStatus, bool) {
	switch c {
	case '0':
		return RTKSingle, true
	case '2':
		return RTKDualMode, true
	case '4':
		return RTKFixed, true
	case '5':
		return RTKFloat, true
	}
	return 0, false
}
