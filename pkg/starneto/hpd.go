// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

// HPD is the GPHPD heading and position sentence. Its layout follows GPFPD
// with the track angle in place of roll and a single status code.
type HPD struct {
	GPSWeek   uint16
	GPSTime   uint32
	Heading   uint32
	Pitch     int32
	Track     int32
	Latitude  int32
	Longitude int32
	Altitude  int32
	VelE      int32
	VelN      int32
	VelU      int32
	Baseline  uint16
	NSV1      uint8
	NSV2      uint8
	Status    HeadingStatus
}

func (*HPD) Head() string { return HeadHPD }
func (*HPD) message()     {}

func (m *HPD) fields() []field {
	return []field{
		plain("GPSWeek", &m.GPSWeek),
		fixed("GPSTime", TimePlaces, &m.GPSTime),
		fixed("Heading", AnglePlaces, &m.Heading),
		fixed("Pitch", AnglePlaces, &m.Pitch),
		fixed("Track", AnglePlaces, &m.Track),
		fixed("Latitude", LatLonPlaces, &m.Latitude),
		fixed("Longitude", LatLonPlaces, &m.Longitude),
		fixed("Altitude", AltitudePlaces, &m.Altitude),
		fixed("Ve", VelocityPlaces, &m.VelE),
		fixed("Vn", VelocityPlaces, &m.VelN),
		fixed("Vu", VelocityPlaces, &m.VelU),
		fixed("Baseline", BaselinePlaces, &m.Baseline),
		plain("NSV1", &m.NSV1),
		plain("NSV2", &m.NSV2),
		enum("Status", &m.Status, parseHeadingStatus),
	}
}

func decodeHPD(tail string, present bool) (Message, error) {
	m := &HPD{}
	if err := decodeFields(HeadHPD, splitTail(tail, present), m.fields()); err != nil {
		return nil, err
	}
	return m, nil
}

// parseHeadingStatus reads the status as a decimal number, so "00" and "11"
// are both accepted
func parseHeadingStatus(s string) (HeadingStatus, bool) {
	n, err := ParseInteger[uint8](s)
	if err != nil {
		return 0, false
	}
	switch st := HeadingStatus(n); st {
	case HeadingInitializing, HeadingGPSPositioning, HeadingGPSHeading,
		HeadingRTKPositioning, HeadingRTKHeading:
		return st, true
	}
	return 0, false
}
